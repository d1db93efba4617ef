package backend

import (
	"errors"
	"net/http"

	"github.com/noah-isme/pos-admin/internal/common"
)

// AsAppError translates a backend failure into the API error envelope.
// Backend rejections keep the backend's own message when it sent one.
func AsAppError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if common.IsAppError(err) {
		return err
	}
	if errors.Is(err, ErrUnavailable) {
		return common.NewAppError("BACKEND_UNAVAILABLE", "backend is unavailable, try again later", http.StatusServiceUnavailable, err)
	}
	var be *Error
	if errors.As(err, &be) {
		msg := be.Message
		if msg == "" {
			msg = fallback
		}
		if be.Status == http.StatusNotFound {
			return common.NewAppError("NOT_FOUND", msg, http.StatusNotFound, err)
		}
		return common.NewAppError("REMOTE_ERROR", msg, http.StatusBadGateway, err).
			WithDetails(map[string]any{"status": be.Status})
	}
	return common.NewAppError("REMOTE_ERROR", fallback, http.StatusBadGateway, err)
}
