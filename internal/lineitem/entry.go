package lineitem

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseEntry reads a quantity typed by an operator. Blank or unreadable
// input reads as zero. A comma is accepted as the decimal separator.
func ParseEntry(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Entry is a quantity field in a request body. It accepts numbers, numeric
// strings, blank strings and null.
type Entry struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		e.Decimal = decimal.Zero
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.Decimal = ParseEntry(s)
	default:
		e.Decimal = ParseEntry(string(data))
	}
	return nil
}
