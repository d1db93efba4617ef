package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses. Page is 1-based.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the page count for the given totals.
func NewPagination(page, perPage, totalItems int) Pagination {
	p := Pagination{Page: page, PerPage: perPage, TotalItems: totalItems}
	if perPage > 0 {
		p.TotalPages = (totalItems + perPage - 1) / perPage
	}
	return p
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return
}
