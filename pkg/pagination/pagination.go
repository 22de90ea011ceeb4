package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{Page: 1, PageSize: 20}
}

// FromRequest extracts pagination parameters from an HTTP request. Values out
// of range fall back to defaults; page_size is capped at 100.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("page_size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= 100 {
			p.PageSize = v
		}
	}

	return p
}

// Query encodes the params as URL query values for the backend API.
func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("page_size", strconv.Itoa(p.PageSize))
	return q
}

// Page is the paginated list envelope returned by the backend API
// (count/next/previous/results). The storefront surfaces it unchanged so the
// UI's pagination controls stay in sync with the backend's page math.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool {
	return p.Next != nil
}
