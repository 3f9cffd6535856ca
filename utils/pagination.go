package utils

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page/limit query values, falling back to defaults on
// missing or malformed input and capping limit at MaxLimit.
func ParsePage(page, limit string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Pagination is the block returned next to list results.
type Pagination struct {
	Current    int   `json:"current"`
	Total      int   `json:"total"`
	TotalItems int64 `json:"totalItems"`
}

// NewPagination fills in the page metadata returned with every listing.
func NewPagination(p Page, totalItems int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(totalItems) / float64(p.Limit)))
	}
	return Pagination{Current: p.Page, Total: pages, TotalItems: totalItems}
}
