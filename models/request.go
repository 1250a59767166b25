package models

import "strings"

// SearchQuery is the query string of GET /api/scrape and GET /cards.
type SearchQuery struct {
	// Keyword is the search term. Required, non-blank, given once.
	Keyword string `form:"keyword" binding:"required"`
}

// Normalize trims surrounding whitespace and reports whether a keyword remains.
func (q *SearchQuery) Normalize() bool {
	q.Keyword = strings.TrimSpace(q.Keyword)
	return q.Keyword != ""
}
