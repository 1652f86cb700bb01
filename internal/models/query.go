package models

import (
	"fmt"
	"strings"
)

// SearchQuery represents a retrieval request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate trims the query text and clamps Limit into [1, maxLimit], using defaultLimit when unset.
// Blank text is valid and yields an empty result downstream.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative: %d", q.Limit)
	}
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Limit <= 0 {
		q.Limit = 1
	}
	return nil
}
