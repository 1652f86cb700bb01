// Package models defines core data structures for grant records, queries, and search results.
package models

import "fmt"

// NotAvailable marks a field the upstream listing did not provide.
const NotAvailable = "N/A"

// Record is one grant listing. Amounts and dates are kept as the upstream sent them.
type Record struct {
	ID          string `json:"id" db:"id"`
	Number      string `json:"number" db:"number"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Agency      string `json:"agency" db:"agency"`
	AmountMin   string `json:"amount_min" db:"amount_min"`
	AmountMax   string `json:"amount_max" db:"amount_max"`
	Deadline    string `json:"deadline" db:"deadline"`
	PostedDate  string `json:"posted_date" db:"posted_date"`
	Category    string `json:"category" db:"category"`
	URL         string `json:"url" db:"url"`
}

// Validate reports whether the record can be indexed.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	return nil
}

// IsAvailable reports whether a field value carries information.
func IsAvailable(v string) bool {
	return v != "" && v != NotAvailable
}
