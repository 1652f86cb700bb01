// Package cli renders search results and prepared demo scenarios for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const (
	descriptionPreview = 200
	rule               = "────────────────────────────────────────────────────────────────────────────────"
)

// ParseOutputFormat maps a flag value to a format. Unknown values are an error.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d. %s | %s | %s | %.4f\n",
				r.Rank, r.Record.Title, r.Record.Agency, FormatDate(r.Record.Deadline), r.Distance)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nResults for %q: %d grants in %dms\n\n", response.Query, response.Total, response.QueryTime)
	if len(response.Results) == 0 {
		fmt.Fprintln(w, "No grants found.")
		return
	}
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	r := result.Record
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "#%d. %s\n", result.Rank, r.Title)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Number:   %s\n", r.Number)
	fmt.Fprintf(w, "Agency:   %s\n", r.Agency)
	fmt.Fprintf(w, "Amount:   %s\n", FormatAmount(r.AmountMin, r.AmountMax))
	fmt.Fprintf(w, "Deadline: %s\n", FormatDate(r.Deadline))
	fmt.Fprintf(w, "Category: %s\n", r.Category)
	fmt.Fprintf(w, "Distance: %.4f\n", result.Distance)
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Description, descriptionPreview))
	if models.IsAvailable(r.URL) {
		fmt.Fprintf(w, "\n%s\n", r.URL)
	}
	fmt.Fprintln(w)
}
