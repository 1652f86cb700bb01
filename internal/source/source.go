// Package source fetches grant listings from the upstream API and prepares them for indexing.
package source

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// maxDescriptionChars bounds the description's share of the searchable text.
const maxDescriptionChars = 500

// Source returns the listings for one category keyword.
type Source interface {
	Fetch(ctx context.Context, category string) ([]models.Record, error)
}

// CollectResult is the outcome of a Collect call.
type CollectResult struct {
	Records []models.Record
	// Failed lists the categories that could not be fetched.
	Failed []string
	// UsedFallback is true when nothing was fetched and DemoRecords were returned instead.
	UsedFallback bool
}

type collectOptions struct {
	logger   *zap.Logger
	fallback func() []models.Record
}

// CollectOption configures Collect.
type CollectOption func(*collectOptions)

// WithLogger sets the logger for per-category progress and failures.
func WithLogger(logger *zap.Logger) CollectOption {
	return func(o *collectOptions) {
		o.logger = logger
	}
}

// WithFallback replaces DemoRecords as the record set used when nothing is fetched.
// A nil function disables the fallback.
func WithFallback(fn func() []models.Record) CollectOption {
	return func(o *collectOptions) {
		o.fallback = fn
	}
}

// Collect fetches every category in order. A failing category is logged and skipped.
// Records are deduplicated by ID, keeping the first occurrence. When the aggregate is
// empty the fallback record set is returned with UsedFallback set.
func Collect(ctx context.Context, src Source, categories []string, opts ...CollectOption) (*CollectResult, error) {
	o := collectOptions{fallback: DemoRecords}
	for _, opt := range opts {
		opt(&o)
	}
	logger := utils.OrNop(o.logger)

	result := &CollectResult{}
	var fetched []models.Record
	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := src.Fetch(ctx, category)
		if err != nil {
			logger.Warn("failed to fetch category, skipping",
				zap.String("category", category),
				zap.Int("step", i+1),
				zap.Int("of", len(categories)),
				zap.Error(err))
			result.Failed = append(result.Failed, category)
			continue
		}
		logger.Info("fetched category",
			zap.String("category", category),
			zap.Int("step", i+1),
			zap.Int("of", len(categories)),
			zap.Int("records", len(records)))
		fetched = append(fetched, records...)
	}

	result.Records = Dedupe(fetched)
	logger.Info("collected unique records", zap.Int("records", len(result.Records)))

	if len(result.Records) == 0 && o.fallback != nil {
		result.Records = o.fallback()
		result.UsedFallback = true
		logger.Warn("no records retrieved from source, using built-in sample records",
			zap.Int("records", len(result.Records)))
	}
	return result, nil
}

// Dedupe drops records whose ID was already seen, keeping order.
func Dedupe(records []models.Record) []models.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SearchableText is the text embedded for a record: title, the first 500 characters of
// the description, agency, and category, skipping missing parts.
func SearchableText(r models.Record) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{
		r.Title,
		utils.Prefix(r.Description, maxDescriptionChars),
		r.Agency,
		r.Category,
	} {
		p = strings.TrimSpace(p)
		if models.IsAvailable(p) {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
