package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/pkg/utils"
)

// DetailURLPrefix is the public page of an opportunity, followed by its id.
const DetailURLPrefix = "https://www.grants.gov/search-results-detail/"

// ErrNoHits is returned when a response has no data.oppHits.
var ErrNoHits = errors.New("response has no oppHits")

// GrantsGovClient fetches posted opportunities from the Grants.gov search2 API.
type GrantsGovClient struct {
	baseURL  string
	rows     int
	maxTries uint
	backoff  func() backoff.BackOff
	http     *http.Client
	logger   *zap.Logger
}

// ClientOption configures a GrantsGovClient.
type ClientOption func(*GrantsGovClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *GrantsGovClient) {
		g.http = c
	}
}

// WithClientLogger sets the logger used for retry notices.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(g *GrantsGovClient) {
		g.logger = logger
	}
}

// WithBackOff sets the retry schedule factory; each Fetch gets a fresh schedule.
func WithBackOff(fn func() backoff.BackOff) ClientOption {
	return func(g *GrantsGovClient) {
		g.backoff = fn
	}
}

// NewGrantsGovClient creates a client from source settings.
func NewGrantsGovClient(cfg config.SourceConfig, opts ...ClientOption) *GrantsGovClient {
	tries := cfg.MaxTries
	if tries <= 0 {
		tries = 1
	}
	g := &GrantsGovClient{
		baseURL:  cfg.BaseURL,
		rows:     cfg.Rows,
		maxTries: uint(tries),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = utils.OrNop(g.logger)
	return g
}

type searchRequest struct {
	Keyword     string `json:"keyword"`
	OppStatuses string `json:"oppStatuses"`
	Rows        int    `json:"rows"`
}

type searchResponse struct {
	Msg  string `json:"msg"`
	Data *struct {
		OppHits *[]oppHit `json:"oppHits"`
	} `json:"data"`
}

type oppHit struct {
	ID           flexString `json:"id"`
	Number       flexString `json:"number"`
	Title        flexString `json:"title"`
	Synopsis     flexString `json:"synopsis"`
	Description  flexString `json:"description"`
	AgencyName   flexString `json:"agencyName"`
	AwardFloor   flexString `json:"awardFloor"`
	AwardCeiling flexString `json:"awardCeiling"`
	CloseDate    flexString `json:"closeDate"`
	OpenDate     flexString `json:"openDate"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(data)))
	return nil
}

func orNA(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return models.NotAvailable
}

// Fetch posts one search for category and maps the hits to records. Network errors,
// 429 and 5xx responses are retried.
func (g *GrantsGovClient) Fetch(ctx context.Context, category string) ([]models.Record, error) {
	body, err := json.Marshal(searchRequest{Keyword: category, OppStatuses: "posted", Rows: g.rows})
	if err != nil {
		return nil, err
	}

	operation := func() ([]oppHit, error) {
		return g.post(ctx, body)
	}
	hits, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(g.backoff()),
		backoff.WithMaxTries(g.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			g.logger.Debug("retrying grants.gov request",
				zap.String("category", category),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", category, err)
	}

	records := make([]models.Record, 0, len(hits))
	for _, h := range hits {
		id := orNA(h.ID)
		records = append(records, models.Record{
			ID:          id,
			Number:      orNA(h.Number),
			Title:       orNA(h.Title),
			Description: orNA(h.Synopsis, h.Description),
			Agency:      orNA(h.AgencyName),
			AmountMin:   orNA(h.AwardFloor),
			AmountMax:   orNA(h.AwardCeiling),
			Deadline:    orNA(h.CloseDate),
			PostedDate:  orNA(h.OpenDate),
			Category:    category,
			URL:         DetailURLPrefix + strings.TrimSpace(string(h.ID)),
		})
	}
	return records, nil
}

func (g *GrantsGovClient) post(ctx context.Context, body []byte) ([]oppHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("grants.gov: %s", resp.Status)
		if decodeErr == nil && parsed.Msg != "" {
			statusErr = fmt.Errorf("grants.gov: %s: %s", resp.Status, parsed.Msg)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}
	if decodeErr != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", decodeErr))
	}
	if parsed.Data == nil || parsed.Data.OppHits == nil {
		msg := parsed.Msg
		if msg == "" {
			msg = "no error message"
		}
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNoHits, msg))
	}
	return *parsed.Data.OppHits, nil
}
