package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

var searchTracer = otel.Tracer("carl/directory-search")

// searchTimeout bounds every catalog lookup. A slow index degrades to an
// empty result set upstream rather than stalling the conversation.
const searchTimeout = 5 * time.Second

// Searcher is the consumed interface for full-text program search.
type Searcher interface {
	Search(ctx context.Context, query, category string, limit int) ([]Program, error)
}

// Client talks to the program catalog search API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a search client for the catalog API.
func NewClient(baseURL string, httpClient *http.Client, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: searchTimeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

var _ Searcher = (*Client)(nil)

type searchEnvelope struct {
	Results []Program `json:"results"`
}

// Search queries the catalog, filtered by the facet mapped from category.
func (c *Client) Search(ctx context.Context, query, category string, limit int) ([]Program, error) {
	ctx, span := searchTracer.Start(ctx, "directory.search")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	if facet := FacetFor(category); facet != "" {
		params.Set("facet", facet)
	}

	span.SetAttributes(
		attribute.String("directory.category", category),
		attribute.Int("directory.limit", limit),
	)

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/programs/search?"+params.Encode(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("directory: search returned status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, err
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("directory: failed to decode search response: %w", err)
	}

	if len(envelope.Results) > limit {
		envelope.Results = envelope.Results[:limit]
	}
	return envelope.Results, nil
}
