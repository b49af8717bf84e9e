package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"leadscout/internal/domain"
	"leadscout/internal/infra/config"
	"leadscout/internal/infra/tracer"
)

const maxResponseBody = 4 * 1024 * 1024 // 4 MB

// TavilyClient implements domain.SearchProvider against the Tavily REST
// API. A client-side rate limiter keeps request bursts under the plan's
// per-minute quota.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewTavilyClient creates a search client from configuration.
func NewTavilyClient(cfg config.SearchConfig, logger *slog.Logger) *TavilyClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 5
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	return &TavilyClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perMin/60.0), burst),
		logger:     logger,
	}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

// Search implements domain.SearchProvider. It blocks on the rate limiter
// before issuing the request.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) (*domain.SearchResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "search.tavily",
		tracer.StringAttr("search.query", query),
	)
	defer span.End()

	if query == "" {
		err := fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
		tracer.RecordError(span, err)
		return nil, err
	}
	if maxResults <= 0 || maxResults > c.maxResults {
		maxResults = c.maxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   "advanced",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		err := mapHTTPError(httpResp.StatusCode, respBody)
		tracer.RecordError(span, err)
		return nil, err
	}

	var tavResp tavilyResponse
	if err := json.Unmarshal(respBody, &tavResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	out := &domain.SearchResponse{
		Query:   tavResp.Query,
		Answer:  tavResp.Answer,
		Results: make([]domain.SearchResult, 0, len(tavResp.Results)),
	}
	for _, r := range tavResp.Results {
		out.Results = append(out.Results, domain.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}

	span.SetAttributes(tracer.IntAttr("search.results", len(out.Results)))
	tracer.SetOK(span)
	c.logger.Debug("search completed", "query", query, "results", len(out.Results))
	return out, nil
}

func mapHTTPError(statusCode int, body []byte) error {
	detail := fmt.Sprintf("tavily API error %d: %s", statusCode, body)
	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, detail)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, detail)
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", domain.ErrProviderError, detail)
	default:
		return fmt.Errorf("%s", detail)
	}
}

var _ domain.SearchProvider = (*TavilyClient)(nil)
