package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"leadscout/internal/domain"
)

const intelMaxResults = 5

// IntelResearcher gathers live web intelligence on a company through a
// search provider. It covers the generic market research capability as
// well as targeted company lookups.
type IntelResearcher struct {
	searcher domain.SearchProvider
	logger   *slog.Logger
}

func NewIntelResearcher(searcher domain.SearchProvider, logger *slog.Logger) *IntelResearcher {
	return &IntelResearcher{searcher: searcher, logger: logger}
}

// Initialize implements domain.Initializer. A missing search backend is
// a registration-time failure, not a per-request one.
func (a *IntelResearcher) Initialize(ctx context.Context) error {
	if a.searcher == nil {
		return fmt.Errorf("%w: no search provider configured", domain.ErrInvalidInput)
	}
	return nil
}

// Heartbeat implements domain.Heartbeater.
func (a *IntelResearcher) Heartbeat(ctx context.Context) error {
	if a.searcher == nil {
		return fmt.Errorf("%w: search provider lost", domain.ErrInvalidInput)
	}
	return nil
}

// Process implements domain.Agent.
func (a *IntelResearcher) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyCompanyName); err != nil {
		return nil, err
	}
	company := payload.String(domain.KeyCompanyName)
	industry := payload.StringOr(domain.KeyCompanyIndustry, "")
	contactType := payload.StringOr(domain.KeyContactType, "general")

	if a.searcher == nil {
		return fmt.Sprintf("Web intelligence for %s: no search provider configured.", company), nil
	}

	query := buildIntelQuery(company, industry, contactType)
	resp, err := a.searcher.Search(ctx, query, intelMaxResults)
	if err != nil {
		return nil, fmt.Errorf("web intelligence for %s: %w", company, err)
	}

	a.logger.Info("web intelligence completed", "company_name", company, "results", len(resp.Results))
	return summarizeSearch(company, resp), nil
}

func buildIntelQuery(company, industry, contactType string) string {
	parts := []string{company, "company news funding products"}
	if industry != "" {
		parts = append(parts, industry)
	}
	if contactType == "technical" {
		parts = append(parts, "technology stack engineering")
	}
	return strings.Join(parts, " ")
}

// summarizeSearch flattens a search response into report-ready text.
func summarizeSearch(company string, resp *domain.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Web intelligence for %s:\n", company)
	if resp.Answer != "" {
		fmt.Fprintf(&b, "%s\n", resp.Answer)
	}
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	return b.String()
}
