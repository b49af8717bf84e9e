package research

import (
	"context"
	"fmt"
	"log/slog"

	"leadscout/internal/domain"
)

const websiteSystemPrompt = `You are a B2B sales researcher. Analyze the
company's website and summarize what the company does, who it sells to,
its apparent size and maturity, and any signals of active growth or
technology investment. Be concise and factual.`

// WebsiteResearcher analyzes a prospect company's website.
type WebsiteResearcher struct {
	provider domain.LLMProvider
	logger   *slog.Logger
}

func NewWebsiteResearcher(provider domain.LLMProvider, logger *slog.Logger) *WebsiteResearcher {
	return &WebsiteResearcher{provider: provider, logger: logger}
}

// Process implements domain.Agent.
func (a *WebsiteResearcher) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyCompanyName, domain.KeyWebsiteURL); err != nil {
		return nil, err
	}
	company := payload.String(domain.KeyCompanyName)
	url := payload.String(domain.KeyWebsiteURL)

	user := fmt.Sprintf("Company: %s\nWebsite: %s\n\nAnalyze this company's web presence.", company, url)
	fallback := fmt.Sprintf("Website analysis for %s (%s): no provider configured, analysis unavailable.", company, url)

	analysis, err := askLLM(ctx, a.provider, websiteSystemPrompt, user, fallback)
	if err != nil {
		return nil, fmt.Errorf("website research for %s: %w", company, err)
	}

	a.logger.Info("website research completed", "company_name", company)
	return analysis, nil
}
