package research

import (
	"context"
	"fmt"
	"log/slog"

	"leadscout/internal/domain"
)

const linkedinSystemPrompt = `You are a B2B sales researcher. Build a
profile of the given person at the given company: likely role and
seniority, responsibilities, and what they would care about in a vendor
conversation. Be concise; say when something is inferred.`

// LinkedInAnalyzer profiles a contact person at a prospect company.
type LinkedInAnalyzer struct {
	provider domain.LLMProvider
	logger   *slog.Logger
}

func NewLinkedInAnalyzer(provider domain.LLMProvider, logger *slog.Logger) *LinkedInAnalyzer {
	return &LinkedInAnalyzer{provider: provider, logger: logger}
}

// Process implements domain.Agent.
func (a *LinkedInAnalyzer) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyPersonName, domain.KeyCompanyName); err != nil {
		return nil, err
	}
	person := payload.String(domain.KeyPersonName)
	company := payload.String(domain.KeyCompanyName)

	user := fmt.Sprintf("Person: %s\nCompany: %s", person, company)
	if u := payload.String(domain.KeyLinkedInURL); u != "" {
		user += "\nLinkedIn: " + u
	}
	fallback := fmt.Sprintf("Profile for %s at %s: no provider configured, profile unavailable.", person, company)

	profile, err := askLLM(ctx, a.provider, linkedinSystemPrompt, user, fallback)
	if err != nil {
		return nil, fmt.Errorf("linkedin research for %s: %w", person, err)
	}

	a.logger.Info("linkedin research completed", "person_name", person, "company_name", company)
	return profile, nil
}
