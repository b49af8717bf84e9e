package research

import (
	"context"
	"fmt"
	"log/slog"

	"leadscout/internal/domain"
)

const emailSystemPrompt = `You are a sales copywriter. Write a short,
personalized cold outreach email to the given person. Open with something
specific from the research summary, name one concrete problem and the
matching solution, and close with a low-pressure call to action. No
subject line longer than eight words.`

// EmailGenerator drafts the outreach email from accumulated research.
type EmailGenerator struct {
	provider domain.LLMProvider
	logger   *slog.Logger
}

func NewEmailGenerator(provider domain.LLMProvider, logger *slog.Logger) *EmailGenerator {
	return &EmailGenerator{provider: provider, logger: logger}
}

// Process implements domain.Agent.
func (a *EmailGenerator) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyPersonName, domain.KeyCompanyName); err != nil {
		return nil, err
	}
	person := payload.String(domain.KeyPersonName)
	company := payload.String(domain.KeyCompanyName)
	summary := payload.String(domain.KeyResearchSummary)

	user := fmt.Sprintf("Recipient: %s\nCompany: %s\n\nResearch summary:\n%s", person, company, summary)
	fallback := fmt.Sprintf("Draft email to %s at %s: no provider configured, draft unavailable.", person, company)

	email, err := askLLM(ctx, a.provider, emailSystemPrompt, user, fallback)
	if err != nil {
		return nil, fmt.Errorf("email generation for %s: %w", person, err)
	}

	a.logger.Info("email generation completed", "person_name", person, "company_name", company)
	return email, nil
}
