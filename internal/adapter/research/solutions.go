package research

import (
	"context"
	"fmt"
	"log/slog"

	"leadscout/internal/domain"
)

const solutionsSystemPrompt = `You are an AI solutions consultant. For
each listed industry problem, propose a concrete AI or automation
solution the company could adopt, with its expected impact. Match the
numbering of the problems you are given.`

// SolutionsResearcher maps industry problems to AI solutions.
type SolutionsResearcher struct {
	provider domain.LLMProvider
	logger   *slog.Logger
}

func NewSolutionsResearcher(provider domain.LLMProvider, logger *slog.Logger) *SolutionsResearcher {
	return &SolutionsResearcher{provider: provider, logger: logger}
}

// Process implements domain.Agent.
func (a *SolutionsResearcher) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyIndustryProblems, domain.KeyCompanyIndustry); err != nil {
		return nil, err
	}
	problems := payload.String(domain.KeyIndustryProblems)
	industry := payload.String(domain.KeyCompanyIndustry)
	size := payload.StringOr(domain.KeyCompanySize, "Unknown")

	user := fmt.Sprintf("Industry: %s\nCompany size: %s\n\nProblems:\n%s", industry, size, problems)
	fallback := fmt.Sprintf("AI solutions for %s: no provider configured, analysis unavailable.", industry)

	solutions, err := askLLM(ctx, a.provider, solutionsSystemPrompt, user, fallback)
	if err != nil {
		return nil, fmt.Errorf("solutions research for %s: %w", industry, err)
	}

	a.logger.Info("solutions research completed", "company_industry", industry)
	return solutions, nil
}
