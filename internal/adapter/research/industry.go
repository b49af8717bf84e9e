package research

import (
	"context"
	"fmt"
	"log/slog"

	"leadscout/internal/domain"
)

const industrySystemPrompt = `You are an industry analyst. List the most
pressing operational and market problems companies in the given industry
face today, weighted by the company's size and location and by what the
named role would feel personally. Number each problem.`

// IndustryProblemsSpecialist identifies pain points for an industry.
type IndustryProblemsSpecialist struct {
	provider domain.LLMProvider
	logger   *slog.Logger
}

func NewIndustryProblemsSpecialist(provider domain.LLMProvider, logger *slog.Logger) *IndustryProblemsSpecialist {
	return &IndustryProblemsSpecialist{provider: provider, logger: logger}
}

// Process implements domain.Agent.
func (a *IndustryProblemsSpecialist) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if err := requireKeys(payload, domain.KeyCompanyIndustry); err != nil {
		return nil, err
	}
	industry := payload.String(domain.KeyCompanyIndustry)
	size := payload.StringOr(domain.KeyCompanySize, "Unknown")
	location := payload.StringOr(domain.KeyCompanyLocation, "Unknown")
	role := payload.StringOr(domain.KeyPersonRole, "Unknown")

	user := fmt.Sprintf("Industry: %s\nCompany size: %s\nLocation: %s\nContact role: %s",
		industry, size, location, role)
	fallback := fmt.Sprintf("Industry problems for %s: no provider configured, analysis unavailable.", industry)

	problems, err := askLLM(ctx, a.provider, industrySystemPrompt, user, fallback)
	if err != nil {
		return nil, fmt.Errorf("industry problems for %s: %w", industry, err)
	}

	a.logger.Info("industry problems research completed", "company_industry", industry)
	return problems, nil
}
