package research

import (
	"context"
	"log/slog"

	"leadscout/internal/domain"
	"leadscout/internal/usecase/manager"
)

// Well-known agent ids.
const (
	AgentWebsiteResearcher          = "website_researcher"
	AgentLinkedInAnalyzer           = "linkedin_analyzer"
	AgentIndustryProblemsSpecialist = "industry_problems_specialist"
	AgentSolutionsResearcher        = "solutions_researcher"
	AgentTavilyResearcher           = "tavily_researcher"
	AgentEmailGenerator             = "email_generator"
)

// RegisterAll registers the full specialist roster with the manager.
// The search-backed researcher is skipped when no search provider is
// given; the LLM agents run in fallback mode without a provider.
func RegisterAll(ctx context.Context, mgr *manager.Manager, provider domain.LLMProvider, searcher domain.SearchProvider, logger *slog.Logger) error {
	type registration struct {
		id           string
		agent        domain.Agent
		agentType    string
		capabilities []string
	}

	regs := []registration{
		{AgentWebsiteResearcher, NewWebsiteResearcher(provider, logger), "website_researcher", []string{domain.TypeWebsiteResearch}},
		{AgentLinkedInAnalyzer, NewLinkedInAnalyzer(provider, logger), "linkedin_analyzer", []string{domain.TypeLinkedInResearch}},
		{AgentIndustryProblemsSpecialist, NewIndustryProblemsSpecialist(provider, logger), "industry_problems_specialist", []string{domain.TypeIndustryProblems}},
		{AgentSolutionsResearcher, NewSolutionsResearcher(provider, logger), "solutions_researcher", []string{domain.TypeAISolutions}},
		{AgentEmailGenerator, NewEmailGenerator(provider, logger), "email_generator", []string{domain.TypeEmailGeneration}},
	}
	if searcher != nil {
		regs = append(regs, registration{
			AgentTavilyResearcher,
			NewIntelResearcher(searcher, logger),
			"tavily_researcher",
			[]string{domain.TypeWebIntelligence, domain.TypeMarketResearch},
		})
	}

	for _, r := range regs {
		if err := mgr.RegisterAgent(ctx, r.id, r.agent, r.agentType, r.capabilities, 0); err != nil {
			return err
		}
	}
	return nil
}
