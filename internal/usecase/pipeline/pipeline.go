// Package pipeline orchestrates a full lead research run: the
// independent research steps fan out through the agent manager, their
// findings feed the dependent steps, and everything lands in one
// SalesReport.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leadscout/internal/domain"
	"leadscout/internal/infra/tracer"
	"leadscout/internal/usecase/manager"
)

// Pipeline runs lead research through the agent manager.
type Pipeline struct {
	mgr         *manager.Manager
	logger      *slog.Logger
	stepTimeout time.Duration
}

// New creates a pipeline. stepTimeout bounds the wait for each research
// step; zero uses the manager's configured result timeout.
func New(mgr *manager.Manager, logger *slog.Logger, stepTimeout time.Duration) *Pipeline {
	return &Pipeline{mgr: mgr, logger: logger, stepTimeout: stepTimeout}
}

// Research runs the full flow for one lead. Individual step failures are
// logged and leave their report section empty; only a failed email step,
// the actual deliverable, fails the run.
func (p *Pipeline) Research(ctx context.Context, lead domain.Lead) (*domain.SalesReport, error) {
	if lead.CompanyName == "" || lead.PersonName == "" {
		return nil, fmt.Errorf("%w: company_name and person_name are required", domain.ErrInvalidInput)
	}

	ctx, span := tracer.StartSpan(ctx, "pipeline.research",
		tracer.StringAttr("company_name", lead.CompanyName),
		tracer.StringAttr("person_name", lead.PersonName),
	)
	defer span.End()

	start := time.Now()
	report := &domain.SalesReport{Lead: lead}

	// Independent lookups fan out in parallel.
	var wg sync.WaitGroup
	run := func(dst *string, reqType string, priority domain.RequestPriority, payload domain.Payload) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = p.step(ctx, reqType, priority, payload)
		}()
	}

	if lead.WebsiteURL != "" {
		run(&report.WebsiteAnalysis, domain.TypeWebsiteResearch, domain.PriorityHigh, domain.Payload{
			domain.KeyCompanyName: lead.CompanyName,
			domain.KeyWebsiteURL:  lead.WebsiteURL,
		})
	}
	run(&report.LinkedInProfile, domain.TypeLinkedInResearch, domain.PriorityHigh, domain.Payload{
		domain.KeyPersonName:  lead.PersonName,
		domain.KeyCompanyName: lead.CompanyName,
		domain.KeyLinkedInURL: lead.LinkedInURL,
	})
	run(&report.WebIntelligence, domain.TypeWebIntelligence, domain.PriorityNormal, domain.Payload{
		domain.KeyCompanyName:     lead.CompanyName,
		domain.KeyCompanyIndustry: lead.CompanyIndustry,
		domain.KeyContactType:     lead.ContactType,
	})
	wg.Wait()

	// Dependent steps run in order.
	if lead.CompanyIndustry != "" {
		report.IndustryProblems = p.step(ctx, domain.TypeIndustryProblems, domain.PriorityNormal, domain.Payload{
			domain.KeyCompanyIndustry: lead.CompanyIndustry,
			domain.KeyCompanySize:     lead.CompanySize,
			domain.KeyCompanyLocation: lead.CompanyLocation,
			domain.KeyPersonRole:      lead.PersonRole,
		})
	}
	if report.IndustryProblems != "" {
		report.RecommendedSolutions = p.step(ctx, domain.TypeAISolutions, domain.PriorityNormal, domain.Payload{
			domain.KeyIndustryProblems: report.IndustryProblems,
			domain.KeyCompanyIndustry:  lead.CompanyIndustry,
			domain.KeyCompanySize:      lead.CompanySize,
		})
	}

	email, err := p.stepErr(ctx, domain.TypeEmailGeneration, domain.PriorityHigh, domain.Payload{
		domain.KeyPersonName:      lead.PersonName,
		domain.KeyCompanyName:     lead.CompanyName,
		domain.KeyResearchSummary: summarize(report),
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("email generation: %w", err)
	}
	report.OutreachEmail = email

	report.GeneratedAt = time.Now()
	report.Elapsed = time.Since(start)
	tracer.SetOK(span)
	p.logger.Info("lead research completed",
		"company_name", lead.CompanyName,
		"person_name", lead.PersonName,
		"elapsed", report.Elapsed)
	return report, nil
}

// step runs one research request, returning empty text on failure.
func (p *Pipeline) step(ctx context.Context, reqType string, priority domain.RequestPriority, payload domain.Payload) string {
	out, err := p.stepErr(ctx, reqType, priority, payload)
	if err != nil {
		p.logger.Warn("research step failed", "request_type", reqType, "error", err)
		return ""
	}
	return out
}

func (p *Pipeline) stepErr(ctx context.Context, reqType string, priority domain.RequestPriority, payload domain.Payload) (string, error) {
	id, err := p.mgr.SubmitRequest(ctx, reqType, payload, priority)
	if err != nil {
		return "", err
	}
	req, err := p.mgr.GetRequestResult(ctx, id, p.stepTimeout)
	if err != nil {
		return "", err
	}
	if req.Status == domain.RequestFailed {
		return "", fmt.Errorf("%s: %s", reqType, req.Error)
	}
	text, _ := req.Result.(string)
	return text, nil
}

// summarize flattens the gathered sections into the email agent's input.
func summarize(report *domain.SalesReport) string {
	var b strings.Builder
	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", title, body)
	}
	section("Website analysis", report.WebsiteAnalysis)
	section("Contact profile", report.LinkedInProfile)
	section("Web intelligence", report.WebIntelligence)
	section("Industry problems", report.IndustryProblems)
	section("Recommended solutions", report.RecommendedSolutions)
	return strings.TrimSpace(b.String())
}
