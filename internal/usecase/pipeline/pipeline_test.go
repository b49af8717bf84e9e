package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"leadscout/internal/domain"
	"leadscout/internal/infra/config"
	"leadscout/internal/usecase/manager"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAgent struct {
	fn func(domain.Payload) (any, error)
}

func (s *stubAgent) Process(_ context.Context, p domain.Payload) (any, error) {
	return s.fn(p)
}

func startManager(t *testing.T) *manager.Manager {
	t.Helper()
	cfg := config.ManagerConfig{
		HealthCheckInterval:  config.Duration(time.Hour),
		AgentBusyTimeout:     config.Duration(time.Hour),
		MaxQueueSize:         100,
		Workers:              4,
		ResultTimeout:        config.Duration(5 * time.Second),
		PollInterval:         config.Duration(5 * time.Millisecond),
		DefaultMaxConcurrent: 5,
	}
	m := manager.New(cfg, nil, testLogger())
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Stop() })
	return m
}

func register(t *testing.T, m *manager.Manager, id, capability string, fn func(domain.Payload) (any, error)) {
	t.Helper()
	if err := m.RegisterAgent(context.Background(), id, &stubAgent{fn: fn}, id, []string{capability}, 2); err != nil {
		t.Fatal(err)
	}
}

func registerRoster(t *testing.T, m *manager.Manager) {
	register(t, m, "website", domain.TypeWebsiteResearch, func(p domain.Payload) (any, error) {
		return "website:" + p.String(domain.KeyCompanyName), nil
	})
	register(t, m, "linkedin", domain.TypeLinkedInResearch, func(p domain.Payload) (any, error) {
		return "profile:" + p.String(domain.KeyPersonName), nil
	})
	register(t, m, "intel", domain.TypeWebIntelligence, func(p domain.Payload) (any, error) {
		return "intel:" + p.String(domain.KeyCompanyName), nil
	})
	register(t, m, "industry", domain.TypeIndustryProblems, func(p domain.Payload) (any, error) {
		return "problems:" + p.String(domain.KeyCompanyIndustry), nil
	})
	register(t, m, "solutions", domain.TypeAISolutions, func(p domain.Payload) (any, error) {
		return "solutions for " + p.String(domain.KeyIndustryProblems), nil
	})
	register(t, m, "email", domain.TypeEmailGeneration, func(p domain.Payload) (any, error) {
		return "email with [" + p.String(domain.KeyResearchSummary) + "]", nil
	})
}

func testLead() domain.Lead {
	return domain.Lead{
		CompanyName:     "Acme",
		PersonName:      "Dana",
		PersonRole:      "CTO",
		WebsiteURL:      "https://acme.test",
		CompanyIndustry: "Manufacturing",
	}
}

func TestResearchFullFlow(t *testing.T) {
	m := startManager(t)
	registerRoster(t, m)

	report, err := New(m, testLogger(), 2*time.Second).Research(context.Background(), testLead())
	if err != nil {
		t.Fatal(err)
	}

	if report.WebsiteAnalysis != "website:Acme" {
		t.Fatalf("website = %q", report.WebsiteAnalysis)
	}
	if report.LinkedInProfile != "profile:Dana" {
		t.Fatalf("linkedin = %q", report.LinkedInProfile)
	}
	if report.WebIntelligence != "intel:Acme" {
		t.Fatalf("intel = %q", report.WebIntelligence)
	}
	if report.IndustryProblems != "problems:Manufacturing" {
		t.Fatalf("problems = %q", report.IndustryProblems)
	}
	if report.RecommendedSolutions != "solutions for problems:Manufacturing" {
		t.Fatalf("solutions = %q", report.RecommendedSolutions)
	}

	// The email step receives every earlier finding.
	for _, want := range []string{"website:Acme", "profile:Dana", "intel:Acme", "problems:Manufacturing"} {
		if !strings.Contains(report.OutreachEmail, want) {
			t.Fatalf("email missing %q: %q", want, report.OutreachEmail)
		}
	}
	if report.GeneratedAt.IsZero() || report.Elapsed <= 0 {
		t.Fatalf("timing not set: %+v", report)
	}
}

func TestResearchValidatesLead(t *testing.T) {
	m := startManager(t)

	_, err := New(m, testLogger(), time.Second).Research(context.Background(), domain.Lead{CompanyName: "Acme"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestResearchSkipsOptionalSteps(t *testing.T) {
	m := startManager(t)
	registerRoster(t, m)

	lead := testLead()
	lead.WebsiteURL = ""
	lead.CompanyIndustry = ""

	report, err := New(m, testLogger(), 2*time.Second).Research(context.Background(), lead)
	if err != nil {
		t.Fatal(err)
	}
	if report.WebsiteAnalysis != "" {
		t.Fatalf("website should be skipped: %q", report.WebsiteAnalysis)
	}
	if report.IndustryProblems != "" || report.RecommendedSolutions != "" {
		t.Fatal("industry chain should be skipped without an industry")
	}
	if report.OutreachEmail == "" {
		t.Fatal("email is still required")
	}
}

func TestResearchToleratesStepFailure(t *testing.T) {
	m := startManager(t)
	registerRoster(t, m)

	// No web intelligence agent capability for this run: the request
	// fails but the report survives with an empty section.
	if err := m.UnregisterAgent(context.Background(), "intel"); err != nil {
		t.Fatal(err)
	}

	report, err := New(m, testLogger(), 2*time.Second).Research(context.Background(), testLead())
	if err != nil {
		t.Fatal(err)
	}
	if report.WebIntelligence != "" {
		t.Fatalf("intel should be empty: %q", report.WebIntelligence)
	}
	if report.OutreachEmail == "" {
		t.Fatal("email still expected")
	}
}

func TestResearchFailsWithoutEmailAgent(t *testing.T) {
	m := startManager(t)
	registerRoster(t, m)
	if err := m.UnregisterAgent(context.Background(), "email"); err != nil {
		t.Fatal(err)
	}

	_, err := New(m, testLogger(), 2*time.Second).Research(context.Background(), testLead())
	if err == nil {
		t.Fatal("missing email agent must fail the run")
	}
}
