package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"leadscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedProvider returns a fixed reply and records the last request.
type scriptedProvider struct {
	reply string
	err   error
	last  domain.ChatRequest
}

func (s *scriptedProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChatResponse{Content: s.reply, Model: "test"}, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

// scriptedSearcher returns a fixed search response.
type scriptedSearcher struct {
	resp *domain.SearchResponse
	err  error
	last string
}

func (s *scriptedSearcher) Search(_ context.Context, query string, _ int) (*domain.SearchResponse, error) {
	s.last = query
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestWebsiteResearcher(t *testing.T) {
	p := &scriptedProvider{reply: "Acme sells anvils."}
	a := NewWebsiteResearcher(p, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyCompanyName: "Acme",
		domain.KeyWebsiteURL:  "https://acme.test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Acme sells anvils." {
		t.Fatalf("out = %v", out)
	}
	if !strings.Contains(p.last.Messages[1].Content, "https://acme.test") {
		t.Fatalf("prompt missing url: %q", p.last.Messages[1].Content)
	}
}

func TestWebsiteResearcherMissingKeys(t *testing.T) {
	a := NewWebsiteResearcher(nil, testLogger())

	_, err := a.Process(context.Background(), domain.Payload{
		domain.KeyCompanyName: "Acme",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), domain.KeyWebsiteURL) {
		t.Fatalf("error should name the missing key: %v", err)
	}
}

func TestWebsiteResearcherOfflineFallback(t *testing.T) {
	a := NewWebsiteResearcher(nil, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyCompanyName: "Acme",
		domain.KeyWebsiteURL:  "https://acme.test",
	})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := out.(string)
	if !ok || !strings.Contains(text, "Acme") {
		t.Fatalf("fallback = %v", out)
	}
}

func TestLinkedInAnalyzer(t *testing.T) {
	p := &scriptedProvider{reply: "Dana leads engineering."}
	a := NewLinkedInAnalyzer(p, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyPersonName:  "Dana",
		domain.KeyCompanyName: "Acme",
		domain.KeyLinkedInURL: "https://linkedin.test/in/dana",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Dana leads engineering." {
		t.Fatalf("out = %v", out)
	}
	if !strings.Contains(p.last.Messages[1].Content, "linkedin.test") {
		t.Fatal("prompt missing linkedin url")
	}

	if _, err := a.Process(context.Background(), domain.Payload{
		domain.KeyPersonName: "Dana",
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing company_name: got %v", err)
	}
}

func TestIndustryProblemsSpecialist(t *testing.T) {
	p := &scriptedProvider{reply: "1. Margin pressure."}
	a := NewIndustryProblemsSpecialist(p, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyCompanyIndustry: "Manufacturing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "1. Margin pressure." {
		t.Fatalf("out = %v", out)
	}
	// Optional fields default to Unknown in the prompt.
	if !strings.Contains(p.last.Messages[1].Content, "Unknown") {
		t.Fatalf("prompt = %q", p.last.Messages[1].Content)
	}

	if _, err := a.Process(context.Background(), domain.Payload{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing industry: got %v", err)
	}
}

func TestSolutionsResearcher(t *testing.T) {
	p := &scriptedProvider{reply: "1. Predictive maintenance."}
	a := NewSolutionsResearcher(p, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyIndustryProblems: "1. Downtime.",
		domain.KeyCompanyIndustry:  "Manufacturing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "1. Predictive maintenance." {
		t.Fatalf("out = %v", out)
	}
	if !strings.Contains(p.last.Messages[1].Content, "1. Downtime.") {
		t.Fatal("prompt missing problem list")
	}

	if _, err := a.Process(context.Background(), domain.Payload{
		domain.KeyIndustryProblems: "1. Downtime.",
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing industry: got %v", err)
	}
}

func TestEmailGenerator(t *testing.T) {
	p := &scriptedProvider{reply: "Hi Dana, ..."}
	a := NewEmailGenerator(p, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyPersonName:      "Dana",
		domain.KeyCompanyName:     "Acme",
		domain.KeyResearchSummary: "Acme sells anvils.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hi Dana, ..." {
		t.Fatalf("out = %v", out)
	}
	if !strings.Contains(p.last.Messages[1].Content, "Acme sells anvils.") {
		t.Fatal("prompt missing research summary")
	}
}

func TestEmailGeneratorProviderError(t *testing.T) {
	p := &scriptedProvider{err: fmt.Errorf("provider down")}
	a := NewEmailGenerator(p, testLogger())

	_, err := a.Process(context.Background(), domain.Payload{
		domain.KeyPersonName:  "Dana",
		domain.KeyCompanyName: "Acme",
	})
	if err == nil || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("err = %v", err)
	}
}

func TestIntelResearcher(t *testing.T) {
	s := &scriptedSearcher{resp: &domain.SearchResponse{
		Query:  "Acme",
		Answer: "Acme raised a round.",
		Results: []domain.SearchResult{
			{Title: "Funding", URL: "https://news.test", Content: "Series B"},
		},
	}}
	a := NewIntelResearcher(s, testLogger())

	out, err := a.Process(context.Background(), domain.Payload{
		domain.KeyCompanyName: "Acme",
		domain.KeyContactType: "technical",
	})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := out.(string)
	if !ok {
		t.Fatalf("out = %T", out)
	}
	if !strings.Contains(text, "Acme raised a round.") || !strings.Contains(text, "https://news.test") {
		t.Fatalf("summary = %q", text)
	}
	if !strings.Contains(s.last, "technology stack") {
		t.Fatalf("technical contact should widen the query: %q", s.last)
	}
}

func TestIntelResearcherHooks(t *testing.T) {
	withBackend := NewIntelResearcher(&scriptedSearcher{resp: &domain.SearchResponse{}}, testLogger())
	if err := withBackend.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := withBackend.Heartbeat(context.Background()); err != nil {
		t.Fatal(err)
	}

	without := NewIntelResearcher(nil, testLogger())
	if err := without.Initialize(context.Background()); err == nil {
		t.Fatal("initialize should fail without a search backend")
	}
	if err := without.Heartbeat(context.Background()); err == nil {
		t.Fatal("heartbeat should fail without a search backend")
	}
}
