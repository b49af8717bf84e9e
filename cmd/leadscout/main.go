package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscout/internal/adapter/llm"
	"leadscout/internal/adapter/research"
	"leadscout/internal/adapter/search"
	"leadscout/internal/domain"
	"leadscout/internal/infra/config"
	"leadscout/internal/infra/logger"
	"leadscout/internal/infra/tracer"
	"leadscout/internal/usecase/eventbus"
	"leadscout/internal/usecase/manager"
	"leadscout/internal/usecase/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "leadscout.yaml", "path to the configuration file")
		company     = flag.String("company", "", "company name to research (required)")
		person      = flag.String("person", "", "contact person name (required)")
		role        = flag.String("role", "", "contact person role")
		website     = flag.String("website", "", "company website URL")
		linkedin    = flag.String("linkedin", "", "contact LinkedIn URL")
		industry    = flag.String("industry", "", "company industry")
		size        = flag.String("size", "", "company size")
		location    = flag.String("location", "", "company location")
		contactType = flag.String("contact-type", "general", "contact type (general, technical)")
		timeout     = flag.Duration("timeout", 5*time.Minute, "overall research timeout")
		asJSON      = flag.Bool("json", false, "print the report as JSON")
	)
	flag.Parse()

	if *company == "" || *person == "" {
		flag.Usage()
		return fmt.Errorf("both -company and -person are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}()

	bus := eventbus.New(log)
	defer bus.Close()
	bus.Subscribe(domain.EventAgentError, func(_ context.Context, e domain.Event) {
		log.Warn("agent entered error state", "agent_id", e.AgentID)
	})
	bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		log.Debug("event",
			"type", string(e.Type),
			"request_id", e.RequestID,
			"agent_id", e.AgentID)
	})

	mgr := manager.New(cfg.Manager, bus, log)
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start manager: %w", err)
	}
	defer func() {
		if err := mgr.Stop(); err != nil {
			log.Warn("manager stop", "error", err)
		}
	}()

	var provider domain.LLMProvider
	if cfg.LLM.Provider.APIKey != "" {
		provider = llm.NewCircuitBreakerProvider(
			llm.NewOpenAIProvider(cfg.LLM.Provider, log),
			cfg.LLM.CircuitBreaker,
			log,
		)
	} else {
		log.Warn("no LLM api key configured, research agents run in fallback mode")
	}

	var searcher domain.SearchProvider
	if cfg.Search.APIKey != "" {
		searcher = search.NewTavilyClient(cfg.Search, log)
	} else {
		log.Warn("no search api key configured, web intelligence disabled")
	}

	if err := research.RegisterAll(ctx, mgr, provider, searcher, log); err != nil {
		return fmt.Errorf("register agents: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	lead := domain.Lead{
		CompanyName:     *company,
		PersonName:      *person,
		PersonRole:      *role,
		WebsiteURL:      *website,
		LinkedInURL:     *linkedin,
		CompanyIndustry: *industry,
		CompanySize:     *size,
		CompanyLocation: *location,
		ContactType:     *contactType,
	}

	report, err := pipeline.New(mgr, log, 0).Research(runCtx, lead)
	if err != nil {
		return fmt.Errorf("research: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(report *domain.SalesReport) {
	fmt.Printf("Lead research: %s (%s)\n", report.Lead.CompanyName, report.Lead.PersonName)
	fmt.Printf("Generated %s in %s\n\n", report.GeneratedAt.Format(time.RFC3339), report.Elapsed.Round(time.Millisecond))

	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Printf("=== %s ===\n%s\n\n", title, body)
	}
	section("Website analysis", report.WebsiteAnalysis)
	section("Contact profile", report.LinkedInProfile)
	section("Web intelligence", report.WebIntelligence)
	section("Industry problems", report.IndustryProblems)
	section("Recommended solutions", report.RecommendedSolutions)
	section("Outreach email", report.OutreachEmail)
}
