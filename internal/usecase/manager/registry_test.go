package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"leadscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAgent is a configurable test double for domain.Agent.
type fakeAgent struct {
	process func(ctx context.Context, payload domain.Payload) (any, error)
}

func (f *fakeAgent) Process(ctx context.Context, payload domain.Payload) (any, error) {
	if f.process == nil {
		return "ok", nil
	}
	return f.process(ctx, payload)
}

// hookedAgent adds lifecycle and liveness hooks to fakeAgent.
type hookedAgent struct {
	fakeAgent
	initErr      error
	cleanupErr   error
	heartbeatErr error
	initCalls    int
	cleanupCalls int
}

func (h *hookedAgent) Initialize(context.Context) error {
	h.initCalls++
	return h.initErr
}

func (h *hookedAgent) Cleanup(context.Context) error {
	h.cleanupCalls++
	return h.cleanupErr
}

func (h *hookedAgent) Heartbeat(context.Context) error {
	return h.heartbeatErr
}

func TestRegistryRegisterAndInfo(t *testing.T) {
	r := NewRegistry(testLogger())

	err := r.Register("a1", &fakeAgent{}, "researcher", []string{domain.TypeWebsiteResearch}, 3)
	if err != nil {
		t.Fatal(err)
	}

	info, err := r.Info("a1")
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != domain.AgentIdle {
		t.Fatalf("status = %s, want idle", info.Status)
	}
	if info.MaxConcurrent != 3 {
		t.Fatalf("max concurrent = %d, want 3", info.MaxConcurrent)
	}
	if info.HealthScore != 100 {
		t.Fatalf("health = %v, want 100", info.HealthScore)
	}
	if !info.HasCapability(domain.TypeWebsiteResearch) {
		t.Fatal("missing capability")
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("", &fakeAgent{}, "t", nil, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty id: got %v", err)
	}
	if err := r.Register("a1", nil, "t", nil, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("nil handle: got %v", err)
	}
}

func TestRegistryReRegisterOverwrites(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("a1", &fakeAgent{}, "old", []string{"x"}, 1); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("a1", &fakeAgent{}, "new", []string{"y"}, 7); err != nil {
		t.Fatal(err)
	}

	info, err := r.Info("a1")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != "new" || info.MaxConcurrent != 7 {
		t.Fatalf("record not replaced: %+v", info)
	}
	if info.HasCapability("x") {
		t.Fatal("old capability survived re-registration")
	}
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
}

func TestRegistryUnregisterBusyFails(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("a1", &fakeAgent{}, "t", nil, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve("a1"); err != nil {
		t.Fatal(err)
	}

	if err := r.Unregister("a1"); !errors.Is(err, domain.ErrAgentBusy) {
		t.Fatalf("want ErrAgentBusy, got %v", err)
	}

	r.Release("a1")
	if err := r.Unregister("a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Info("a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after unregister, got %v", err)
	}
}

func TestRegistryReserveEnforcesLimit(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("a1", &fakeAgent{}, "t", nil, 2); err != nil {
		t.Fatal(err)
	}

	if err := r.Reserve("a1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve("a1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve("a1"); !errors.Is(err, domain.ErrLimitReached) {
		t.Fatalf("want ErrLimitReached, got %v", err)
	}

	info, _ := r.Info("a1")
	if info.CurrentLoad != 2 {
		t.Fatalf("load = %d, want 2", info.CurrentLoad)
	}
	if info.Status != domain.AgentBusy {
		t.Fatalf("status = %s, want busy", info.Status)
	}
}

func TestRegistryReserveConcurrent(t *testing.T) {
	r := NewRegistry(testLogger())

	const limit = 5
	if err := r.Register("a1", &fakeAgent{}, "t", nil, limit); err != nil {
		t.Fatal(err)
	}

	results := make(chan error, 50)
	for i := 0; i < 50; i++ {
		go func() { results <- r.Reserve("a1") }()
	}

	granted := 0
	for i := 0; i < 50; i++ {
		if err := <-results; err == nil {
			granted++
		}
	}
	if granted != limit {
		t.Fatalf("granted %d reservations, want %d", granted, limit)
	}
}

func TestRegistryReleaseClampsAndIdles(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("a1", &fakeAgent{}, "t", nil, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve("a1"); err != nil {
		t.Fatal(err)
	}

	r.Release("a1")
	r.Release("a1") // extra release must not go negative

	info, _ := r.Info("a1")
	if info.CurrentLoad != 0 {
		t.Fatalf("load = %d, want 0", info.CurrentLoad)
	}
	if info.Status != domain.AgentIdle {
		t.Fatalf("status = %s, want idle", info.Status)
	}
}

func TestRegistryReleaseDoesNotResurrectError(t *testing.T) {
	r := NewRegistry(testLogger())

	if err := r.Register("a1", &fakeAgent{}, "t", nil, 2); err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve("a1"); err != nil {
		t.Fatal(err)
	}

	r.ForceError("a1")
	r.Release("a1")

	info, _ := r.Info("a1")
	if info.Status != domain.AgentError {
		t.Fatalf("status = %s, want error after ForceError", info.Status)
	}
	if info.CurrentLoad != 0 {
		t.Fatalf("load = %d, want 0", info.CurrentLoad)
	}
}

func TestRegistryStartRunsInitialize(t *testing.T) {
	r := NewRegistry(testLogger())
	agent := &hookedAgent{}

	if err := r.Register("a1", agent, "t", nil, 1); err != nil {
		t.Fatal(err)
	}
	r.SetStatus("a1", domain.AgentOffline)

	if err := r.Start(context.Background(), "a1"); err != nil {
		t.Fatal(err)
	}
	if agent.initCalls != 1 {
		t.Fatalf("init calls = %d, want 1", agent.initCalls)
	}
	info, _ := r.Info("a1")
	if info.Status != domain.AgentIdle {
		t.Fatalf("status = %s, want idle", info.Status)
	}
}

func TestRegistryStartInitializeFailure(t *testing.T) {
	r := NewRegistry(testLogger())
	agent := &hookedAgent{initErr: fmt.Errorf("boom")}

	if err := r.Register("a1", agent, "t", nil, 1); err != nil {
		t.Fatal(err)
	}

	if err := r.Start(context.Background(), "a1"); err == nil {
		t.Fatal("want error from failing initialize")
	}
	info, _ := r.Info("a1")
	if info.Status != domain.AgentError {
		t.Fatalf("status = %s, want error", info.Status)
	}
}

func TestRegistryStopRunsCleanup(t *testing.T) {
	r := NewRegistry(testLogger())
	agent := &hookedAgent{cleanupErr: fmt.Errorf("cleanup failed")}

	if err := r.Register("a1", agent, "t", nil, 1); err != nil {
		t.Fatal(err)
	}

	// Cleanup failure is best effort; the agent still goes offline.
	if err := r.Stop(context.Background(), "a1"); err != nil {
		t.Fatal(err)
	}
	if agent.cleanupCalls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", agent.cleanupCalls)
	}
	info, _ := r.Info("a1")
	if info.Status != domain.AgentOffline {
		t.Fatalf("status = %s, want offline", info.Status)
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(testLogger())
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(id, &fakeAgent{}, "t", nil, 1); err != nil {
			t.Fatal(err)
		}
	}

	list := r.List()
	want := []string{"alpha", "bravo", "charlie"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("list[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
}

// initFuncAgent runs an arbitrary function as its Initialize hook.
type initFuncAgent struct {
	fakeAgent
	init func(context.Context) error
}

func (a *initFuncAgent) Initialize(ctx context.Context) error { return a.init(ctx) }

func TestRegistryStartShowsInitializing(t *testing.T) {
	r := NewRegistry(testLogger())

	var during domain.AgentStatus
	agent := &initFuncAgent{}
	agent.init = func(context.Context) error {
		info, err := r.Info("a1")
		if err != nil {
			return err
		}
		during = info.Status
		return nil
	}

	if err := r.Register("a1", agent, "t", nil, 1); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background(), "a1"); err != nil {
		t.Fatal(err)
	}

	if during != domain.AgentInitializing {
		t.Fatalf("status during initialize = %s, want initializing", during)
	}
	info, err := r.Info("a1")
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != domain.AgentIdle {
		t.Fatalf("status after start = %s, want idle", info.Status)
	}
}
