package manager

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"leadscout/internal/domain"
	"leadscout/internal/infra/config"
	"leadscout/internal/usecase/scheduling"
)

// SystemStatus is a point-in-time view of the whole manager.
type SystemStatus struct {
	Running            bool                        `json:"running"`
	Healthy            bool                        `json:"healthy"`
	TotalAgents        int                         `json:"total_agents"`
	ActiveAgents       int                         `json:"active_agents"`
	QueuedRequests     int                         `json:"queued_requests"`
	PendingRequests    int                         `json:"pending_requests"`
	ProcessingRequests int                         `json:"processing_requests"`
	CompletedRequests  int                         `json:"completed_requests"`
	Agents             map[string]domain.AgentInfo `json:"agents"`
}

// Manager is the facade over agent registration, request submission, and
// result retrieval. It owns the dispatcher goroutine, the worker pool,
// and the scheduled health and metrics tasks.
type Manager struct {
	cfg      config.ManagerConfig
	registry *Registry
	queue    *Queue
	store    *requestStore
	metrics  *MetricsStore
	selector *Selector
	health   *HealthMonitor
	bus      domain.EventBus
	logger   *slog.Logger

	idMu      sync.Mutex
	idEntropy *ulid.MonotonicEntropy

	mu         sync.Mutex
	running    bool
	pool       *Pool
	dispatcher *Dispatcher
	scheduler  *scheduling.Scheduler
	cancel     context.CancelFunc
	done       chan struct{}
}

// New builds a stopped manager from the configuration. The event bus is
// optional; pass nil to disable event publishing.
func New(cfg config.ManagerConfig, bus domain.EventBus, logger *slog.Logger) *Manager {
	registry := NewRegistry(logger)
	metrics := NewMetricsStore()
	m := &Manager{
		cfg:       cfg,
		registry:  registry,
		queue:     NewQueue(cfg.MaxQueueSize),
		store:     newRequestStore(),
		metrics:   metrics,
		selector:  NewSelector(registry, metrics),
		health:    NewHealthMonitor(registry, bus, logger, cfg.AgentBusyTimeout.Std()),
		bus:       bus,
		logger:    logger,
		idEntropy: ulid.Monotonic(rand.Reader, 0),
	}
	return m
}

// Start launches the dispatcher, the worker pool, and the scheduled
// health sweep. Starting a running manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.pool = NewPool(m.cfg.Workers)
	m.dispatcher = NewDispatcher(
		m.queue, m.registry, m.selector, m.store, m.metrics,
		m.pool, m.bus, m.logger, m.cfg.PollInterval.Std(),
	)

	m.scheduler = scheduling.NewScheduler(m.logger)
	m.scheduler.RegisterAction(scheduling.ActionHealthSweep, func(ctx context.Context) error {
		m.health.Sweep(ctx)
		return nil
	})
	m.scheduler.RegisterAction(scheduling.ActionMetricsReport, func(ctx context.Context) error {
		m.reportMetrics()
		return nil
	})
	healthInterval := m.cfg.HealthCheckInterval.Std()
	if healthInterval <= 0 {
		healthInterval = 30 * time.Second
	}
	if err := m.scheduler.AddTask(scheduling.ScheduledTask{
		Name:     "agent-health-sweep",
		Schedule: healthInterval.String(),
		Action:   scheduling.ActionHealthSweep,
	}); err != nil {
		cancel()
		m.pool.Stop()
		return domain.WrapOp("Manager.Start", err)
	}
	if interval := m.cfg.MetricsReportInterval.Std(); interval > 0 {
		if err := m.scheduler.AddTask(scheduling.ScheduledTask{
			Name:     "agent-metrics-report",
			Schedule: interval.String(),
			Action:   scheduling.ActionMetricsReport,
		}); err != nil {
			cancel()
			m.pool.Stop()
			return domain.WrapOp("Manager.Start", err)
		}
	}
	if err := m.scheduler.Start(runCtx); err != nil {
		cancel()
		m.pool.Stop()
		return domain.WrapOp("Manager.Start", err)
	}

	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		m.dispatcher.Run(runCtx)
	}()

	m.running = true
	m.logger.Info("agent manager started",
		"workers", m.cfg.Workers,
		"max_queue_size", m.cfg.MaxQueueSize,
		"health_check_interval", m.cfg.HealthCheckInterval.Std())
	return nil
}

// Stop halts the dispatcher, drains the worker pool, stops the
// scheduler, and takes every registered agent offline, running cleanup
// hooks best-effort. In-flight agent invocations run to completion.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.cancel()
	<-m.done
	m.pool.Stop()
	if err := m.scheduler.Stop(); err != nil {
		m.logger.Warn("scheduler stop", "error", err)
	}

	// The pool is drained, so no agent is busy anymore.
	ctx := context.Background()
	for _, info := range m.registry.List() {
		if info.Status == domain.AgentOffline {
			continue
		}
		if err := m.registry.Stop(ctx, info.ID); err != nil {
			m.logger.Warn("agent stop failed", "agent_id", info.ID, "error", err)
		}
	}

	m.running = false
	m.logger.Info("agent manager stopped")
	return nil
}

// RegisterAgent adds an agent to the registry. Registering an existing id
// replaces it and resets its metrics.
func (m *Manager) RegisterAgent(ctx context.Context, id string, handle domain.Agent, agentType string, capabilities []string, maxConcurrent int) error {
	if maxConcurrent <= 0 {
		maxConcurrent = m.cfg.DefaultMaxConcurrent
	}
	if err := m.registry.Register(id, handle, agentType, capabilities, maxConcurrent); err != nil {
		return err
	}
	m.metrics.Reset(id)
	m.publish(ctx, domain.EventAgentRegistered, "", id)
	return nil
}

// UnregisterAgent removes an agent. Fails while the agent is busy.
func (m *Manager) UnregisterAgent(ctx context.Context, id string) error {
	if err := m.registry.Unregister(id); err != nil {
		return err
	}
	m.metrics.Remove(id)
	m.publish(ctx, domain.EventAgentUnregistered, "", id)
	return nil
}

// StartAgent brings an agent online, running its initialize hook.
func (m *Manager) StartAgent(ctx context.Context, id string) error {
	if err := m.registry.Start(ctx, id); err != nil {
		return err
	}
	m.publish(ctx, domain.EventAgentStarted, "", id)
	return nil
}

// StopAgent takes an agent offline, running its cleanup hook.
func (m *Manager) StopAgent(ctx context.Context, id string) error {
	if err := m.registry.Stop(ctx, id); err != nil {
		return err
	}
	m.publish(ctx, domain.EventAgentStopped, "", id)
	return nil
}

// AgentInfo returns a snapshot of one agent's record.
func (m *Manager) AgentInfo(id string) (domain.AgentInfo, error) {
	return m.registry.Info(id)
}

// Agents returns snapshots of all registered agents.
func (m *Manager) Agents() []domain.AgentInfo {
	return m.registry.List()
}

// AgentMetrics returns the accumulated metrics for one agent, with the
// uptime derived from its last heartbeat.
func (m *Manager) AgentMetrics(id string) (domain.AgentMetrics, error) {
	met, ok := m.metrics.Snapshot(id)
	if !ok {
		return domain.AgentMetrics{}, domain.NewSubSystemError("manager", "Manager.AgentMetrics", domain.ErrNotFound, id)
	}
	if info, err := m.registry.Info(id); err == nil {
		if info.Status == domain.AgentIdle || info.Status == domain.AgentBusy {
			met.Uptime = time.Since(info.LastHeartbeat)
		}
	}
	return met, nil
}

// SubmitRequest validates and enqueues a request, returning its id.
func (m *Manager) SubmitRequest(ctx context.Context, reqType string, payload domain.Payload, priority domain.RequestPriority) (string, error) {
	if reqType == "" {
		return "", domain.NewSubSystemError("manager", "Manager.SubmitRequest", domain.ErrInvalidInput, "request type is empty")
	}
	if !priority.Valid() {
		return "", domain.NewSubSystemError("manager", "Manager.SubmitRequest", domain.ErrInvalidInput, "priority out of range")
	}

	req := &domain.Request{
		ID:          m.nextID(),
		Type:        reqType,
		Priority:    priority,
		Payload:     payload,
		SubmittedAt: time.Now(),
		Status:      domain.RequestPending,
	}

	m.store.AddPending(req)
	if err := m.queue.Push(req); err != nil {
		// A rejected submission leaves no trace: its id is never handed
		// to the caller, so a completed record would only leak.
		m.store.Remove(req.ID)
		return "", err
	}

	m.logger.Debug("request submitted",
		"request_id", req.ID,
		"request_type", reqType,
		"priority", priority.String())
	m.publish(ctx, domain.EventRequestSubmitted, req.ID, "")
	return req.ID, nil
}

// GetRequestResult polls for a request's terminal state, waiting up to
// timeout (the configured default when timeout is zero). It returns
// domain.ErrNotFound for unknown ids and domain.ErrTimeout when the
// request stays unfinished past the deadline.
func (m *Manager) GetRequestResult(ctx context.Context, id string, timeout time.Duration) (*domain.Request, error) {
	if timeout <= 0 {
		timeout = m.cfg.ResultTimeout.Std()
	}
	poll := m.cfg.PollInterval.Std()
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		req, done, found := m.store.Get(id)
		if !found {
			return nil, domain.NewSubSystemError("manager", "Manager.GetRequestResult", domain.ErrNotFound, id)
		}
		if done {
			return req, nil
		}
		if time.Now().After(deadline) {
			return nil, domain.NewSubSystemError("manager", "Manager.GetRequestResult", domain.ErrTimeout, id)
		}
		select {
		case <-ctx.Done():
			return nil, domain.WrapOp("Manager.GetRequestResult", ctx.Err())
		case <-time.After(poll):
		}
	}
}

// Status summarizes the whole system. Healthy means the manager runs and
// at least one agent is idle or busy.
func (m *Manager) Status() SystemStatus {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	infos := m.registry.List()
	agents := make(map[string]domain.AgentInfo, len(infos))
	active := 0
	for _, info := range infos {
		agents[info.ID] = info
		if info.Status == domain.AgentIdle || info.Status == domain.AgentBusy {
			active++
		}
	}
	pending, processing, completed := m.store.Counts()

	return SystemStatus{
		Running:            running,
		Healthy:            running && active > 0,
		TotalAgents:        len(infos),
		ActiveAgents:       active,
		QueuedRequests:     m.queue.Len(),
		PendingRequests:    pending,
		ProcessingRequests: processing,
		CompletedRequests:  completed,
		Agents:             agents,
	}
}

// Sweep runs one health pass immediately, outside the scheduled cycle.
func (m *Manager) Sweep(ctx context.Context) {
	m.health.Sweep(ctx)
}

func (m *Manager) nextID() string {
	m.idMu.Lock()
	defer m.idMu.Unlock()
	return ulid.MustNew(ulid.Now(), m.idEntropy).String()
}

func (m *Manager) reportMetrics() {
	for _, met := range m.metrics.All() {
		m.logger.Info("agent metrics",
			"agent_id", met.AgentID,
			"total_requests", met.TotalRequests,
			"successful_requests", met.SuccessfulRequests,
			"failed_requests", met.FailedRequests,
			"average_latency_seconds", met.AverageLatency,
			"error_rate", met.ErrorRate)
	}
}

func (m *Manager) publish(ctx context.Context, typ domain.EventType, requestID, agentID string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(ctx, domain.Event{
		Type:      typ,
		Timestamp: time.Now(),
		RequestID: requestID,
		AgentID:   agentID,
	})
}
