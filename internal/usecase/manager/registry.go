package manager

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"leadscout/internal/domain"
)

type agentEntry struct {
	handle domain.Agent
	info   domain.AgentInfo
}

// Registry holds registered agent handles and their live records. All
// mutations of agent status, load, and health go through the registry
// mutex: the dispatcher and the health monitor run on separate goroutines
// and this is the single ownership rule between them.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*agentEntry
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*agentEntry),
		logger: logger,
	}
}

// Register adds an agent or replaces an existing record under the same id.
// Re-registration is last-writer-wins: capabilities and limits are
// overwritten and status resets to idle.
func (r *Registry) Register(id string, handle domain.Agent, agentType string, capabilities []string, maxConcurrent int) error {
	if id == "" {
		return domain.NewSubSystemError("registry", "Registry.Register", domain.ErrInvalidInput, "agent id is empty")
	}
	if handle == nil {
		return domain.NewSubSystemError("registry", "Registry.Register", domain.ErrInvalidInput, "agent handle is nil")
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; exists {
		r.logger.Warn("agent already registered, overwriting", "agent_id", id)
	}

	entry := &agentEntry{
		handle: handle,
		info: domain.AgentInfo{
			ID:            id,
			Type:          agentType,
			Status:        domain.AgentIdle,
			Capabilities:  append([]string(nil), capabilities...),
			MaxConcurrent: maxConcurrent,
			LastHeartbeat: time.Now(),
			HealthScore:   100,
		},
	}
	r.agents[id] = entry

	r.logger.Info("agent registered",
		"agent_id", id,
		"agent_type", agentType,
		"capabilities", capabilities,
		"max_concurrent", maxConcurrent)
	return nil
}

// Unregister removes an agent. Fails while the agent has in-flight work.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.agents[id]
	if !ok {
		return domain.NewSubSystemError("registry", "Registry.Unregister", domain.ErrNotFound, id)
	}
	if entry.info.Status == domain.AgentBusy || entry.info.CurrentLoad > 0 {
		return domain.NewSubSystemError("registry", "Registry.Unregister", domain.ErrAgentBusy, id)
	}
	delete(r.agents, id)
	r.logger.Info("agent unregistered", "agent_id", id)
	return nil
}

// Start transitions an agent to idle, invoking its optional Initialize
// hook first. The agent reads as initializing while the hook runs; a
// failing hook leaves it in error status.
func (r *Registry) Start(ctx context.Context, id string) error {
	handle, err := r.preTransition("Registry.Start", id)
	if err != nil {
		return err
	}

	r.SetStatus(id, domain.AgentInitializing)
	if init, ok := handle.(domain.Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			r.SetStatus(id, domain.AgentError)
			r.logger.Error("agent initialize failed", "agent_id", id, "error", err)
			return domain.WrapOp("Registry.Start", err)
		}
	}

	r.mu.Lock()
	if entry, ok := r.agents[id]; ok {
		entry.info.Status = domain.AgentIdle
		entry.info.LastHeartbeat = time.Now()
	}
	r.mu.Unlock()

	r.logger.Info("agent started", "agent_id", id)
	return nil
}

// Stop transitions an agent to offline, invoking its optional Cleanup
// hook first. Hook failures are logged but do not block the transition.
func (r *Registry) Stop(ctx context.Context, id string) error {
	handle, err := r.preTransition("Registry.Stop", id)
	if err != nil {
		return err
	}

	if c, ok := handle.(domain.Cleaner); ok {
		if err := c.Cleanup(ctx); err != nil {
			r.logger.Warn("agent cleanup failed", "agent_id", id, "error", err)
		}
	}

	r.SetStatus(id, domain.AgentOffline)
	r.logger.Info("agent stopped", "agent_id", id)
	return nil
}

// preTransition validates a start/stop request and returns the handle.
func (r *Registry) preTransition(op, id string) (domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.agents[id]
	if !ok {
		return nil, domain.NewSubSystemError("registry", op, domain.ErrNotFound, id)
	}
	if entry.info.Status == domain.AgentBusy {
		return nil, domain.NewSubSystemError("registry", op, domain.ErrAgentBusy, id)
	}
	return entry.handle, nil
}

// Handle returns the agent's handle.
func (r *Registry) Handle(id string) (domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.agents[id]
	if !ok {
		return nil, domain.NewSubSystemError("registry", "Registry.Handle", domain.ErrNotFound, id)
	}
	return entry.handle, nil
}

// Info returns a snapshot of the agent's record.
func (r *Registry) Info(id string) (domain.AgentInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.agents[id]
	if !ok {
		return domain.AgentInfo{}, domain.NewSubSystemError("registry", "Registry.Info", domain.ErrNotFound, id)
	}
	return snapshotInfo(entry), nil
}

// List returns snapshots of every registered agent, sorted by id.
func (r *Registry) List() []domain.AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domain.AgentInfo, 0, len(r.agents))
	for _, entry := range r.agents {
		infos = append(infos, snapshotInfo(entry))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// SetStatus sets an agent's status unconditionally. No-op for unknown ids.
func (r *Registry) SetStatus(id string, status domain.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.agents[id]; ok {
		entry.info.Status = status
	}
}

// SetHealth records a new health score for the agent.
func (r *Registry) SetHealth(id string, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.agents[id]; ok {
		entry.info.HealthScore = score
	}
}

// Touch updates the agent's last-heartbeat timestamp.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.agents[id]; ok {
		entry.info.LastHeartbeat = time.Now()
	}
}

// Reserve claims one unit of the agent's capacity and marks it busy.
// The load bound is enforced here, under the registry mutex, so no
// interleaving of dispatch cycles can push load past the limit.
func (r *Registry) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.agents[id]
	if !ok {
		return domain.NewSubSystemError("registry", "Registry.Reserve", domain.ErrNotFound, id)
	}
	if entry.info.Status != domain.AgentIdle && entry.info.Status != domain.AgentBusy {
		return domain.NewSubSystemError("registry", "Registry.Reserve", domain.ErrAgentBusy, id)
	}
	if entry.info.CurrentLoad >= entry.info.MaxConcurrent {
		return domain.NewSubSystemError("registry", "Registry.Reserve", domain.ErrLimitReached, id)
	}
	entry.info.CurrentLoad++
	entry.info.Status = domain.AgentBusy
	return nil
}

// Release returns one unit of the agent's capacity. Load is clamped at
// zero, and only a busy agent transitions back to idle: an agent the
// health monitor forced to error stays there until restarted.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.agents[id]
	if !ok {
		return
	}
	if entry.info.CurrentLoad > 0 {
		entry.info.CurrentLoad--
	}
	if entry.info.Status == domain.AgentBusy && entry.info.CurrentLoad == 0 {
		entry.info.Status = domain.AgentIdle
	}
}

// ForceError marks an agent failed and zeroes its load. Used by the
// health monitor when a busy agent exceeds its heartbeat timeout.
func (r *Registry) ForceError(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.agents[id]; ok {
		entry.info.Status = domain.AgentError
		entry.info.CurrentLoad = 0
	}
}

func snapshotInfo(entry *agentEntry) domain.AgentInfo {
	info := entry.info
	info.Capabilities = append([]string(nil), entry.info.Capabilities...)
	return info
}
