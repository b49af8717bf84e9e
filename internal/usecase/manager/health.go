package manager

import (
	"context"
	"log/slog"
	"time"

	"leadscout/internal/domain"
)

// HealthMonitor watches agent liveness. A busy agent whose heartbeat is
// older than the busy timeout is presumed stuck and forced into error
// status so its capacity is not counted as available.
type HealthMonitor struct {
	registry    *Registry
	bus         domain.EventBus
	logger      *slog.Logger
	busyTimeout time.Duration
}

func NewHealthMonitor(registry *Registry, bus domain.EventBus, logger *slog.Logger, busyTimeout time.Duration) *HealthMonitor {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Minute
	}
	return &HealthMonitor{
		registry:    registry,
		bus:         bus,
		logger:      logger,
		busyTimeout: busyTimeout,
	}
}

// Sweep runs one health pass over every registered agent. A failure on
// one agent never prevents the rest from being checked.
func (h *HealthMonitor) Sweep(ctx context.Context) {
	now := time.Now()
	for _, info := range h.registry.List() {
		h.checkAgent(ctx, info, now)
	}
}

func (h *HealthMonitor) checkAgent(ctx context.Context, info domain.AgentInfo, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("health check panic", "agent_id", info.ID, "panic", r)
		}
	}()

	if info.Status == domain.AgentBusy && now.Sub(info.LastHeartbeat) > h.busyTimeout {
		h.registry.ForceError(info.ID)
		h.logger.Warn("agent stuck busy, marking error",
			"agent_id", info.ID,
			"last_heartbeat", info.LastHeartbeat,
			"busy_timeout", h.busyTimeout)
		h.publishError(ctx, info.ID)
		info.Status = domain.AgentError
	}

	handle, err := h.registry.Handle(info.ID)
	if err != nil {
		return
	}
	hb, ok := handle.(domain.Heartbeater)
	if !ok {
		return
	}

	if err := hb.Heartbeat(ctx); err != nil {
		h.registry.SetStatus(info.ID, domain.AgentError)
		h.logger.Warn("agent heartbeat failed", "agent_id", info.ID, "error", err)
		h.publishError(ctx, info.ID)
		return
	}
	// A live ping refreshes the timestamp only; an agent in error status
	// stays there until explicitly restarted.
	h.registry.Touch(info.ID)
}

func (h *HealthMonitor) publishError(ctx context.Context, agentID string) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(ctx, domain.Event{
		Type:      domain.EventAgentError,
		Timestamp: time.Now(),
		AgentID:   agentID,
	})
}
