package domain

import (
	"context"
	"time"
)

// AgentStatus is the lifecycle state of a registered agent.
type AgentStatus string

const (
	AgentOffline      AgentStatus = "offline"
	AgentInitializing AgentStatus = "initializing"
	AgentIdle         AgentStatus = "idle"
	AgentBusy         AgentStatus = "busy"
	AgentError        AgentStatus = "error"
)

// Payload is the free-form key/value input handed to an agent.
type Payload map[string]any

// String returns the payload value for key when it is a string, and ""
// when the key is absent or holds another type.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// StringOr returns the string value for key, or fallback when absent.
func (p Payload) StringOr(key, fallback string) string {
	if s := p.String(key); s != "" {
		return s
	}
	return fallback
}

// Has reports whether key is present with a non-empty value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// Agent is the single mandatory capability every registered worker exposes:
// process a payload and return a result, or fail with an error.
type Agent interface {
	Process(ctx context.Context, payload Payload) (any, error)
}

// Optional agent capabilities. The manager queries these with type
// assertions at the relevant lifecycle points; an agent implements only
// the hooks it needs.
type (
	// Initializer is called when the agent is started.
	Initializer interface {
		Initialize(ctx context.Context) error
	}

	// Cleaner is called when the agent is stopped. Best effort.
	Cleaner interface {
		Cleanup(ctx context.Context) error
	}

	// Heartbeater is pinged by the health monitor for liveness.
	Heartbeater interface {
		Heartbeat(ctx context.Context) error
	}
)

// AgentInfo is a read-only snapshot of one registered agent's record.
type AgentInfo struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Status        AgentStatus   `json:"status"`
	Capabilities  []string      `json:"capabilities"`
	CurrentLoad   int           `json:"current_load"`
	MaxConcurrent int           `json:"max_concurrent"`
	LastHeartbeat time.Time     `json:"last_heartbeat"`
	HealthScore   float64       `json:"health_score"`
}

// HasCapability reports whether the agent declares the given capability tag.
func (a AgentInfo) HasCapability(tag string) bool {
	for _, c := range a.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}
