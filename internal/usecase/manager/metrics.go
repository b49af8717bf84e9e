package manager

import (
	"sort"
	"sync"
	"time"

	"leadscout/internal/domain"
)

type agentStats struct {
	total     int64
	succeeded int64
	failed    int64
	avgSecs   float64
	lastAt    time.Time
}

// MetricsStore accumulates per-agent request counters and derives health
// scores from the rolling error rate.
type MetricsStore struct {
	mu    sync.Mutex
	stats map[string]*agentStats
}

func NewMetricsStore() *MetricsStore {
	return &MetricsStore{stats: make(map[string]*agentStats)}
}

// Reset clears the counters for an agent. Called on (re-)registration.
func (m *MetricsStore) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[id] = &agentStats{}
}

// Remove drops the agent's counters.
func (m *MetricsStore) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stats, id)
}

// Record folds one completed request into the agent's counters and
// returns the agent's new health score. Failures contribute a latency of
// zero to the running mean.
func (m *MetricsStore) Record(id string, success bool, latency time.Duration) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.stats[id]
	if !ok {
		st = &agentStats{}
		m.stats[id] = st
	}

	secs := latency.Seconds()
	if !success {
		secs = 0
	}
	st.avgSecs = (st.avgSecs*float64(st.total) + secs) / float64(st.total+1)
	st.total++
	if success {
		st.succeeded++
	} else {
		st.failed++
	}
	st.lastAt = time.Now()

	return healthScore(st)
}

// Snapshot returns the agent's metrics. Uptime is filled by the caller.
func (m *MetricsStore) Snapshot(id string) (domain.AgentMetrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.stats[id]
	if !ok {
		return domain.AgentMetrics{}, false
	}
	return toMetrics(id, st), true
}

// All returns metrics for every tracked agent, sorted by agent id.
func (m *MetricsStore) All() []domain.AgentMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AgentMetrics, 0, len(m.stats))
	for id, st := range m.stats {
		out = append(out, toMetrics(id, st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// healthScore maps the error rate onto a 0..100 score.
func healthScore(st *agentStats) float64 {
	if st.total == 0 {
		return 100
	}
	rate := float64(st.failed) / float64(st.total)
	score := 100 - rate*100
	if score < 0 {
		score = 0
	}
	return score
}

func toMetrics(id string, st *agentStats) domain.AgentMetrics {
	var errRate float64
	if st.total > 0 {
		errRate = float64(st.failed) / float64(st.total)
	}
	return domain.AgentMetrics{
		AgentID:            id,
		TotalRequests:      st.total,
		SuccessfulRequests: st.succeeded,
		FailedRequests:     st.failed,
		AverageLatency:     st.avgSecs,
		ErrorRate:          errRate,
		LastRequestAt:      st.lastAt,
	}
}
