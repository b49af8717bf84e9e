package domain

import "time"

// AgentMetrics is a point-in-time snapshot of one agent's rolling
// performance counters. Counters update exactly once per completed
// invocation, so TotalRequests == SuccessfulRequests + FailedRequests
// always holds.
type AgentMetrics struct {
	AgentID            string        `json:"agent_id"`
	TotalRequests      int64         `json:"total_requests"`
	SuccessfulRequests int64         `json:"successful_requests"`
	FailedRequests     int64         `json:"failed_requests"`
	AverageLatency     float64       `json:"average_latency_seconds"`
	ErrorRate          float64       `json:"error_rate"`
	LastRequestAt      time.Time     `json:"last_request_at,omitzero"`
	Uptime             time.Duration `json:"uptime"`
}

// SuccessRate returns successful/total with a floor of one request,
// matching the selection score's success term.
func (m AgentMetrics) SuccessRate() float64 {
	total := m.TotalRequests
	if total < 1 {
		total = 1
	}
	return float64(m.SuccessfulRequests) / float64(total)
}
