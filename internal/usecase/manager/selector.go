package manager

import (
	"errors"

	"leadscout/internal/domain"
)

// errAgentsSaturated reports that agents capable of the request exist but
// none has free capacity right now. The dispatcher requeues on it instead
// of failing the request.
var errAgentsSaturated = errors.New("all capable agents saturated")

// Selector picks the best agent for a request by scoring every idle
// candidate on health, spare capacity, and past performance.
type Selector struct {
	registry *Registry
	metrics  *MetricsStore
}

func NewSelector(registry *Registry, metrics *MetricsStore) *Selector {
	return &Selector{registry: registry, metrics: metrics}
}

// Select returns the id of the highest-scoring agent that can take the
// request. It returns domain.ErrNoAgentAvailable when no registered agent
// is capable of this request at all, and errAgentsSaturated when capable
// agents exist but none is idle with spare capacity.
func (s *Selector) Select(req *domain.Request) (string, error) {
	var (
		bestID    string
		bestScore float64
		capable   bool
		found     bool
	)

	for _, info := range s.registry.List() {
		if !info.HasCapability(req.Type) {
			continue
		}
		if !payloadFits(req.Type, req.Payload) {
			continue
		}
		capable = true

		if info.Status != domain.AgentIdle {
			continue
		}
		if info.CurrentLoad >= info.MaxConcurrent {
			continue
		}

		score := s.score(info)
		if !found || score > bestScore {
			bestID = info.ID
			bestScore = score
			found = true
		}
	}

	if found {
		return bestID, nil
	}
	if capable {
		return "", errAgentsSaturated
	}
	return "", domain.ErrNoAgentAvailable
}

// score weighs health most heavily, then spare capacity, then the success
// rate and average latency normalized against a one-minute budget.
func (s *Selector) score(info domain.AgentInfo) float64 {
	loadFactor := 1.0 - float64(info.CurrentLoad)/float64(info.MaxConcurrent)

	var successRate, avgSecs float64
	if m, ok := s.metrics.Snapshot(info.ID); ok {
		successRate = m.SuccessRate()
		avgSecs = m.AverageLatency
	}
	responseScore := 1.0 - avgSecs/60.0
	if responseScore < 0 {
		responseScore = 0
	}

	return info.HealthScore*0.4 +
		loadFactor*100*0.3 +
		successRate*100*0.2 +
		responseScore*100*0.1
}

// payloadFits checks the per-type payload requirements a request must
// satisfy before it can be routed.
func payloadFits(reqType string, payload domain.Payload) bool {
	switch reqType {
	case domain.TypeWebsiteResearch:
		return payload.Has(domain.KeyWebsiteURL)
	case domain.TypeLinkedInResearch:
		return payload.Has(domain.KeyLinkedInURL) || payload.Has(domain.KeyPersonName)
	case domain.TypeIndustryProblems:
		return payload.Has(domain.KeyCompanyIndustry)
	case domain.TypeAISolutions:
		return payload.Has(domain.KeyIndustryProblems)
	}
	return true
}
