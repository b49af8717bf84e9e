package manager

import (
	"sync"

	"leadscout/internal/domain"
)

// requestStore tracks every admitted request through its lifecycle. A
// request lives in exactly one of the three maps at any time, and all
// transitions happen under the single mutex, so a caller polling for a
// result can never observe a request that exists nowhere.
type requestStore struct {
	mu         sync.Mutex
	pending    map[string]*domain.Request
	processing map[string]*domain.Request
	completed  map[string]*domain.Request
}

func newRequestStore() *requestStore {
	return &requestStore{
		pending:    make(map[string]*domain.Request),
		processing: make(map[string]*domain.Request),
		completed:  make(map[string]*domain.Request),
	}
}

func (s *requestStore) AddPending(req *domain.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.Status = domain.RequestPending
	s.pending[req.ID] = req
}

// Remove discards a pending request that never made it onto the queue.
// No-op once the request left the pending stage.
func (s *requestStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// MarkProcessing moves a request from pending to processing and records
// its assigned agent.
func (s *requestStore) MarkProcessing(id, agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	req.Status = domain.RequestProcessing
	req.AssignedAgent = agentID
	s.processing[id] = req
}

// MarkPending moves a request from processing back to pending; used when
// a dispatch attempt is rolled back.
func (s *requestStore) MarkPending(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.processing[id]
	if !ok {
		return
	}
	delete(s.processing, id)
	req.Status = domain.RequestPending
	req.AssignedAgent = ""
	s.pending[id] = req
}

// Complete finalizes a request. Reqs that never reached processing (a
// dispatch-time rejection) are finalized straight out of pending.
func (s *requestStore) Complete(id string, status domain.RequestStatus, result any, errMsg string, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.processing[id]
	if ok {
		delete(s.processing, id)
	} else if req, ok = s.pending[id]; ok {
		delete(s.pending, id)
	} else {
		return
	}
	req.Status = status
	req.Result = result
	req.Error = errMsg
	req.Duration = seconds
	s.completed[id] = req
}

// Get returns the request and whether it has reached a terminal state.
func (s *requestStore) Get(id string) (*domain.Request, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req, ok := s.completed[id]; ok {
		return req, true, true
	}
	if req, ok := s.processing[id]; ok {
		return req, false, true
	}
	if req, ok := s.pending[id]; ok {
		return req, false, true
	}
	return nil, false, false
}

// Counts returns the number of requests in each lifecycle stage.
func (s *requestStore) Counts() (pending, processing, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), len(s.processing), len(s.completed)
}
