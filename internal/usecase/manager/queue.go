package manager

import (
	"container/heap"
	"sync"

	"leadscout/internal/domain"
)

type queueItem struct {
	req *domain.Request
	seq uint64
}

type requestHeap []*queueItem

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Priority != h[j].req.Priority {
		return h[i].req.Priority > h[j].req.Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(*queueItem)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a bounded priority queue of pending requests. Higher priority
// dequeues first; equal priorities dequeue in submission order.
type Queue struct {
	mu   sync.Mutex
	h    requestHeap
	seq  uint64
	size int
}

// NewQueue creates a queue that holds at most size requests.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{size: size}
	heap.Init(&q.h)
	return q
}

// Push enqueues a request, rejecting it when the queue is at capacity.
func (q *Queue) Push(req *domain.Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.h) >= q.size {
		return domain.NewSubSystemError("queue", "Queue.Push", domain.ErrQueueFull, req.ID)
	}
	q.push(req)
	return nil
}

// Requeue puts a request back at its original ordering position. Unlike
// Push it ignores the capacity bound: a request already admitted must not
// be dropped because the queue filled up while it was being dispatched.
func (q *Queue) Requeue(req *domain.Request, seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.h, &queueItem{req: req, seq: seq})
}

// Pop removes and returns the highest-priority request together with its
// sequence number. The second return is false when the queue is empty.
func (q *Queue) Pop() (*domain.Request, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.h) == 0 {
		return nil, 0, false
	}
	item := heap.Pop(&q.h).(*queueItem)
	return item.req, item.seq, true
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

func (q *Queue) push(req *domain.Request) {
	q.seq++
	heap.Push(&q.h, &queueItem{req: req, seq: q.seq})
}
