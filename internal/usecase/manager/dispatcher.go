package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadscout/internal/domain"
	"leadscout/internal/infra/tracer"
)

// Dispatcher drains the request queue, routes each request to the best
// agent, and runs the agent invocation on the worker pool. One dispatcher
// goroutine owns the queue; concurrency comes from the pool.
type Dispatcher struct {
	queue    *Queue
	registry *Registry
	selector *Selector
	store    *requestStore
	metrics  *MetricsStore
	pool     *Pool
	bus      domain.EventBus
	logger   *slog.Logger

	pollInterval time.Duration
}

func NewDispatcher(
	queue *Queue,
	registry *Registry,
	selector *Selector,
	store *requestStore,
	metrics *MetricsStore,
	pool *Pool,
	bus domain.EventBus,
	logger *slog.Logger,
	pollInterval time.Duration,
) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &Dispatcher{
		queue:        queue,
		registry:     registry,
		selector:     selector,
		store:        store,
		metrics:      metrics,
		pool:         pool,
		bus:          bus,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Run processes the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started", "poll_interval", d.pollInterval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped")
			return
		default:
		}

		if !d.cycle(ctx) {
			select {
			case <-ctx.Done():
				d.logger.Info("dispatcher stopped")
				return
			case <-time.After(d.pollInterval):
			}
		}
	}
}

// cycle handles one request off the queue. It returns false when the
// loop should back off: the queue is empty, or every capable agent is
// saturated and the request went back on the queue.
func (d *Dispatcher) cycle(ctx context.Context) bool {
	req, seq, ok := d.queue.Pop()
	if !ok {
		return false
	}

	agentID, err := d.selector.Select(req)
	if err != nil {
		if errors.Is(err, errAgentsSaturated) {
			// Head-of-line blocking: a lower-priority request whose own
			// agent is free waits out the backoff behind this one.
			d.queue.Requeue(req, seq)
			return false
		}
		d.fail(ctx, req, err.Error())
		return true
	}

	if err := d.registry.Reserve(agentID); err != nil {
		// Lost the slot between scoring and reserving; try again later.
		d.queue.Requeue(req, seq)
		return false
	}

	d.store.MarkProcessing(req.ID, agentID)

	// Shutdown cancels the dispatch loop but lets in-flight invocations
	// finish; the pool drain on Stop is the backstop.
	taskCtx := context.WithoutCancel(ctx)
	if err := d.pool.Submit(ctx, func() { d.process(taskCtx, req, agentID) }); err != nil {
		d.registry.Release(agentID)
		d.store.MarkPending(req.ID)
		d.queue.Requeue(req, seq)
		return false
	}
	return true
}

// process runs one agent invocation. Agent panics are contained here and
// surface as a failed request rather than a crashed worker.
func (d *Dispatcher) process(ctx context.Context, req *domain.Request, agentID string) {
	ctx, span := tracer.StartSpan(ctx, "dispatcher.process",
		tracer.StringAttr("request_id", req.ID),
		tracer.StringAttr("request_type", req.Type),
		tracer.StringAttr("agent_id", agentID),
	)
	defer span.End()
	defer d.registry.Release(agentID)

	handle, err := d.registry.Handle(agentID)
	if err != nil {
		d.fail(ctx, req, err.Error())
		return
	}

	start := time.Now()
	result, err := d.invoke(ctx, handle, req)
	elapsed := time.Since(start)

	d.registry.Touch(agentID)

	if err != nil {
		score := d.metrics.Record(agentID, false, elapsed)
		d.registry.SetHealth(agentID, score)
		tracer.RecordError(span, err)
		d.logger.Error("request failed",
			"request_id", req.ID,
			"agent_id", agentID,
			"duration", elapsed,
			"error", err)
		d.store.Complete(req.ID, domain.RequestFailed, nil, err.Error(), elapsed.Seconds())
		d.publish(ctx, domain.EventRequestFailed, req.ID, agentID)
		return
	}

	score := d.metrics.Record(agentID, true, elapsed)
	d.registry.SetHealth(agentID, score)
	tracer.SetOK(span)
	d.logger.Info("request completed",
		"request_id", req.ID,
		"agent_id", agentID,
		"duration", elapsed)
	d.store.Complete(req.ID, domain.RequestCompleted, result, "", elapsed.Seconds())
	d.publish(ctx, domain.EventRequestCompleted, req.ID, agentID)
}

// invoke calls the agent, converting a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, handle domain.Agent, req *domain.Request) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()
	return handle.Process(ctx, req.Payload)
}

func (d *Dispatcher) fail(ctx context.Context, req *domain.Request, msg string) {
	d.logger.Warn("request rejected", "request_id", req.ID, "request_type", req.Type, "error", msg)
	d.store.Complete(req.ID, domain.RequestFailed, nil, msg, 0)
	d.publish(ctx, domain.EventRequestFailed, req.ID, "")
}

func (d *Dispatcher) publish(ctx context.Context, typ domain.EventType, requestID, agentID string) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(ctx, domain.Event{
		Type:      typ,
		Timestamp: time.Now(),
		RequestID: requestID,
		AgentID:   agentID,
	})
}
