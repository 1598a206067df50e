package goOnboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/internal/flows"
)

// auditDispatcher turns wizard outcomes into AuditEvents and hands them to the
// sink from one goroutine, in the order they were recorded.
type auditDispatcher struct {
	sink       AuditSink
	now        func() time.Time
	dropIfFull bool

	// mu guards queue against sends after Close.
	mu      sync.RWMutex
	queue   chan AuditEvent
	closed  bool
	stopped chan struct{}
	dropped atomic.Uint64
}

// newAuditDispatcher returns nil when audit is disabled; a nil dispatcher
// accepts and ignores every call.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink, now func() time.Time) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if now == nil {
		now = time.Now
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		now:        now,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, size),
		stopped:    make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *auditDispatcher) deliver() {
	defer close(d.stopped)
	for ev := range d.queue {
		d.sink.Emit(context.Background(), ev)
	}
}

// Record stamps an outcome in scope with the dispatcher clock, the request ID
// and client IP carried by ctx, and the stable code for err, then queues it.
func (d *auditDispatcher) Record(ctx context.Context, scope, event, userID string, err error) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.enqueue(ctx, d.stamp(ctx, scope, event, userID, err))
}

func (d *auditDispatcher) stamp(ctx context.Context, scope, event, userID string, err error) AuditEvent {
	ev := AuditEvent{
		Timestamp: d.now(),
		EventType: event,
		Scope:     scope,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = auditErrorCode(err)
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		ev.Metadata = map[string]string{"client_ip": ip}
	}
	return ev
}

// enqueue drops and counts the event on a full queue when dropIfFull is set.
// Otherwise it waits for room or for ctx to end.
func (d *auditDispatcher) enqueue(ctx context.Context, ev AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- ev:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and returns once every queued event reached
// the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// auditErrorCode maps an error to a stable code. Server messages are not
// recorded since they may echo user input.
func auditErrorCode(err error) string {
	var (
		ferr *flows.FieldError
		serr *flows.ServerError
		cerr *camera.Error
	)
	switch {
	case errors.As(err, &ferr):
		return "invalid_" + ferr.Field
	case errors.As(err, &serr):
		return "rejected_" + serr.Op
	case errors.As(err, &cerr):
		return "camera_" + cerr.Reason.String()
	case errors.Is(err, ErrRequestFailed):
		return "request_failed"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrSessionInvalid):
		return "session_invalid"
	default:
		return "error"
	}
}
