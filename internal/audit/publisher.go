// Package audit captures the operational security trail: who changed roles,
// who asked for an anonymous identity, who completed the reveal.
package audit

import (
	"context"
	"time"

	"redressal/pkg/requestcontext"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks

// Store persists audit events. Append-only; nothing edits or removes an
// event after the fact.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher hands events to a buffered inbox consumed by the Worker. Emit
// never blocks the request path: when the inbox is full the event is dropped
// and the caller logs the drop.
type Publisher struct {
	inbox chan<- Event
}

func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

// Emit enqueues an event, stamping timestamp and request ID from context
// when absent. Returns false if the inbox was full and the event dropped.
func (p *Publisher) Emit(ctx context.Context, event Event) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
		return true
	default:
		return false
	}
}

// Worker consumes audit events from the inbox and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run drains the inbox until the context is cancelled. A store failure does
// not stop the worker; the event is retried once and then given up on.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				time.Sleep(100 * time.Millisecond)
				_ = w.store.Append(ctx, event)
			}
		}
	}
}
