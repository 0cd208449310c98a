package dispatcher

import (
	"context"

	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// Handler processes webhook events. Implementations must not modify the event.
type Handler interface {
	Handle(ctx context.Context, evt *event.Event) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, evt *event.Event) error

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, evt *event.Event) error {
	return f(ctx, evt)
}

// Registration identifies a registered handler
type Registration uint64

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Registration Registration
	Name         string
	Handler      Handler
}

// Failure records a handler that failed during dispatch
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a single dispatch
type Report struct {
	DeliveryID string
	Invoked    int
	Failures   []Failure
}

// Failed reports whether any handler failed
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}
