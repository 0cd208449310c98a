package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans webhook events out to registered handlers
type Dispatcher interface {
	// Register adds a handler. Registering the same pointer handler twice
	// returns the original registration.
	Register(handler Handler) Registration

	// RegisterNamed registers a handler with a name for logging
	RegisterNamed(name string, handler Handler) Registration

	// Unregister removes a handler; unknown registrations are ignored
	Unregister(reg Registration)

	// Dispatch invokes every handler with evt and waits for all of them.
	// Handler failures are logged and reported, never returned as an error.
	Dispatch(ctx context.Context, evt *event.Event) (*Report, error)

	// DispatchAsync invokes handlers in the background without waiting.
	// It returns ErrClosed once Close has been called.
	DispatchAsync(ctx context.Context, evt *event.Event) error

	// List returns registered handlers in registration order
	List() []HandlerInfo

	// Close shuts down the dispatcher and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// eventDispatcher is the concrete implementation of Dispatcher
type eventDispatcher struct {
	mu         sync.RWMutex
	handlers   map[Registration]HandlerInfo
	identities map[any]Registration
	nextID     Registration
	logger     Logger
	concurrent bool

	// For async dispatch
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithConcurrentHandlers runs handlers of a single Dispatch in parallel.
// Dispatch still waits for every handler before returning.
func WithConcurrentHandlers(enabled bool) Option {
	return func(d *eventDispatcher) {
		d.concurrent = enabled
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers:   make(map[Registration]HandlerInfo),
		identities: make(map[any]Registration),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Register registers a handler with a name derived from its type
func (d *eventDispatcher) Register(handler Handler) Registration {
	return d.RegisterNamed(fmt.Sprintf("%T", handler), handler)
}

// RegisterNamed registers a handler with a specific name
func (d *eventDispatcher) RegisterNamed(name string, handler Handler) Registration {
	d.mu.Lock()
	defer d.mu.Unlock()

	key, comparable := identity(handler)
	if comparable {
		if reg, ok := d.identities[key]; ok {
			return reg
		}
	}

	d.nextID++
	reg := d.nextID
	d.handlers[reg] = HandlerInfo{
		Registration: reg,
		Name:         name,
		Handler:      handler,
	}
	if comparable {
		d.identities[key] = reg
	}

	if d.logger != nil {
		d.logger.Info("Handler registered",
			"handler_name", name,
			"registration", uint64(reg),
		)
	}

	return reg
}

// Unregister removes a handler by registration
func (d *eventDispatcher) Unregister(reg Registration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, ok := d.handlers[reg]
	if !ok {
		return
	}

	delete(d.handlers, reg)
	if key, comparable := identity(info.Handler); comparable {
		delete(d.identities, key)
	}

	if d.logger != nil {
		d.logger.Info("Handler unregistered",
			"handler_name", info.Name,
			"registration", uint64(reg),
		)
	}
}

// Dispatch sends event to all registered handlers and waits for them
func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) (*Report, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	handlers := d.snapshot()

	if d.logger != nil {
		d.logger.Info("Dispatching event",
			"delivery_id", evt.DeliveryID,
			"app_id", evt.AppID,
			"handler_count", len(handlers),
		)
	}

	report := &Report{DeliveryID: evt.DeliveryID, Invoked: len(handlers)}

	if !d.concurrent {
		for _, info := range handlers {
			if err := d.safeExecute(ctx, evt, info); err != nil {
				report.Failures = append(report.Failures, Failure{Name: info.Name, Err: err})
			}
		}
		return report, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, info := range handlers {
		wg.Add(1)
		go func(h HandlerInfo) {
			defer wg.Done()
			if err := d.safeExecute(ctx, evt, h); err != nil {
				mu.Lock()
				report.Failures = append(report.Failures, Failure{Name: h.Name, Err: err})
				mu.Unlock()
			}
		}(info)
	}
	wg.Wait()

	return report, nil
}

// DispatchAsync sends event to handlers asynchronously
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) error {
	// closed is checked and the wait group grown under the same lock Close takes
	d.mu.Lock()
	if d.closed.Load() {
		d.mu.Unlock()
		if d.logger != nil {
			d.logger.Error("Cannot dispatch async event, dispatcher is closed",
				"delivery_id", evt.DeliveryID,
			)
		}
		return ErrClosed
	}
	handlers := d.snapshotLocked()
	d.wg.Add(len(handlers))
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("Dispatching event asynchronously",
			"delivery_id", evt.DeliveryID,
			"handler_count", len(handlers),
		)
	}

	for _, info := range handlers {
		go func(h HandlerInfo) {
			defer d.wg.Done()
			_ = d.safeExecute(ctx, evt, h)
		}(info)
	}
	return nil
}

// List returns registered handlers in registration order
func (d *eventDispatcher) List() []HandlerInfo {
	handlers := d.snapshot()
	for i := range handlers {
		// Note: Handler is not copied to avoid exposing internal details
		handlers[i].Handler = nil
	}
	return handlers
}

// Close shuts down the dispatcher and waits for async handlers to complete
func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if !d.closed.CompareAndSwap(false, true) {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("Closing dispatcher, waiting for async handlers")
	}

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}

	return nil
}

// snapshot copies the registered handlers ordered by registration
func (d *eventDispatcher) snapshot() []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.snapshotLocked()
}

func (d *eventDispatcher) snapshotLocked() []HandlerInfo {
	result := make([]HandlerInfo, 0, len(d.handlers))
	for _, info := range d.handlers {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Registration < result[j].Registration
	})

	return result
}

// safeExecute runs a handler with panic recovery and logs any failure
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", event.ErrHandlerFailure, info.Name, r)
		}
		if err != nil && d.logger != nil {
			d.logger.Error("Handler error",
				"delivery_id", evt.DeliveryID,
				"handler_name", info.Name,
				"error", err,
			)
		}
	}()

	if herr := info.Handler.Handle(ctx, evt); herr != nil {
		return fmt.Errorf("%w: %s: %w", event.ErrHandlerFailure, info.Name, herr)
	}
	return nil
}

// identity returns a map key for pointer handlers.
// Value handlers may hold unhashable fields (a HandlerFunc inside a struct)
// and are never deduplicated.
func identity(h Handler) (any, bool) {
	if h == nil {
		return nil, false
	}
	if reflect.TypeOf(h).Kind() != reflect.Pointer {
		return nil, false
	}
	return h, true
}
