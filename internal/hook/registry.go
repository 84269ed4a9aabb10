package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds one Dispatch call.
const DefaultTimeout = 30 * time.Second

// Registry maps events to the handlers run for them.
type Registry struct {
	handlers map[EventType][]Handler
	timeout  time.Duration
}

// NewRegistry returns an empty Registry using DefaultTimeout.
func NewRegistry() *Registry {
	return NewRegistryWithTimeout(DefaultTimeout)
}

// NewRegistryWithTimeout returns an empty Registry with a custom timeout.
func NewRegistryWithTimeout(timeout time.Duration) *Registry {
	return &Registry{handlers: make(map[EventType][]Handler), timeout: timeout}
}

// Register appends h to the handlers of event.
func (r *Registry) Register(event EventType, h Handler) {
	r.handlers[event] = append(r.handlers[event], h)
	slog.Debug("handler registered", "event", string(event), "handler", h.Name())
}

// Handlers returns the handlers registered for event.
func (r *Registry) Handlers(event EventType) []Handler {
	return r.handlers[event]
}

// Dispatch runs every handler registered for event, in order. A failing
// handler is logged and does not stop the ones after it; the failures are
// returned joined. Only a timeout ends the run early.
func (r *Registry) Dispatch(ctx context.Context, event EventType, in *Input) error {
	handlers := r.handlers[event]
	if len(handlers) == 0 {
		slog.Debug("no handlers registered for event", "event", string(event))
		return nil
	}
	if in.HookEventName == "" {
		in.HookEventName = event
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var errs []error
	for i, h := range handlers {
		slog.Debug("dispatching handler", "event", string(event), "handler", h.Name(), "index", i)
		err := h.Handle(ctx, in)
		if ctx.Err() != nil {
			slog.Error("hook execution timed out", "event", string(event), "handler", h.Name(), "timeout", r.timeout.String())
			return errors.Join(append(errs, fmt.Errorf("%s: %w", h.Name(), ctx.Err()))...)
		}
		if err != nil {
			slog.Error("handler returned error", "event", string(event), "handler", h.Name(), "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}
