// Package hook implements the handlers Claude Code runs on lifecycle events.
//
// The runtime writes a JSON payload to the hook's stdin (see Input). Handlers
// are registered per event on a Registry and dispatched in order. Hook work is
// best effort: a failing handler is logged and never blocks the session, so
// the hook commands always exit 0.
package hook
