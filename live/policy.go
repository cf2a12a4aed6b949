package live

import (
	"log/slog"
)

// Action is an exception handler's verdict on a stream error.
type Action int

const (
	// ActionContinue keeps the stream alive after the error.
	ActionContinue Action = iota
	// ActionStop shuts the stream down gracefully.
	ActionStop
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ExceptionHandler decides whether the stream survives an error. It runs
// synchronously on the delivery goroutine, so it must be fast and must
// not call back into the client.
type ExceptionHandler func(err error) Action

// policyEvaluator applies the configured handler to stream errors.
// Without a handler every error is survivable; errors still reach the
// error observers and the pull queue either way.
type policyEvaluator struct {
	handler ExceptionHandler
	logger  *slog.Logger
}

// evaluate returns the handler's verdict. A panicking handler loses its
// vote: the panic is recovered, logged, and treated as ActionStop, since
// a handler broken enough to panic cannot be trusted to keep the stream
// alive.
func (p *policyEvaluator) evaluate(err error) (action Action) {
	if p.handler == nil {
		return ActionContinue
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("exception handler panicked, stopping stream",
				"panic", r,
				"stream_error", err)
			action = ActionStop
		}
	}()
	return p.handler(err)
}
