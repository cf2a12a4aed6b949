package live

// State represents the current lifecycle state of a streaming client
type State int

const (
	// StateCreated indicates the client was built but has no subscriptions
	StateCreated State = iota
	// StateSubscribed indicates at least one subscription was registered
	StateSubscribed
	// StateStarted indicates the session is connecting, metadata not yet seen
	StateStarted
	// StateStreaming indicates metadata arrived and records are flowing
	StateStreaming
	// StateStopping indicates graceful shutdown is in progress
	StateStopping
	// StateStopped indicates the session ended cleanly
	StateStopped
	// StateDisposed indicates the client released its engine and is unusable
	StateDisposed
	// StateFaulted indicates the session ended with an unrecoverable error
	StateFaulted
)

// String returns a string representation of the client state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSubscribed:
		return "subscribed"
	case StateStarted:
		return "started"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateDisposed:
		return "disposed"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further lifecycle transitions can occur,
// except Stopped and Faulted which may still move to Disposed.
func (s State) Terminal() bool {
	switch s {
	case StateStopped, StateDisposed, StateFaulted:
		return true
	}
	return false
}

// running reports whether a session is live enough that Stop has work to do.
func (s State) running() bool {
	switch s {
	case StateStarted, StateStreaming, StateStopping:
		return true
	}
	return false
}
