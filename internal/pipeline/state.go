package pipeline

// State is a step of an export run. A run moves forward through the states
// in declaration order and ends in Done or Failed.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateConnecting
	StateDropping
	StateCreating
	StateStreaming
	StateClosing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateDiscovering: "discovering",
	StateConnecting:  "connecting",
	StateDropping:    "dropping",
	StateCreating:    "creating",
	StateStreaming:   "streaming",
	StateClosing:     "closing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
