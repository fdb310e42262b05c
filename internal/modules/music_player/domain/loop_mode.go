package domain

// LoopMode represents the repeat policy applied when a track finishes.
type LoopMode int

const (
	LoopModeNone LoopMode = iota // Default: remove the head after it plays
	LoopModeOne                  // Replay the head indefinitely
	LoopModeAll                  // Move the head to the tail after it plays
)

// String returns a human-readable representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopModeOne:
		return "one"
	case LoopModeAll:
		return "all"
	default:
		return "none"
	}
}
