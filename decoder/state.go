package decoder

import (
	"fmt"
)

type State int

const (
	// StateDrained is the initial state: nothing is pending inside the codec.
	StateDrained = State(iota)
	// StateDrainable means inputs were submitted since the last drain.
	StateDrainable
	// StateDraining means an end-of-stream marker is on its way through
	// the codec.
	StateDraining
	// StateShutdown is terminal.
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateDrained:
		return "DRAINED"
	case StateDrainable:
		return "DRAINABLE"
	case StateDraining:
		return "DRAINING"
	case StateShutdown:
		return "SHUTDOWN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
