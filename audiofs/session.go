package audiofs

import "fmt"

// sessionState tracks the lifecycle of the native session owned by a
// stream.
//
// closed -> open -> running <-> stopped, and any state -> disposed.
type sessionState int

const (
	stateClosed sessionState = iota
	stateOpen
	stateRunning
	stateStopped
	stateDisposed
)

func (s sessionState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	case stateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("sessionState(%d)", int(s))
	}
}

// hasSession returns true when native resources are held.
func (s sessionState) hasSession() bool {
	return s == stateOpen || s == stateRunning || s == stateStopped
}

// resources is the set of native resources acquired by a playback session.
// Teardown releases exactly the ones that were acquired.
type resources uint8

const (
	resDevice resources = 1 << iota
	resSource
)

func (r resources) has(res resources) bool {
	return r&res == res
}
