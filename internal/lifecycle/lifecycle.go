package lifecycle

import (
	"sync"

	"go.uber.org/atomic"
)

// Phase is a step of the server lifecycle. Phases only move forward:
// Starting, Running, ShuttingDown, Terminated.
type Phase int32

const (
	Starting Phase = iota
	Running
	ShuttingDown
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type Lifecycle struct {
	// held shared by WhileRunning, exclusively by Transition
	gate  sync.RWMutex
	phase atomic.Int32
}

// New returns a Lifecycle in the Starting phase.
func New() *Lifecycle {
	return &Lifecycle{}
}

func (l *Lifecycle) Phase() Phase {
	return Phase(l.phase.Load())
}

// Transition moves from one phase to the next. It fails if the current
// phase is not from or if to is not the phase right after from. It waits
// for every running WhileRunning call to return first, so once it has left
// Running no such call is still touching state.
func (l *Lifecycle) Transition(from, to Phase) bool {
	if to != from+1 {
		return false
	}
	l.gate.Lock()
	defer l.gate.Unlock()
	return l.phase.CAS(int32(from), int32(to))
}

// WhileRunning calls fn if the phase is Running and keeps it there until fn
// returns. It reports whether fn was called. fn must not call Transition.
func (l *Lifecycle) WhileRunning(fn func()) bool {
	l.gate.RLock()
	defer l.gate.RUnlock()
	if l.Phase() != Running {
		return false
	}
	fn()
	return true
}

// Accepting reports whether new writes and commits should be taken.
func (l *Lifecycle) Accepting() bool {
	return l.Phase() == Running
}
