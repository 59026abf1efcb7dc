package installer

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrIllegalTransition is returned when an executor tries to skip or revisit a step
var ErrIllegalTransition = errors.New("illegal upgrade state transition")

// State is the progress of one upgrade attempt
type State int

const (
	StateIdle State = iota
	StateDownloading
	StateVerified
	StateSwapping
	StateRelaunching
	StateDone
	// StateAborted means the installation was not touched
	StateAborted
	// StateFatalFailed means the failure happened at or after the point of no return
	StateFatalFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDownloading:
		return "downloading"
	case StateVerified:
		return "verified"
	case StateSwapping:
		return "swapping"
	case StateRelaunching:
		return "relaunching"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	case StateFatalFailed:
		return "fatal-failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible from s
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted || s == StateFatalFailed
}

var transitions = map[State][]State{
	StateIdle:        {StateDownloading, StateAborted},
	StateDownloading: {StateVerified, StateAborted},
	StateVerified:    {StateSwapping, StateAborted},
	StateSwapping:    {StateRelaunching, StateFatalFailed},
	StateRelaunching: {StateDone, StateFatalFailed},
}

// CanTransition reports whether next may follow from
func CanTransition(from, next State) bool {
	for _, s := range transitions[from] {
		if s == next {
			return true
		}
	}
	return false
}

type machine struct {
	state State
}

func (m *machine) to(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
	}
	log.Debugf("upgrade state %s -> %s", m.state, next)
	m.state = next
	return nil
}

// fail moves to Aborted before the point of no return and to FatalFailed after it
func (m *machine) fail(cause error) (State, error) {
	next := StateAborted
	if m.state == StateSwapping || m.state == StateRelaunching {
		next = StateFatalFailed
	}
	if err := m.to(next); err != nil {
		return m.state, errors.Join(cause, err)
	}
	return m.state, cause
}
