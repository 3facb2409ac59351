package compose

import (
	"fmt"

	"reelsmith/types"
)

var legal = map[types.State][]types.State{
	types.StateIdle:           {types.StatePreparing},
	types.StatePreparing:      {types.StateSelectingClips},
	types.StateSelectingClips: {types.StatePlanning},
	types.StatePlanning:       {types.StateSynchronizing},
	types.StateSynchronizing:  {types.StatePlanning, types.StateLayingOutTitle},
	types.StateLayingOutTitle: {types.StateRendering},
	types.StateRendering:      {types.StateComplete},
}

// machine tracks the run state and rejects illegal transitions
type machine struct {
	current  types.State
	history  []types.State
	replans  int
	onChange func(types.State)
}

func newMachine(onChange func(types.State)) *machine {
	return &machine{current: types.StateIdle, onChange: onChange}
}

func (m *machine) to(next types.State) error {
	if next == types.StateFailed {
		if m.current.Terminal() {
			return fmt.Errorf("illegal transition %s -> %s", m.current, next)
		}
		m.set(next)
		return nil
	}

	allowed := false
	for _, s := range legal[m.current] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("illegal transition %s -> %s", m.current, next)
	}
	if m.current == types.StateSynchronizing && next == types.StatePlanning {
		if m.replans > 0 {
			return fmt.Errorf("planning may be re-entered only once")
		}
		m.replans++
	}
	m.set(next)
	return nil
}

func (m *machine) set(s types.State) {
	m.current = s
	m.history = append(m.history, s)
	if m.onChange != nil {
		m.onChange(s)
	}
}
