// Package gesture implements the drag-and-drop state machine behind the
// layer panel. It knows nothing about trees: a drop hands the dragged and
// hovered ids to a Commit function supplied by the caller.
package gesture

import "sync"

type State int

const (
	Idle State = iota
	Dragging
	Hovering
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	default:
		return "idle"
	}
}

// Commit applies a drop. It reports whether the drop was accepted.
type Commit func(dragged, target string) bool

type Machine struct {
	mu      sync.Mutex
	commit  Commit
	dragged string
	target  string
}

func NewMachine(commit Commit) *Machine {
	return &Machine{commit: commit}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) Dragged() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dragged
}

func (m *Machine) Target() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Begin starts a drag of id, replacing any drag in progress.
func (m *Machine) Begin(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dragged = id
	m.target = ""
}

// Hover records id as the drop target. Hovering the dragged node itself
// clears the target, and hovers outside a drag are ignored.
func (m *Machine) Hover(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dragged == "" {
		return
	}
	if id == m.dragged {
		m.target = ""
		return
	}
	m.target = id
}

// Leave clears the target if the pointer left that node.
func (m *Machine) Leave(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.target == id {
		m.target = ""
	}
}

// Drop commits the gesture when both a dragged node and a target are set and
// always returns to Idle. The commit runs without the machine lock held.
func (m *Machine) Drop() (attempted, accepted bool) {
	m.mu.Lock()
	dragged, target := m.dragged, m.target
	m.dragged, m.target = "", ""
	m.mu.Unlock()

	if dragged == "" || target == "" || m.commit == nil {
		return false, false
	}
	return true, m.commit(dragged, target)
}

func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dragged, m.target = "", ""
}

func (m *Machine) stateLocked() State {
	switch {
	case m.dragged == "":
		return Idle
	case m.target == "":
		return Dragging
	default:
		return Hovering
	}
}
