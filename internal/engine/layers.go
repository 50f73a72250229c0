package engine

import (
	"github.com/leaf/leaf/backend-go/internal/gesture"
)

// Drop rejection reasons.
const (
	ReasonNoTarget      = "no drop target"
	ReasonUnknownObject = "unknown object"
	ReasonNotContainer  = "target is not a layout container"
	ReasonCycle         = "target is inside the dragged subtree"
)

// DropResult reports the outcome of a layer panel drop. Rejections are
// expected outcomes, not errors.
type DropResult struct {
	Dragged  string `json:"dragged"`
	Target   string `json:"target"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Session) LayerDragStart(id string) { s.layerStep(func() { s.layers.Begin(id) }) }

func (s *Session) LayerDragOver(id string) { s.layerStep(func() { s.layers.Hover(id) }) }

func (s *Session) LayerDragLeave(id string) { s.layerStep(func() { s.layers.Leave(id) }) }

func (s *Session) LayerCancel() { s.layerStep(s.layers.Cancel) }

func (s *Session) LayerState() gesture.State { return s.layers.State() }

// LayerDrop ends the layer panel gesture. The dragged node and its subtree
// move under the hovered container; unlinked nodes are adopted.
func (s *Session) LayerDrop() DropResult {
	var res DropResult
	_ = s.update(func() (bool, error) {
		s.lastDrop = DropResult{
			Dragged: s.layers.Dragged(),
			Target:  s.layers.Target(),
			Reason:  ReasonNoTarget,
		}
		pending := s.layers.State() != gesture.Idle
		_, accepted := s.layers.Drop()
		res = s.lastDrop
		return accepted || pending, nil
	})
	return res
}

// layerStep applies a gesture transition and bumps the revision only when the
// dragged or hovered node actually changed.
func (s *Session) layerStep(step func()) {
	_ = s.update(func() (bool, error) {
		dragged, target := s.layers.Dragged(), s.layers.Target()
		step()
		return s.layers.Dragged() != dragged || s.layers.Target() != target, nil
	})
}

// reparentLocked is the gesture commit. It runs inside LayerDrop with the
// session lock held.
func (s *Session) reparentLocked(draggedID, targetID string) bool {
	child, cok := s.object(draggedID)
	container, tok := s.object(targetID)
	switch {
	case !cok || !tok:
		s.lastDrop.Reason = ReasonUnknownObject
		return false
	case !container.IsLayout():
		s.lastDrop.Reason = ReasonNotContainer
		return false
	case s.tree.IsDescendant(draggedID, targetID):
		s.lastDrop.Reason = ReasonCycle
		return false
	}

	s.tree = s.tree.AddChild(container, child)
	s.lastDrop.Accepted = true
	s.lastDrop.Reason = ""
	return true
}
