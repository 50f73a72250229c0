package engine

import (
	"github.com/leaf/leaf/backend-go/internal/canvas"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/geom"
)

// Offer proposes adopting ChildID into ContainerID. The center is where the
// confirmation affordance is drawn.
type Offer struct {
	ContainerID string  `json:"containerId"`
	ChildID     string  `json:"childId"`
	CenterX     float64 `json:"centerX"`
	CenterY     float64 `json:"centerY"`
}

type dragState struct {
	id string
	// collision is the last container that intersected on the latest scan.
	collision string
	// highlighted maps a container id to the fill it had before highlighting.
	highlighted map[string]string
}

// DragStart begins a canvas drag. It records the baseline position of the
// object and cancels any pending offer.
func (s *Session) DragStart(id string) error {
	return s.update(func() (bool, error) {
		obj, ok := s.object(id)
		if !ok {
			return false, ErrObjectNotFound
		}
		s.resetDragLocked()
		s.clearOfferLocked()
		s.drag = dragState{id: id, highlighted: make(map[string]string)}
		s.prev.Remember(id, obj.Left, obj.Top)
		return true, nil
	})
}

// DragMove moves the dragged object to (left, top) and rescans containers
// for collision. A linked container drags its subtree along.
func (s *Session) DragMove(id string, left, top float64) error {
	return s.update(func() (bool, error) {
		obj, ok := s.object(id)
		if !ok {
			return false, ErrObjectNotFound
		}
		if s.drag.id != id {
			s.resetDragLocked()
			s.clearOfferLocked()
			s.drag = dragState{id: id, highlighted: make(map[string]string)}
			s.prev.Remember(id, obj.Left, obj.Top)
		}

		base := s.prev[id]
		obj.Left, obj.Top = left, top
		if obj.IsLayout() && s.tree.Contains(id) {
			s.tree.MoveSubtree(id, left-base.left, top-base.top, s.prev)
		}
		s.prev.Remember(id, left, top)

		s.scanLocked(obj)
		return true, nil
	})
}

// scanLocked highlights every container the dragged object intersects and
// restores the rest. The last intersecting container in canvas order becomes
// the collision target.
func (s *Session) scanLocked(dragged *document.Object) {
	// TODO: prefer the topmost or nearest-center container over the last hit.
	s.drag.collision = ""
	for _, cand := range canvas.ObjectsOf(s.surface) {
		if !cand.IsLayout() || cand.ID == dragged.ID {
			continue
		}
		if s.tree.IsDescendant(dragged.ID, cand.ID) || !s.surface.Intersects(dragged, cand) {
			s.restoreLocked(cand)
			continue
		}
		if _, lit := s.drag.highlighted[cand.ID]; !lit {
			s.drag.highlighted[cand.ID] = cand.Style.Fill
			cand.Style.Fill = document.LayoutHighlight
		}
		s.drag.collision = cand.ID
	}
}

// DragEnd finishes the drag. If a container was hit and the object has no
// parent yet, an offer is published and the confirmation timer is armed.
// Highlights are restored either way.
func (s *Session) DragEnd() (*Offer, error) {
	var offer *Offer
	err := s.update(func() (bool, error) {
		if s.drag.id == "" {
			return false, nil
		}
		childID, containerID := s.drag.id, s.drag.collision
		s.resetDragLocked()

		if containerID == "" || s.tree.HasParent(childID) {
			return true, nil
		}
		container, ok := s.object(containerID)
		if !ok {
			return true, nil
		}

		cx, cy := geom.Bounds(container).Center()
		s.offer = &Offer{ContainerID: containerID, ChildID: childID, CenterX: cx, CenterY: cy}
		s.armTimerLocked()

		o := *s.offer
		offer = &o
		return true, nil
	})
	return offer, err
}

// Offer returns the pending containment offer, if any.
func (s *Session) Offer() *Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offer == nil {
		return nil
	}
	o := *s.offer
	return &o
}

// ConfirmOffer links the offered child under its container.
func (s *Session) ConfirmOffer() error {
	return s.update(func() (bool, error) {
		if s.offer == nil {
			return false, ErrNoOffer
		}
		offer := *s.offer
		s.clearOfferLocked()

		container, cok := s.object(offer.ContainerID)
		child, chok := s.object(offer.ChildID)
		if !cok || !chok {
			return true, ErrObjectNotFound
		}
		s.tree = s.tree.AddChild(container, child)
		return true, nil
	})
}

// DismissOffer drops the pending offer without linking.
func (s *Session) DismissOffer() {
	_ = s.update(func() (bool, error) {
		if s.offer == nil {
			return false, nil
		}
		s.clearOfferLocked()
		return true, nil
	})
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	s.timerGen++
	gen := s.timerGen
	s.timer = s.scheduler.AfterFunc(s.confirmTimeout, func() { s.expireOffer(gen) })
}

// expireOffer runs on the timer goroutine. A timer that was replaced or
// stopped after firing finds a newer generation and does nothing.
func (s *Session) expireOffer(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.offer == nil {
		s.mu.Unlock()
		return
	}
	s.offer = nil
	s.timer = nil
	s.revision++
	ev := Event{Type: EventOfferDismissed, Revision: s.revision}
	s.mu.Unlock()

	s.emit(ev)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) clearOfferLocked() {
	s.offer = nil
	s.stopTimerLocked()
}

func (s *Session) restoreLocked(obj *document.Object) {
	fill, lit := s.drag.highlighted[obj.ID]
	if !lit {
		return
	}
	obj.Style.Fill = fill
	delete(s.drag.highlighted, obj.ID)
}

func (s *Session) resetDragLocked() {
	for id := range s.drag.highlighted {
		if obj, ok := s.object(id); ok {
			s.restoreLocked(obj)
		}
	}
	s.drag = dragState{}
}
