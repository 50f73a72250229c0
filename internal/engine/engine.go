// Package engine owns an editing session: the canvas surface, the layout tree
// built over it, and the transient drag state that turns pointer gestures into
// tree edits.
package engine

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/leaf/leaf/backend-go/internal/canvas"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/gesture"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

const DefaultConfirmTimeout = 2 * time.Second

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidPosition = errors.New("invalid alignment position")
	ErrNoSurface       = errors.New("canvas surface not initialized")
	ErrNoOffer         = errors.New("no pending containment offer")
)

type EventType string

const (
	// EventChanged follows every state change made through a Session method.
	EventChanged EventType = "changed"
	// EventOfferDismissed is published when an offer times out.
	EventOfferDismissed EventType = "offer.dismissed"
)

type Event struct {
	Type     EventType
	Revision uint64
}

type Options struct {
	ConfirmTimeout time.Duration
	Scheduler      Scheduler
	// OnEvent is called after the session lock is released.
	OnEvent func(Event)
}

type point struct {
	left, top float64
}

// positionCache holds the last known position of dragged objects so each
// move tick can compute its delta.
type positionCache map[string]point

func (c positionCache) Remember(id string, left, top float64) {
	c[id] = point{left, top}
}

// Session is one editor's view of a canvas. All methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	surface    canvas.Surface
	tree       *tree.Tree
	prev       positionCache
	imageSizes map[string]document.Size
	revision   uint64

	drag     dragState
	offer    *Offer
	timer    Timer
	timerGen uint64

	layers   *gesture.Machine
	lastDrop DropResult

	scheduler      Scheduler
	confirmTimeout time.Duration
	onEvent        func(Event)
}

func NewSession(surface canvas.Surface, opts Options) *Session {
	s := &Session{
		surface:        surface,
		tree:           tree.New(),
		prev:           make(positionCache),
		imageSizes:     make(map[string]document.Size),
		scheduler:      opts.Scheduler,
		confirmTimeout: opts.ConfirmTimeout,
		onEvent:        opts.OnEvent,
	}
	if s.scheduler == nil {
		s.scheduler = RealScheduler()
	}
	if s.confirmTimeout <= 0 {
		s.confirmTimeout = DefaultConfirmTimeout
	}
	s.layers = gesture.NewMachine(s.reparentLocked)
	return s
}

// --- Queries ---

// Tree returns a detached snapshot of the current tree.
func (s *Session) Tree() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Snapshot()
}

// Objects returns copies of the canvas objects in z-order.
func (s *Session) Objects() []*document.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	objs := canvas.ObjectsOf(s.surface)
	out := make([]*document.Object, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Clone())
	}
	return out
}

// Forest returns the nested view for mode. The nodes carry copies of the
// objects, so they can be serialized after the lock is released.
func (s *Session) Forest(mode tree.Mode) []*tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Detach(tree.ComputeForest(canvas.ObjectsOf(s.surface), s.tree, mode))
}

func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Session) ImageSizes() map[string]document.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.imageSizes)
}

// Scene returns a detached copy of the session's canvas and tree.
func (s *Session) Scene(name, background string) *document.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs := canvas.ObjectsOf(s.surface)
	scene := &document.Scene{
		Name:       name,
		Background: background,
		Objects:    make([]*document.Object, 0, len(objs)),
		Links:      s.tree.Links(),
		ImageSizes: maps.Clone(s.imageSizes),
	}
	if s.surface != nil {
		scene.Width, scene.Height = s.surface.Width(), s.surface.Height()
	}
	for _, o := range objs {
		scene.Objects = append(scene.Objects, o.Clone())
	}
	return scene
}

// --- Object commands ---

// AddObject validates obj and places it on top of the canvas, unlinked.
func (s *Session) AddObject(obj *document.Object) error {
	if obj == nil {
		return errors.New("add object: nil object")
	}
	return s.update(func() (bool, error) {
		if s.surface == nil {
			return false, ErrNoSurface
		}
		if err := obj.Validate(); err != nil {
			return false, err
		}
		if err := s.surface.Add(obj); err != nil {
			return false, err
		}
		return true, nil
	})
}

// DeleteObject removes the object from the canvas and prunes its node from
// the tree. Descendants leave the tree with it and remain on the canvas as
// unlinked objects.
func (s *Session) DeleteObject(id string) error {
	return s.update(func() (bool, error) {
		if s.surface == nil || !s.surface.Remove(id) {
			return false, fmt.Errorf("delete %s: %w", id, ErrObjectNotFound)
		}
		s.tree = s.tree.Remove(id)
		delete(s.prev, id)
		delete(s.imageSizes, id)
		delete(s.drag.highlighted, id)
		if s.drag.id == id {
			s.resetDragLocked()
		}
		if s.drag.collision == id {
			s.drag.collision = ""
		}
		if s.offer != nil && (s.offer.ContainerID == id || s.offer.ChildID == id) {
			s.clearOfferLocked()
		}
		return true, nil
	})
}

// UpdateObject applies a property patch. Moving a linked container carries
// its descendants along, and scale changes are folded into width and height.
func (s *Session) UpdateObject(id string, patch *document.ObjectPatch) error {
	if patch == nil {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	return s.update(func() (bool, error) {
		obj, ok := s.object(id)
		if !ok {
			return false, fmt.Errorf("update %s: %w", id, ErrObjectNotFound)
		}

		before := obj.Clone()
		patch.Apply(obj)
		if err := obj.Validate(); err != nil {
			*obj = *before
			return false, err
		}

		if obj.IsLayout() && patch.MovesGeometry() {
			s.tree.MoveSubtree(id, obj.Left-before.Left, obj.Top-before.Top, s.prev)
		}
		if patch.ScaleX != nil || patch.ScaleY != nil {
			obj.NormalizeScale()
		}
		s.prev.Remember(id, obj.Left, obj.Top)
		return true, nil
	})
}

// SetImageSize records the rendered pixel size of an image object, used by
// export in place of the object's own width and height.
func (s *Session) SetImageSize(id string, size document.Size) error {
	if err := document.Validator().Struct(size); err != nil {
		return fmt.Errorf("invalid image size: %w", err)
	}
	return s.update(func() (bool, error) {
		obj, ok := s.object(id)
		if !ok {
			return false, fmt.Errorf("image size %s: %w", id, ErrObjectNotFound)
		}
		if obj.Kind != document.KindImage {
			return false, fmt.Errorf("image size %s: object is a %s", id, obj.Kind)
		}
		s.imageSizes[id] = size
		return true, nil
	})
}

// LoadScene replaces the session contents with a scene snapshot.
func (s *Session) LoadScene(scene *document.Scene) error {
	if err := scene.Validate(); err != nil {
		return err
	}
	return s.update(func() (bool, error) {
		if s.surface == nil {
			return false, ErrNoSurface
		}
		s.clearLocked()
		objs := make([]*document.Object, 0, len(scene.Objects))
		for _, o := range scene.Objects {
			c := o.Clone()
			if err := s.surface.Add(c); err != nil {
				return true, err
			}
			objs = append(objs, c)
		}
		s.tree = tree.FromLinks(objs, scene.Links)
		for id, size := range scene.ImageSizes {
			s.imageSizes[id] = size
		}
		return true, nil
	})
}

// ClearCanvas removes every object and resets the tree.
func (s *Session) ClearCanvas() {
	_ = s.update(func() (bool, error) {
		s.clearLocked()
		return true, nil
	})
}

// MoveUp raises the object one step in z-order. It reports false when the
// object is already on top or the surface has no ordering.
func (s *Session) MoveUp(id string) bool {
	return s.reorder(id, canvas.Orderer.MoveUp)
}

func (s *Session) MoveDown(id string) bool {
	return s.reorder(id, canvas.Orderer.MoveDown)
}

// Close cancels any pending confirmation timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

func (s *Session) reorder(id string, fn func(canvas.Orderer, string) bool) bool {
	moved := false
	_ = s.update(func() (bool, error) {
		o, ok := s.surface.(canvas.Orderer)
		if !ok {
			return false, nil
		}
		moved = fn(o, id)
		return moved, nil
	})
	return moved
}

// update runs fn under the session lock. When fn reports a change the
// revision is bumped and EventChanged is published after unlocking.
func (s *Session) update(fn func() (bool, error)) error {
	s.mu.Lock()
	changed, err := fn()
	var ev Event
	if changed {
		s.revision++
		ev = Event{Type: EventChanged, Revision: s.revision}
	}
	s.mu.Unlock()

	if changed {
		s.emit(ev)
	}
	return err
}

func (s *Session) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

func (s *Session) object(id string) (*document.Object, bool) {
	if s.surface == nil || id == "" {
		return nil, false
	}
	return s.surface.Object(id)
}

func (s *Session) canvasWidth() float64 {
	if s.surface == nil {
		return 0
	}
	return s.surface.Width()
}

func (s *Session) clearLocked() {
	switch c := s.surface.(type) {
	case nil:
	case canvas.Clearer:
		c.Clear()
	default:
		for _, o := range c.Objects() {
			c.Remove(o.ID)
		}
	}
	s.tree = tree.New()
	s.prev = make(positionCache)
	s.imageSizes = make(map[string]document.Size)
	s.resetDragLocked()
	s.clearOfferLocked()
	s.layers.Cancel()
}
