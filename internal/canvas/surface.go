// Package canvas mirrors the drawing surface the editor works against. The
// browser canvas owns rendering; this side keeps the object list, its z-order
// and the intersection rules the layout core needs.
package canvas

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/geom"
	"github.com/leaf/leaf/backend-go/internal/typeid"
)

var ErrDuplicateID = errors.New("object id already on canvas")

// Surface is the set of operations the layout core needs from a canvas.
type Surface interface {
	// Objects returns the objects in z-order, bottom first.
	Objects() []*document.Object
	Object(id string) (*document.Object, bool)
	Add(obj *document.Object) error
	Remove(id string) bool
	Intersects(a, b *document.Object) bool
	Width() float64
	Height() float64
}

// ObjectsOf returns the surface objects, or nil for a surface that is not yet
// initialized.
func ObjectsOf(s Surface) []*document.Object {
	if s == nil {
		return nil
	}
	return s.Objects()
}

// Memory is an in-process Surface. The objects are shared by pointer with the
// layout tree, so geometry changes are visible to both.
type Memory struct {
	mu      sync.RWMutex
	width   float64
	height  float64
	objects []*document.Object
	byID    map[string]*document.Object
}

func NewMemory(width, height float64) *Memory {
	return &Memory{
		width:  width,
		height: height,
		byID:   make(map[string]*document.Object),
	}
}

func (m *Memory) Width() float64  { return m.width }
func (m *Memory) Height() float64 { return m.height }

func (m *Memory) Objects() []*document.Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.objects)
}

func (m *Memory) Object(id string) (*document.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.byID[id]
	return obj, ok
}

// Add places obj on top of the stack, assigning an id if it has none.
func (m *Memory) Add(obj *document.Object) error {
	if obj == nil {
		return errors.New("nil object")
	}
	if obj.ID == "" {
		obj.ID = typeid.NewObjectID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[obj.ID]; exists {
		return fmt.Errorf("add %s: %w", obj.ID, ErrDuplicateID)
	}
	m.objects = append(m.objects, obj)
	m.byID[obj.ID] = obj
	return nil
}

func (m *Memory) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return false
	}
	delete(m.byID, id)
	m.objects = slices.DeleteFunc(m.objects, func(o *document.Object) bool {
		return o.ID == id
	})
	return true
}

func (m *Memory) Intersects(a, b *document.Object) bool {
	return geom.Intersects(a, b)
}

// Clear removes every object.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = nil
	m.byID = make(map[string]*document.Object)
}

// MoveUp swaps the object with the one above it. It reports false when the
// object is unknown or already on top.
func (m *Memory) MoveUp(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 || i == len(m.objects)-1 {
		return false
	}
	m.objects[i], m.objects[i+1] = m.objects[i+1], m.objects[i]
	return true
}

// MoveDown swaps the object with the one below it.
func (m *Memory) MoveDown(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i <= 0 {
		return false
	}
	m.objects[i], m.objects[i-1] = m.objects[i-1], m.objects[i]
	return true
}

func (m *Memory) indexLocked(id string) int {
	return slices.IndexFunc(m.objects, func(o *document.Object) bool {
		return o.ID == id
	})
}

// Orderer is implemented by surfaces that support z-order changes.
type Orderer interface {
	MoveUp(id string) bool
	MoveDown(id string) bool
}

// Clearer is implemented by surfaces that can drop every object at once.
type Clearer interface {
	Clear()
}
