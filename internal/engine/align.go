package engine

import "fmt"

type Position string

const (
	AlignStart  Position = "start"
	AlignCenter Position = "center"
	AlignEnd    Position = "end"
)

// AlignSelf moves the object horizontally within its parent container, or
// within the canvas when it has no parent. A container's descendants move
// with it in the same step.
func (s *Session) AlignSelf(position Position, id string) error {
	return s.update(func() (bool, error) {
		obj, ok := s.object(id)
		if !ok {
			return false, fmt.Errorf("align %s: %w", id, ErrObjectNotFound)
		}

		boundsLeft, boundsWidth := 0.0, s.canvasWidth()
		if pid, ok := s.tree.ParentOf(id); ok {
			if parent, ok := s.object(pid); ok {
				boundsLeft, boundsWidth = parent.Left, parent.ScaledWidth()
			}
		}

		w := obj.ScaledWidth()
		var left float64
		switch position {
		case AlignStart:
			left = boundsLeft
		case AlignCenter:
			left = boundsLeft + (boundsWidth-w)/2
		case AlignEnd:
			left = boundsLeft + boundsWidth - w
		default:
			return false, fmt.Errorf("%w: %q", ErrInvalidPosition, position)
		}

		dx := left - obj.Left
		if dx == 0 {
			return false, nil
		}
		if obj.IsLayout() {
			s.tree.MoveSubtree(id, dx, 0, s.prev)
		}
		obj.Left = left
		s.prev.Remember(id, obj.Left, obj.Top)
		return true, nil
	})
}
