package geom

import "github.com/leaf/leaf/backend-go/internal/document"

// ObjectTransform returns the object's local-to-canvas transform. Objects are
// anchored at their top-left corner: T(left, top) * R(angle) * S(sx, sy).
func ObjectTransform(obj *document.Object) Matrix2D {
	sx, sy := obj.ScaleX, obj.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Translate(obj.Left, obj.Top).
		Multiply(RotateDegrees(obj.Style.Angle)).
		Multiply(Scale(sx, sy))
}

// Bounds returns the axis-aligned bounding box of the object in canvas space,
// accounting for rotation and scale.
func Bounds(obj *document.Object) Rect {
	if obj == nil {
		return Rect{}
	}
	m := ObjectTransform(obj)
	local := Rect{Width: obj.Width, Height: obj.Height}
	if m.IsIdentity() {
		return local
	}
	return m.TransformRect(local)
}

// Intersects reports whether the bounding boxes of a and b overlap.
func Intersects(a, b *document.Object) bool {
	if a == nil || b == nil {
		return false
	}
	return Bounds(a).Intersects(Bounds(b))
}
