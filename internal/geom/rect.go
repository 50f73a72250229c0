package geom

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether the two rects overlap. Touching edges count as
// an intersection, matching the canvas hit rules.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		other.X <= r.X+r.Width &&
		r.Y <= other.Y+other.Height &&
		other.Y <= r.Y+r.Height
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
