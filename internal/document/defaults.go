package document

import (
	"fmt"

	"github.com/leaf/leaf/backend-go/internal/typeid"
)

// NewObject creates an object of the given kind with the editor's default
// geometry and style, placed at (100, 100). Images start empty; the caller
// fills in Src and the intrinsic size.
func NewObject(kind Kind) (*Object, error) {
	obj := &Object{
		ID:     typeid.NewObjectID(),
		Kind:   kind,
		Left:   100,
		Top:    100,
		ScaleX: 1,
		ScaleY: 1,
		Style:  Style{Opacity: 1},
	}

	switch kind {
	case KindLayout:
		obj.Width, obj.Height = 400, 60
		obj.Style.Fill = LayoutFill
		obj.Style.Stroke = LayoutStroke
		obj.Style.StrokeWidth = 1
	case KindCircle:
		obj.Width, obj.Height = 100, 100
		obj.Style.Fill = "#3b82f6"
	case KindRectangle:
		obj.Width, obj.Height = 100, 60
		obj.Style.Fill = "#ef4444"
	case KindTriangle:
		obj.Width, obj.Height = 100, 100
		obj.Style.Fill = "#10b981"
	case KindText:
		obj.Text = "Text"
		obj.FontSize = 24
		obj.Style.Fill = "#1f2937"
	case KindImage:
		obj.Left, obj.Top = 0, 0
	default:
		return nil, fmt.Errorf("unknown object kind: %s", kind)
	}

	return obj, nil
}
