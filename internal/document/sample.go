package document

import "github.com/leaf/leaf/backend-go/internal/typeid"

// NewSampleScene returns a small landing-page composition: a header layout
// holding a title and a button-like rectangle, plus a free-floating circle.
func NewSampleScene(width, height float64) *Scene {
	headerID := typeid.NewObjectID()
	titleID := typeid.NewObjectID()
	buttonID := typeid.NewObjectID()
	circleID := typeid.NewObjectID()

	header := &Object{
		ID:     headerID,
		Kind:   KindLayout,
		Left:   100,
		Top:    80,
		Width:  800,
		Height: 160,
		ScaleX: 1,
		ScaleY: 1,
		Style: Style{
			Fill:        LayoutFill,
			Stroke:      LayoutStroke,
			StrokeWidth: 1,
			Opacity:     1,
		},
	}

	title := &Object{
		ID:        titleID,
		Kind:      KindText,
		Left:      140,
		Top:       110,
		ScaleX:    1,
		ScaleY:    1,
		Text:      "Hello, Leaf",
		FontSize:  36,
		Animation: AnimationFadeIn,
		Style:     Style{Fill: "#1f2937", Opacity: 1},
	}

	button := &Object{
		ID:        buttonID,
		Kind:      KindRectangle,
		Left:      140,
		Top:       180,
		Width:     160,
		Height:    40,
		ScaleX:    1,
		ScaleY:    1,
		Animation: AnimationUp,
		Style: Style{
			Fill:    "#ef4444",
			RadiusX: 8,
			RadiusY: 8,
			Opacity: 1,
			Shadow:  &Shadow{Color: "#000000", Blur: 3, OffsetX: 3, OffsetY: 3},
		},
	}

	circle := &Object{
		ID:        circleID,
		Kind:      KindCircle,
		Left:      500,
		Top:       400,
		Width:     100,
		Height:    100,
		ScaleX:    1,
		ScaleY:    1,
		Animation: AnimationScaleUp,
		Style:     Style{Fill: "#3b82f6", Opacity: 1},
	}

	return &Scene{
		Name:       "Sample",
		Width:      width,
		Height:     height,
		Background: "#ffffff",
		Objects:    []*Object{header, title, button, circle},
		Links: []Link{
			{Parent: headerID, Child: titleID},
			{Parent: headerID, Child: buttonID},
		},
		ImageSizes: map[string]Size{},
	}
}
