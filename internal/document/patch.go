package document

// ObjectPatch carries a partial update from a property panel. Nil fields are
// left untouched.
type ObjectPatch struct {
	Left        *float64 `json:"left,omitempty"`
	Top         *float64 `json:"top,omitempty"`
	Width       *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height      *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	ScaleX      *float64 `json:"scaleX,omitempty"`
	ScaleY      *float64 `json:"scaleY,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty" validate:"omitempty,gte=0"`
	RadiusX     *float64 `json:"rx,omitempty" validate:"omitempty,gte=0"`
	RadiusY     *float64 `json:"ry,omitempty" validate:"omitempty,gte=0"`
	Opacity     *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
	Angle       *float64 `json:"angle,omitempty"`
	Shadow      *Shadow  `json:"shadow,omitempty"`
	ClearShadow bool     `json:"clearShadow,omitempty"`
	Animation   *string  `json:"animation,omitempty" validate:"omitempty,oneof=up down left right scaleUp scaleDown fadeIn fadeOut sticky stickyGently stickyLater"`
	Text        *string  `json:"text,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty" validate:"omitempty,gte=0"`
}

// Apply writes the set fields onto obj.
func (p *ObjectPatch) Apply(obj *Object) {
	setFloat(&obj.Left, p.Left)
	setFloat(&obj.Top, p.Top)
	setFloat(&obj.Width, p.Width)
	setFloat(&obj.Height, p.Height)
	setFloat(&obj.ScaleX, p.ScaleX)
	setFloat(&obj.ScaleY, p.ScaleY)
	setFloat(&obj.Style.StrokeWidth, p.StrokeWidth)
	setFloat(&obj.Style.RadiusX, p.RadiusX)
	setFloat(&obj.Style.RadiusY, p.RadiusY)
	setFloat(&obj.Style.Opacity, p.Opacity)
	setFloat(&obj.Style.Angle, p.Angle)
	setFloat(&obj.FontSize, p.FontSize)

	if p.Fill != nil {
		obj.Style.Fill = *p.Fill
	}
	if p.Stroke != nil {
		obj.Style.Stroke = *p.Stroke
	}
	if p.Animation != nil {
		obj.Animation = *p.Animation
	}
	if p.Text != nil {
		obj.Text = *p.Text
	}

	if p.ClearShadow {
		obj.Style.Shadow = nil
	} else if p.Shadow != nil {
		s := *p.Shadow
		obj.Style.Shadow = &s
	}
}

// MovesGeometry reports whether the patch changes position or size.
func (p *ObjectPatch) MovesGeometry() bool {
	return p.Left != nil || p.Top != nil || p.Width != nil || p.Height != nil ||
		p.ScaleX != nil || p.ScaleY != nil || p.Angle != nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
