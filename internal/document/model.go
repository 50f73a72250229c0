package document

type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindTriangle  Kind = "triangle"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindLayout    Kind = "layout"
)

// Animation tags understood by the exported runtime script.
const (
	AnimationUp           = "up"
	AnimationDown         = "down"
	AnimationLeft         = "left"
	AnimationRight        = "right"
	AnimationScaleUp      = "scaleUp"
	AnimationScaleDown    = "scaleDown"
	AnimationFadeIn       = "fadeIn"
	AnimationFadeOut      = "fadeOut"
	AnimationSticky       = "sticky"
	AnimationStickyGently = "stickyGently"
	AnimationStickyLater  = "stickyLater"
)

// Layout container fills. Containers are drawn near-invisible and switch to
// the highlight fill while another object is dragged over them.
const (
	LayoutFill      = "rgba(255, 255, 255, 0.1)"
	LayoutHighlight = "rgba(0, 145, 255, 0.1)"
	LayoutStroke    = "rgba(0, 145, 255, 0.3)"
)

type Shadow struct {
	Color   string  `json:"color" validate:"required"`
	Blur    float64 `json:"blur" validate:"gte=0"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth" validate:"gte=0"`
	RadiusX     float64 `json:"rx" validate:"gte=0"`
	RadiusY     float64 `json:"ry" validate:"gte=0"`
	Opacity     float64 `json:"opacity" validate:"gte=0,lte=1"`
	Angle       float64 `json:"angle"`
	Shadow      *Shadow `json:"shadow,omitempty"`
}

// Object is a drawable placed on the canvas. Position and size are absolute
// canvas coordinates; the layout tree only records structure and refers to
// objects by ID.
type Object struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"kind" validate:"required,oneof=rectangle circle triangle text image layout"`
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
	Width     float64 `json:"width" validate:"gte=0"`
	Height    float64 `json:"height" validate:"gte=0"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
	Style     Style   `json:"style"`
	Animation string  `json:"animation,omitempty" validate:"omitempty,oneof=up down left right scaleUp scaleDown fadeIn fadeOut sticky stickyGently stickyLater"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty" validate:"gte=0"`
	Src      string  `json:"src,omitempty"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// Link records that Child sits under Parent in the layout tree.
type Link struct {
	Parent string `json:"parent" validate:"required"`
	Child  string `json:"child" validate:"required"`
}

// Scene is a transport snapshot of a canvas: its objects in z-order, the
// layout links in insertion order, and the image size side table.
type Scene struct {
	Name       string          `json:"name"`
	Width      float64         `json:"width" validate:"gt=0"`
	Height     float64         `json:"height" validate:"gt=0"`
	Background string          `json:"background"`
	Objects    []*Object       `json:"objects" validate:"dive"`
	Links      []Link          `json:"links" validate:"dive"`
	ImageSizes map[string]Size `json:"imageSizes,omitempty" validate:"dive"`
}

func (o *Object) IsLayout() bool {
	return o != nil && o.Kind == KindLayout
}

// ScaledWidth returns the on-canvas width. A zero scale counts as 1.
func (o *Object) ScaledWidth() float64 {
	return o.Width * scaleOrOne(o.ScaleX)
}

// ScaledHeight returns the on-canvas height. A zero scale counts as 1.
func (o *Object) ScaledHeight() float64 {
	return o.Height * scaleOrOne(o.ScaleY)
}

// NormalizeScale folds the scale factors into width and height. Images keep
// their scale because their intrinsic size is tracked separately.
func (o *Object) NormalizeScale() {
	if o.Kind == KindImage {
		return
	}
	o.Width = o.ScaledWidth()
	o.Height = o.ScaledHeight()
	o.ScaleX = 1
	o.ScaleY = 1
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := *o
	if o.Style.Shadow != nil {
		s := *o.Style.Shadow
		c.Style.Shadow = &s
	}
	return &c
}

func scaleOrOne(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
