// Package export turns a layout forest into static positioned HTML.
//
// Linked nodes nest: a child's offset is rebased onto its parent's top-left,
// so every container is the positioning frame of its children. Unlinked nodes
// and tree roots are placed against the page origin.
package export

import (
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

const triangleClip = "polygon(50% 0%, 0% 100%, 100% 100%)"

type compiler struct {
	b          strings.Builder
	imageSizes map[string]document.Size
	sx, sy     float64
}

// Compile renders the linked forest followed by the unlinked nodes. Positions
// are multiplied by (scaleX, scaleY); font sizes, radii and blur use their
// average.
func Compile(linked, unlinked []*tree.Node, imageSizes map[string]document.Size, scaleX, scaleY float64) string {
	c := &compiler{imageSizes: imageSizes, sx: scaleX, sy: scaleY}
	for _, n := range linked {
		c.node(n, nil, 0)
	}
	for _, n := range unlinked {
		c.node(&tree.Node{ID: n.ID, Object: n.Object}, nil, 0)
	}
	return strings.TrimSuffix(c.b.String(), "\n")
}

// node writes n and its subtree. parent is the object whose top-left is the
// positioning frame, or nil for the page.
func (c *compiler) node(n *tree.Node, parent *document.Object, depth int) {
	obj := n.Object
	if obj == nil {
		return
	}

	left, top := obj.Left, obj.Top
	if parent != nil {
		left -= parent.Left
		top -= parent.Top
	}

	d := styles{}
	d.add("position", "absolute")
	d.add("left", px(left*c.sx))
	d.add("top", px(top*c.sy))

	id := n.ID
	if id == "" {
		id = obj.ID
	}
	attrs := ` id="` + html.EscapeString(id) + `"`

	switch obj.Kind {
	case document.KindImage:
		w, h := obj.ScaledWidth(), obj.ScaledHeight()
		if size, ok := c.imageSizes[id]; ok {
			w, h = size.Width, size.Height
		}
		d.add("width", px(w*c.sx))
		d.add("height", px(h*c.sy))
		c.common(&d, obj)
		src := ` src="` + html.EscapeString(obj.Src) + `"`
		if len(n.Children) == 0 {
			c.line(depth, `<img`+attrs+src+` style="`+d.String()+`"`+animationAttr(obj)+` />`)
			return
		}
		// <img> is void, so an image with children becomes a frame that holds
		// the picture and its children.
		c.line(depth, `<div`+attrs+` style="`+d.String()+`"`+animationAttr(obj)+`>`)
		c.line(depth+1, `<img`+src+` style="position: absolute; left: 0px; top: 0px; width: 100%; height: 100%;" />`)

	case document.KindText:
		if obj.Style.Fill != "" {
			d.add("color", obj.Style.Fill)
		}
		d.add("font-size", px(obj.FontSize*c.avg()))
		d.add("white-space", "pre")
		c.common(&d, obj)
		open := `<div` + attrs + ` style="` + d.String() + `"` + animationAttr(obj) + `>` + html.EscapeString(obj.Text)
		if len(n.Children) == 0 {
			c.line(depth, open+`</div>`)
			return
		}
		c.line(depth, open)

	default:
		d.add("width", px(obj.ScaledWidth()*c.sx))
		d.add("height", px(obj.ScaledHeight()*c.sy))
		c.box(&d, obj)
		c.common(&d, obj)
		c.line(depth, `<div`+attrs+` style="`+d.String()+`"`+animationAttr(obj)+`>`)
	}

	for _, child := range n.Children {
		c.node(child, obj, depth+1)
	}
	c.line(depth, `</div>`)
}

func (c *compiler) box(d *styles, obj *document.Object) {
	s := obj.Style
	avg := c.avg()

	fill := s.Fill
	if fill == "" {
		fill = "transparent"
	}
	d.add("background-color", fill)

	if s.StrokeWidth != 0 && s.Stroke != "" {
		d.add("box-sizing", "border-box")
		d.add("border", px(s.StrokeWidth*avg)+" solid "+s.Stroke)
	}

	switch {
	case obj.Kind == document.KindCircle:
		d.add("border-radius", "50%")
	case max(s.RadiusX, s.RadiusY) != 0:
		d.add("border-radius", px(max(s.RadiusX, s.RadiusY)*avg))
	}

	if obj.Kind == document.KindTriangle {
		d.add("clip-path", triangleClip)
	}

	if sh := s.Shadow; sh != nil {
		d.add("box-shadow", px(sh.OffsetX*c.sx)+" "+px(sh.OffsetY*c.sy)+" "+px(sh.Blur*avg)+" "+sh.Color)
	}
}

func (c *compiler) common(d *styles, obj *document.Object) {
	if o := obj.Style.Opacity; o > 0 && o < 1 {
		d.add("opacity", formatFloat(o))
	}
	if a := obj.Style.Angle; a != 0 {
		d.add("transform-origin", "top left")
		d.add("transform", "rotate("+formatFloat(a)+"deg)")
	}
}

func (c *compiler) avg() float64 {
	return (c.sx + c.sy) / 2
}

func (c *compiler) line(depth int, s string) {
	c.b.WriteString(strings.Repeat("  ", depth))
	c.b.WriteString(s)
	c.b.WriteByte('\n')
}

func animationAttr(obj *document.Object) string {
	if obj.Animation == "" {
		return ""
	}
	return ` data-animation="` + html.EscapeString(obj.Animation) + `"`
}

// styles is an ordered list of CSS declarations.
type styles []string

func (s *styles) add(prop, value string) {
	*s = append(*s, prop+": "+value+";")
}

func (s styles) String() string {
	return html.EscapeString(strings.Join(s, " "))
}

// px rounds to thousandths so scaled offsets do not carry float noise.
func px(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0
	}
	return formatFloat(r) + "px"
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
