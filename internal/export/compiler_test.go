package export_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

func object(id string, kind document.Kind, left, top, w, h float64) *document.Object {
	return &document.Object{
		ID: id, Kind: kind,
		Left: left, Top: top, Width: w, Height: h,
		ScaleX: 1, ScaleY: 1,
		Style: document.Style{Opacity: 1},
	}
}

func leaf(obj *document.Object, children ...*tree.Node) *tree.Node {
	return &tree.Node{ID: obj.ID, Object: obj, Children: children}
}

func lineFor(t *testing.T, out, id string) string {
	t.Helper()
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, `id="`+id+`"`) {
			return l
		}
	}
	t.Fatalf("no element with id %q in:\n%s", id, out)
	return ""
}

func TestCompileRebasesChildren(t *testing.T) {
	root := object("root", document.KindLayout, 100, 100, 50, 50)
	child := object("child", document.KindRectangle, 110, 110, 10, 10)

	out := export.Compile([]*tree.Node{leaf(root, leaf(child))}, nil, nil, 1, 1)

	assert.Contains(t, lineFor(t, out, "root"), "left: 100px; top: 100px;")
	assert.Contains(t, lineFor(t, out, "child"), "left: 10px; top: 10px;")
	assert.True(t, strings.HasPrefix(lineFor(t, out, "child"), "  <div"), "children are indented one level")

	want := strings.Join([]string{
		`<div id="root" style="position: absolute; left: 100px; top: 100px; width: 50px; height: 50px; background-color: transparent;">`,
		`  <div id="child" style="position: absolute; left: 10px; top: 10px; width: 10px; height: 10px; background-color: transparent;">`,
		`  </div>`,
		`</div>`,
	}, "\n")
	assert.Equal(t, want, out)
}

func TestCompileRebasesAcrossLevels(t *testing.T) {
	a := object("a", document.KindLayout, 100, 50, 400, 400)
	b := object("b", document.KindLayout, 150, 80, 200, 200)
	c := object("c", document.KindCircle, 160, 95, 20, 20)

	out := export.Compile([]*tree.Node{leaf(a, leaf(b, leaf(c)))}, nil, nil, 2, 0.5)

	assert.Contains(t, lineFor(t, out, "a"), "left: 200px; top: 25px;")
	assert.Contains(t, lineFor(t, out, "b"), "left: 100px; top: 15px;")
	assert.Contains(t, lineFor(t, out, "c"), "left: 20px; top: 7.5px;")
	assert.Contains(t, lineFor(t, out, "c"), "border-radius: 50%;")
}

func TestCompileUnlinkedUsesPageOrigin(t *testing.T) {
	free := object("free", document.KindRectangle, 30, 40, 10, 10)
	linked := object("box", document.KindLayout, 0, 0, 10, 10)

	out := export.Compile([]*tree.Node{leaf(linked)}, []*tree.Node{leaf(free)}, nil, 1, 1)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `id="box"`)
	assert.Contains(t, lines[2], `id="free"`)
	assert.Contains(t, lines[2], "left: 30px; top: 40px;")
}

func TestCompileBorder(t *testing.T) {
	border := regexp.MustCompile(`border: [1-9]`)

	tests := []struct {
		name       string
		stroke     string
		width      float64
		wantBorder string
	}{
		{"zero width", "#000000", 0, ""},
		{"no stroke color", "", 2, ""},
		{"visible", "#000000", 2, "border: 2px solid #000000;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := object("x", document.KindRectangle, 0, 0, 10, 10)
			obj.Style.Stroke = tt.stroke
			obj.Style.StrokeWidth = tt.width

			out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 1, 1)

			if tt.wantBorder == "" {
				assert.NotRegexp(t, border, out)
				assert.NotContains(t, out, "border:")
				return
			}
			assert.Contains(t, out, tt.wantBorder)
		})
	}
}

func TestCompileBoxStyles(t *testing.T) {
	obj := object("x", document.KindRectangle, 0, 0, 10, 10)
	obj.Style.Fill = "#ef4444"
	obj.Style.RadiusX = 4
	obj.Style.RadiusY = 8
	obj.Style.Opacity = 0.5
	obj.Style.Angle = 45
	obj.Style.Shadow = &document.Shadow{Color: "rgba(0,0,0,0.3)", Blur: 10, OffsetX: 2, OffsetY: 4}

	out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 2, 1)

	assert.Contains(t, out, "background-color: #ef4444;")
	assert.Contains(t, out, "border-radius: 12px;", "max radius times the average scale")
	assert.Contains(t, out, "box-shadow: 4px 4px 15px rgba(0,0,0,0.3);")
	assert.Contains(t, out, "opacity: 0.5;")
	assert.Contains(t, out, "transform: rotate(45deg);")
}

func TestCompileOmitsUnsetDecorations(t *testing.T) {
	obj := object("x", document.KindRectangle, 0, 0, 10, 10)

	out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 1, 1)

	for _, prop := range []string{"border-radius", "box-shadow", "opacity", "transform", "data-animation"} {
		assert.NotContains(t, out, prop)
	}
}

func TestCompileTriangle(t *testing.T) {
	obj := object("tri", document.KindTriangle, 0, 0, 10, 10)

	out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 1, 1)

	assert.Contains(t, out, "clip-path: polygon(50% 0%, 0% 100%, 100% 100%);")
}

func TestCompileText(t *testing.T) {
	obj := object("t", document.KindText, 10, 20, 0, 0)
	obj.Text = "Fish & <Chips>"
	obj.FontSize = 20
	obj.Style.Fill = "#1f2937"

	out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 2, 1)

	assert.Equal(t,
		`<div id="t" style="position: absolute; left: 20px; top: 20px; color: #1f2937; font-size: 30px; white-space: pre;">Fish &amp; &lt;Chips&gt;</div>`,
		out)
	assert.NotContains(t, out, "width:")
}

func TestCompileImageUsesIntrinsicSize(t *testing.T) {
	box := object("box", document.KindLayout, 100, 100, 400, 400)
	img := object("img", document.KindImage, 120, 130, 1000, 1000)
	img.Src = "/assets/a.png"

	sizes := map[string]document.Size{"img": {Width: 200, Height: 100}}
	out := export.Compile([]*tree.Node{leaf(box, leaf(img))}, nil, sizes, 2, 2)

	imgLine := lineFor(t, out, "img")
	assert.Equal(t,
		`  <img id="img" src="/assets/a.png" style="position: absolute; left: 40px; top: 60px; width: 400px; height: 200px;" />`,
		imgLine)
}

func TestCompileImageWithChildrenBecomesFrame(t *testing.T) {
	box := object("box", document.KindLayout, 100, 100, 400, 400)
	img := object("img", document.KindImage, 120, 130, 1000, 1000)
	img.Src = "/assets/a.png"
	child := object("badge", document.KindRectangle, 125, 135, 5, 5)

	sizes := map[string]document.Size{"img": {Width: 200, Height: 100}}
	out := export.Compile([]*tree.Node{leaf(box, leaf(img, leaf(child)))}, nil, sizes, 2, 2)

	assert.Equal(t,
		`  <div id="img" style="position: absolute; left: 40px; top: 60px; width: 400px; height: 200px;">`,
		lineFor(t, out, "img"))
	assert.Contains(t, out,
		"\n    <img src=\"/assets/a.png\" style=\"position: absolute; left: 0px; top: 0px; width: 100%; height: 100%;\" />\n")

	badge := lineFor(t, out, "badge")
	assert.True(t, strings.HasPrefix(badge, "    <div"), "children nest inside the image frame")
	assert.Contains(t, badge, "left: 10px; top: 10px;", "children are rebased onto the image")
}

func TestCompileImageFallsBackToObjectSize(t *testing.T) {
	img := object("img", document.KindImage, 0, 0, 64, 32)
	img.ScaleX, img.ScaleY = 0.5, 0.5

	out := export.Compile(nil, []*tree.Node{leaf(img)}, nil, 1, 1)

	assert.Contains(t, out, "width: 32px; height: 16px;")
}

func TestCompileAnimationAttribute(t *testing.T) {
	obj := object("a", document.KindRectangle, 0, 0, 10, 10)
	obj.Animation = document.AnimationFadeIn

	out := export.Compile(nil, []*tree.Node{leaf(obj)}, nil, 1, 1)

	assert.Contains(t, out, `data-animation="fadeIn">`)
}

func TestCompileUnlinkedNeverRecurses(t *testing.T) {
	box := object("box", document.KindLayout, 0, 0, 10, 10)
	stray := object("stray", document.KindRectangle, 0, 0, 1, 1)

	out := export.Compile(nil, []*tree.Node{leaf(box, leaf(stray))}, nil, 1, 1)

	assert.NotContains(t, out, "stray")
}

func TestCompileEmpty(t *testing.T) {
	assert.Empty(t, export.Compile(nil, nil, nil, 1, 1))
}
