package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewObjectDefaults(t *testing.T) {
	tests := []struct {
		kind          Kind
		width, height float64
	}{
		{KindLayout, 400, 60},
		{KindCircle, 100, 100},
		{KindRectangle, 100, 60},
		{KindTriangle, 100, 100},
		{KindText, 0, 0},
		{KindImage, 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			obj, err := NewObject(tt.kind)
			require.NoError(t, err)
			assert.NotEmpty(t, obj.ID)
			assert.Equal(t, tt.width, obj.Width)
			assert.Equal(t, tt.height, obj.Height)
			assert.NoError(t, obj.Validate())
		})
	}

	_, err := NewObject("hexagon")
	assert.Error(t, err)
}

func TestObjectValidate(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		ok   bool
	}{
		{"rectangle", Object{Kind: KindRectangle, Width: 1, Height: 1}, true},
		{"missing kind", Object{Width: 1}, false},
		{"negative width", Object{Kind: KindRectangle, Width: -1}, false},
		{"opacity above one", Object{Kind: KindRectangle, Style: Style{Opacity: 1.5}}, false},
		{"unknown animation", Object{Kind: KindRectangle, Animation: "spin"}, false},
		{"text without font size", Object{Kind: KindText, Text: "hi"}, false},
		{"shadow without color", Object{Kind: KindCircle, Style: Style{Shadow: &Shadow{Blur: 1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obj.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	obj := &Object{Kind: KindRectangle, Left: 1, Top: 2, Style: Style{Fill: "#000000", Shadow: &Shadow{Color: "#111111"}}}

	(&ObjectPatch{Left: ptr(10.0), Fill: ptr("#ffffff"), Animation: ptr(AnimationSticky)}).Apply(obj)
	assert.Equal(t, 10.0, obj.Left)
	assert.Equal(t, 2.0, obj.Top)
	assert.Equal(t, "#ffffff", obj.Style.Fill)
	assert.Equal(t, AnimationSticky, obj.Animation)
	assert.NotNil(t, obj.Style.Shadow)

	(&ObjectPatch{ClearShadow: true}).Apply(obj)
	assert.Nil(t, obj.Style.Shadow)

	assert.True(t, (&ObjectPatch{Angle: ptr(5.0)}).MovesGeometry())
	assert.False(t, (&ObjectPatch{Fill: ptr("#fff")}).MovesGeometry())
	assert.Error(t, (&ObjectPatch{Opacity: ptr(2.0)}).Validate())
}

func TestNormalizeScale(t *testing.T) {
	obj := &Object{Kind: KindRectangle, Width: 10, Height: 20, ScaleX: 2, ScaleY: 0.5}
	obj.NormalizeScale()
	assert.Equal(t, 20.0, obj.Width)
	assert.Equal(t, 10.0, obj.Height)
	assert.Equal(t, 1.0, obj.ScaleX)

	img := &Object{Kind: KindImage, Width: 10, Height: 10, ScaleX: 2, ScaleY: 2}
	img.NormalizeScale()
	assert.Equal(t, 10.0, img.Width)
	assert.Equal(t, 20.0, img.ScaledWidth())
}

func TestCloneIsDeep(t *testing.T) {
	obj := &Object{Style: Style{Shadow: &Shadow{Color: "#000000"}}}
	c := obj.Clone()
	c.Style.Shadow.Color = "#ffffff"
	assert.Equal(t, "#000000", obj.Style.Shadow.Color)
}

func TestSceneValidate(t *testing.T) {
	scene := NewSampleScene(1200, 800)
	require.NoError(t, scene.Validate())

	dup := NewSampleScene(1200, 800)
	dup.Objects[1].ID = dup.Objects[0].ID
	assert.Error(t, dup.Validate())

	dangling := NewSampleScene(1200, 800)
	dangling.Links = append(dangling.Links, Link{Parent: "x", Child: dangling.Objects[0].ID})
	assert.Error(t, dangling.Validate())

	sizes := NewSampleScene(1200, 800)
	sizes.ImageSizes["ghost"] = Size{Width: 1, Height: 1}
	assert.Error(t, sizes.Validate())

	noID := NewSampleScene(1200, 800)
	noID.Objects[3].ID = ""
	assert.Error(t, noID.Validate())
}
