package canvas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaf/leaf/backend-go/internal/document"
)

func ids(s Surface) []string {
	var out []string
	for _, o := range s.Objects() {
		out = append(out, o.ID)
	}
	return out
}

func TestAddAssignsIDs(t *testing.T) {
	m := NewMemory(100, 100)

	obj := &document.Object{Kind: document.KindRectangle}
	require.NoError(t, m.Add(obj))
	assert.True(t, strings.HasPrefix(obj.ID, "obj_"))

	got, ok := m.Object(obj.ID)
	require.True(t, ok)
	assert.Same(t, obj, got)
}

func TestAddRejectsDuplicates(t *testing.T) {
	m := NewMemory(100, 100)
	require.NoError(t, m.Add(&document.Object{ID: "a"}))

	err := m.Add(&document.Object{ID: "a"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Error(t, m.Add(nil))
}

func TestRemoveAndClear(t *testing.T) {
	m := NewMemory(100, 100)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Add(&document.Object{ID: id}))
	}

	assert.True(t, m.Remove("b"))
	assert.False(t, m.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, ids(m))

	m.Clear()
	assert.Empty(t, m.Objects())
	_, ok := m.Object("a")
	assert.False(t, ok)
}

func TestZOrder(t *testing.T) {
	m := NewMemory(100, 100)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Add(&document.Object{ID: id}))
	}

	assert.True(t, m.MoveUp("a"))
	assert.Equal(t, []string{"b", "a", "c"}, ids(m))
	assert.False(t, m.MoveUp("c"), "already on top")
	assert.True(t, m.MoveDown("c"))
	assert.Equal(t, []string{"b", "c", "a"}, ids(m))
	assert.False(t, m.MoveDown("b"), "already at the bottom")
	assert.False(t, m.MoveUp("ghost"))
}

func TestObjectsOfNilSurface(t *testing.T) {
	assert.Nil(t, ObjectsOf(nil))
}
