package tree

import (
	"fmt"

	"github.com/leaf/leaf/backend-go/internal/document"
)

// Mode selects which part of the canvas a forest covers.
type Mode string

const (
	ModeLinked   Mode = "linked"
	ModeUnlinked Mode = "unlinked"
	ModeCombined Mode = "combined"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLinked, ModeUnlinked, ModeCombined:
		return Mode(s), nil
	case "":
		return ModeCombined, nil
	default:
		return "", fmt.Errorf("unknown forest mode: %q", s)
	}
}

// LinkedIDs returns the ids reachable from any root.
func LinkedIDs(t *Tree) map[string]struct{} {
	ids := make(map[string]struct{}, t.Len())
	t.Walk(func(id string, _ *document.Object, _ int) bool {
		ids[id] = struct{}{}
		return true
	})
	return ids
}

// Unlinked returns one childless root node per canvas object that is not in
// the tree, in canvas order. Objects without an id are skipped.
func Unlinked(objects []*document.Object, t *Tree) []*Node {
	linked := LinkedIDs(t)
	nodes := make([]*Node, 0, len(objects))
	for _, obj := range objects {
		if obj == nil || obj.ID == "" {
			continue
		}
		if _, ok := linked[obj.ID]; ok {
			continue
		}
		nodes = append(nodes, &Node{
			ID:       obj.ID,
			Object:   obj,
			Children: []*Node{},
		})
	}
	return nodes
}

// ComputeForest partitions the canvas against the tree. It is recomputed from
// scratch on every call, so it always reflects the current tree and object
// list.
func ComputeForest(objects []*document.Object, t *Tree, mode Mode) []*Node {
	switch mode {
	case ModeLinked:
		return t.Roots()
	case ModeUnlinked:
		return Unlinked(objects, t)
	default:
		return append(t.Roots(), Unlinked(objects, t)...)
	}
}
