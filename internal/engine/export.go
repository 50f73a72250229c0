package engine

import (
	"github.com/leaf/leaf/backend-go/internal/canvas"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

// Export compiles the session into a standalone HTML page scaled from the
// canvas onto the target size in opts.
func (s *Session) Export(opts export.DocumentOptions, referenceHeight float64) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	objs := canvas.ObjectsOf(s.surface)
	linked := tree.ComputeForest(objs, s.tree, tree.ModeLinked)
	unlinked := tree.ComputeForest(objs, s.tree, tree.ModeUnlinked)
	sx, sy := export.Scale(s.canvasWidth(), referenceHeight, opts.Width, opts.Height)
	markup := export.Compile(linked, unlinked, s.imageSizes, sx, sy)
	s.mu.Unlock()

	return export.Document(markup, opts)
}
