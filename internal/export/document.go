package export

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

// DefaultReferenceHeight is the canvas height exports are scaled against,
// independent of the editor's visible canvas height.
const DefaultReferenceHeight = 670

//go:embed runtime.js
var runtimeScript string

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>{{.Title}}</title>
  <style>
    body {
      margin: 0;
      height: 100vh;
      background-color: {{.Background}};
      overflow-x: hidden;
      position: relative;
      width: 100%;
    }
    #main {
      position: relative;
      background-color: {{.Background}};
      height: 100vh;
      width: {{.Width}}px;
      max-width: 100vw;
      margin: 0 auto;
    }
  </style>
</head>
<body>
  <div id="main">
{{.Markup}}
  </div>
  <script>
{{.Script}}
  </script>
</body>
</html>
`))

// DocumentOptions describes the exported page.
type DocumentOptions struct {
	Title      string  `json:"title" validate:"max=200"`
	Width      float64 `json:"width" validate:"gt=0"`
	Height     float64 `json:"height" validate:"gt=0"`
	Background string  `json:"background" validate:"omitempty,iscolor"`
}

func (o DocumentOptions) Validate() error {
	if err := document.Validator().Struct(o); err != nil {
		return fmt.Errorf("invalid export options: %w", err)
	}
	return nil
}

// Document wraps compiled markup in a self-contained HTML page with the
// animation runtime inlined.
func Document(markup string, opts DocumentOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	title := opts.Title
	if title == "" {
		title = "Exported Tree"
	}
	background := opts.Background
	if background == "" {
		background = "#ffffff"
	}

	var b strings.Builder
	err := page.Execute(&b, struct {
		Title      string
		Background template.CSS
		Width      string
		Markup     template.HTML
		Script     template.JS
	}{
		Title:      title,
		Background: template.CSS(background),
		Width:      formatFloat(opts.Width),
		Markup:     template.HTML(indent(markup, "    ")),
		Script:     template.JS(runtimeScript),
	})
	if err != nil {
		return "", fmt.Errorf("render export document: %w", err)
	}
	return b.String(), nil
}

// Scale returns the factors that map canvas coordinates onto a target
// viewport. Height is measured against referenceHeight rather than the live
// canvas height; a non-positive reference falls back to the default.
func Scale(canvasWidth, referenceHeight, targetWidth, targetHeight float64) (float64, float64) {
	if referenceHeight <= 0 {
		referenceHeight = DefaultReferenceHeight
	}
	sx, sy := 1.0, 1.0
	if canvasWidth > 0 && targetWidth > 0 {
		sx = targetWidth / canvasWidth
	}
	if targetHeight > 0 {
		sy = targetHeight / referenceHeight
	}
	return sx, sy
}

func indent(s, prefix string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// ExportScene compiles a scene snapshot into a full HTML page scaled to the
// target size in opts.
func ExportScene(scene *document.Scene, referenceHeight float64, opts DocumentOptions) (string, error) {
	if err := scene.Validate(); err != nil {
		return "", err
	}
	if opts.Background == "" {
		opts.Background = scene.Background
	}
	if opts.Title == "" {
		opts.Title = scene.Name
	}

	linked, unlinked := Forests(scene)
	sx, sy := Scale(scene.Width, referenceHeight, opts.Width, opts.Height)
	return Document(Compile(linked, unlinked, scene.ImageSizes, sx, sy), opts)
}

// Forests rebuilds the linked and unlinked forests of a scene snapshot.
func Forests(scene *document.Scene) (linked, unlinked []*tree.Node) {
	t := tree.FromLinks(scene.Objects, scene.Links)
	return tree.ComputeForest(scene.Objects, t, tree.ModeLinked),
		tree.ComputeForest(scene.Objects, t, tree.ModeUnlinked)
}
