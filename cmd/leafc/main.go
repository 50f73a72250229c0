// Command leafc compiles a scene JSON file into a standalone HTML page.
//
//	leafc -in scene.json -out page.html -width 1440 -height 900
//	leafc -sample > scene.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	in        string
	out       string
	width     float64
	height    float64
	reference float64
	title     string
	sample    bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("leafc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.in, "in", "", "scene JSON file (- for stdin)")
	fs.StringVar(&opts.out, "out", "", "output HTML file (default: <in>.html)")
	fs.Float64Var(&opts.width, "width", 0, "target page width (default: scene width)")
	fs.Float64Var(&opts.height, "height", 0, "target page height (default: reference height)")
	fs.Float64Var(&opts.reference, "ref", export.DefaultReferenceHeight, "canvas height the export is scaled against")
	fs.StringVar(&opts.title, "title", "", "page title (default: scene name)")
	fs.BoolVar(&opts.sample, "sample", false, "print a sample scene and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if opts.sample {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(document.NewSampleScene(1200, 800)); err != nil {
			fmt.Fprintln(stderr, color.RedString("error: %v", err))
			return 1
		}
		return 0
	}

	if err := compile(opts, stdout); err != nil {
		fmt.Fprintln(stderr, color.RedString("error: %v", err))
		return 1
	}
	return 0
}

func compile(opts options, stdout io.Writer) error {
	if opts.in == "" {
		return errors.New("missing -in")
	}

	var (
		data []byte
		err  error
	)
	if opts.in == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(opts.in)
	}
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}

	var scene document.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	docOpts := export.DocumentOptions{
		Title:  opts.title,
		Width:  opts.width,
		Height: opts.height,
	}
	if docOpts.Width == 0 {
		docOpts.Width = scene.Width
	}
	if docOpts.Height == 0 {
		docOpts.Height = opts.reference
	}

	html, err := export.ExportScene(&scene, opts.reference, docOpts)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = "export.html"
		if opts.in != "-" {
			out = opts.in + ".html"
		}
	}
	if out == "-" {
		_, err = io.WriteString(stdout, html)
		return err
	}
	if err := os.WriteFile(out, []byte(html), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSummary(stdout, &scene, out, docOpts)
	return nil
}

func printSummary(w io.Writer, scene *document.Scene, out string, opts export.DocumentOptions) {
	linked, unlinked := export.Forests(scene)

	bold := color.New(color.Bold)
	bold.Fprintf(w, "compiled %s\n", out)
	fmt.Fprintf(w, "  objects   %d\n", len(scene.Objects))
	fmt.Fprintf(w, "  linked    %s\n", color.GreenString("%d", count(linked)))
	fmt.Fprintf(w, "  unlinked  %s\n", color.YellowString("%d", len(unlinked)))
	fmt.Fprintf(w, "  page      %gx%g\n", opts.Width, opts.Height)
}

func count(nodes []*tree.Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + count(node.Children)
	}
	return n
}
