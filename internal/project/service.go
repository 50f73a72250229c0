// Package project keeps the editor sessions the server hosts. Projects live
// in memory and expire after a period without access.
package project

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/leaf/leaf/backend-go/internal/canvas"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/engine"
	"github.com/leaf/leaf/backend-go/internal/export"
	"github.com/leaf/leaf/backend-go/internal/tree"
	"github.com/leaf/leaf/backend-go/internal/typeid"
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Background   string    `json:"background"`
	CanvasWidth  float64   `json:"canvasWidth"`
	CanvasHeight float64   `json:"canvasHeight"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Options struct {
	CanvasWidth     float64
	CanvasHeight    float64
	ReferenceHeight float64
	ConfirmTimeout  time.Duration
	TTL             time.Duration
	// OnEvent receives session events tagged with their project.
	OnEvent func(projectID string, ev engine.Event)
}

type entry struct {
	project Project
	session *engine.Session
}

type Service struct {
	opts     Options
	projects *cache.Cache
	exports  *cache.Cache
}

func NewService(opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CanvasWidth <= 0 {
		opts.CanvasWidth = 1200
	}
	if opts.CanvasHeight <= 0 {
		opts.CanvasHeight = 800
	}
	if opts.ReferenceHeight <= 0 {
		opts.ReferenceHeight = export.DefaultReferenceHeight
	}

	s := &Service{
		opts:     opts,
		projects: cache.New(opts.TTL, 10*time.Minute),
		exports:  cache.New(10*time.Minute, 10*time.Minute),
	}
	s.projects.OnEvicted(func(id string, v interface{}) {
		v.(*entry).session.Close()
		s.dropExports(id)
		slog.Info("project evicted", "project", id)
	})
	return s
}

// Create starts a new project, optionally seeded with the sample scene.
func (s *Service) Create(name, background string, sample bool) (*Project, error) {
	if background == "" {
		background = "#ffffff"
	}
	p := Project{
		ID:           typeid.NewProjectID(),
		Name:         name,
		Background:   background,
		CanvasWidth:  s.opts.CanvasWidth,
		CanvasHeight: s.opts.CanvasHeight,
		CreatedAt:    time.Now().UTC(),
	}

	id := p.ID
	session := engine.NewSession(canvas.NewMemory(p.CanvasWidth, p.CanvasHeight), engine.Options{
		ConfirmTimeout: s.opts.ConfirmTimeout,
		OnEvent: func(ev engine.Event) {
			if s.opts.OnEvent != nil {
				s.opts.OnEvent(id, ev)
			}
		},
	})
	if sample {
		if err := session.LoadScene(document.NewSampleScene(p.CanvasWidth, p.CanvasHeight)); err != nil {
			return nil, fmt.Errorf("load sample scene: %w", err)
		}
	}

	s.projects.Set(p.ID, &entry{project: p, session: session}, cache.DefaultExpiration)
	slog.Info("project created", "project", p.ID, "sample", sample)
	return &p, nil
}

func (s *Service) Get(id string) (*Project, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	p := e.project
	return &p, nil
}

// Session returns the live editing session of a project.
func (s *Service) Session(id string) (*engine.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// List returns every live project, oldest first.
func (s *Service) List() []Project {
	items := s.projects.Items()
	out := make([]Project, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entry).project)
	}
	slices.SortFunc(out, func(a, b Project) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Service) Delete(id string) error {
	if _, err := s.entry(id); err != nil {
		return err
	}
	s.projects.Delete(id)
	return nil
}

// Scene returns a snapshot of the project canvas.
func (s *Service) Scene(id string) (*document.Scene, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.session.Scene(e.project.Name, e.project.Background), nil
}

func (s *Service) Forest(id string, mode tree.Mode) ([]*tree.Node, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.session.Forest(mode), nil
}

// Export renders the project to HTML at the given target size. Zero sizes
// default to the canvas width and the reference height. Results are cached
// per session revision.
func (s *Service) Export(id string, width, height float64) (string, error) {
	e, err := s.entry(id)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = e.project.CanvasWidth
	}
	if height <= 0 {
		height = s.opts.ReferenceHeight
	}

	key := fmt.Sprintf("%s:%d:%g:%g", id, e.session.Revision(), width, height)
	if v, ok := s.exports.Get(key); ok {
		return v.(string), nil
	}

	out, err := e.session.Export(export.DocumentOptions{
		Title:      e.project.Name,
		Width:      width,
		Height:     height,
		Background: e.project.Background,
	}, s.opts.ReferenceHeight)
	if err != nil {
		return "", err
	}
	s.exports.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

func (s *Service) entry(id string) (*entry, error) {
	v, ok := s.projects.Get(id)
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	e := v.(*entry)
	// Access keeps the project alive.
	s.projects.Set(id, e, cache.DefaultExpiration)
	return e, nil
}

func (s *Service) dropExports(id string) {
	prefix := id + ":"
	for key := range s.exports.Items() {
		if strings.HasPrefix(key, prefix) {
			s.exports.Delete(key)
		}
	}
}
