package document

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared validator so edge packages check their own
// request types against the same rules.
func Validator() *validator.Validate {
	return validate
}

func (o *Object) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid object: %w", err)
	}
	if o.Kind == KindText && o.FontSize <= 0 {
		return fmt.Errorf("invalid object: text requires a positive fontSize")
	}
	return nil
}

func (p *ObjectPatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	return nil
}

// Validate checks the scene shape and that every link and image size refers
// to an object in the scene.
func (s *Scene) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}

	ids := make(map[string]bool, len(s.Objects))
	for _, obj := range s.Objects {
		if obj == nil {
			return fmt.Errorf("invalid scene: nil object")
		}
		if obj.ID == "" {
			return fmt.Errorf("invalid scene: object without id")
		}
		if ids[obj.ID] {
			return fmt.Errorf("invalid scene: duplicate object id %s", obj.ID)
		}
		ids[obj.ID] = true
		if err := obj.Validate(); err != nil {
			return fmt.Errorf("object %s: %w", obj.ID, err)
		}
	}

	for _, l := range s.Links {
		if !ids[l.Parent] || !ids[l.Child] {
			return fmt.Errorf("invalid scene: link %s -> %s refers to unknown object", l.Parent, l.Child)
		}
	}
	for id := range s.ImageSizes {
		if !ids[id] {
			return fmt.Errorf("invalid scene: image size for unknown object %s", id)
		}
	}

	return nil
}
