package memes

import (
	"context"

	"github.com/small-frappuccino/memebot/pkg/imgflip"
)

// Catalog lists the available templates.
type Catalog interface {
	ListTemplates(ctx context.Context) ([]imgflip.Template, error)
}

// Snapshot fetches the catalog at most once and serves every lookup of one
// interaction from that copy. It is not shared between interactions and is
// not safe for concurrent use.
type Snapshot struct {
	catalog   Catalog
	templates []imgflip.Template
	loaded    bool
}

// NewSnapshot returns an empty snapshot over catalog.
func NewSnapshot(catalog Catalog) *Snapshot {
	return &Snapshot{catalog: catalog}
}

// Templates returns the catalog, fetching it on first use.
func (s *Snapshot) Templates(ctx context.Context) ([]imgflip.Template, error) {
	if s.loaded {
		return s.templates, nil
	}
	templates, err := s.catalog.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	s.templates = templates
	s.loaded = true
	return templates, nil
}

// ByID looks a template up by id. A missing id is not an error.
func (s *Snapshot) ByID(ctx context.Context, id string) (imgflip.Template, bool, error) {
	return s.find(ctx, func(t imgflip.Template) bool { return t.ID == id })
}

// ByName looks a template up by exact, case-sensitive name.
func (s *Snapshot) ByName(ctx context.Context, name string) (imgflip.Template, bool, error) {
	return s.find(ctx, func(t imgflip.Template) bool { return t.Name == name })
}

func (s *Snapshot) find(ctx context.Context, match func(imgflip.Template) bool) (imgflip.Template, bool, error) {
	templates, err := s.Templates(ctx)
	if err != nil {
		return imgflip.Template{}, false, err
	}
	for _, t := range templates {
		if match(t) {
			return t, true, nil
		}
	}
	return imgflip.Template{}, false, nil
}
