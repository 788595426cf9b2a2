// Package templates provides the catalog of site template presets.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Registry errors.
var (
	// ErrTemplateNotFound is returned when a template id is not in the catalog.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidPreset is returned when a catalog entry is malformed.
	ErrInvalidPreset = errors.New("invalid template preset")
)

// Registry is an immutable catalog of template presets.
type Registry struct {
	presets map[models.TemplateID]models.TemplatePreset
	order   []models.TemplateID
}

type catalogFile struct {
	Presets []models.TemplatePreset `yaml:"presets"`
}

// Load parses a YAML catalog and validates every preset.
func Load(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing preset catalog: %w", err)
	}

	r := &Registry{presets: make(map[models.TemplateID]models.TemplatePreset, len(file.Presets))}
	for _, p := range file.Presets {
		if err := validatePreset(p); err != nil {
			return nil, err
		}
		if _, dup := r.presets[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidPreset, p.ID)
		}
		r.presets[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r, nil
}

func validatePreset(p models.TemplatePreset) error {
	if !p.ID.IsValid() {
		return fmt.Errorf("%w: unknown id %q", ErrInvalidPreset, p.ID)
	}
	for _, slot := range p.Colors.Slots() {
		if !models.IsHexColor(slot[1]) {
			return fmt.Errorf("%w: %s color %s=%q", ErrInvalidPreset, p.ID, slot[0], slot[1])
		}
	}
	if !p.Layout.HeaderStyle.IsValid() {
		return fmt.Errorf("%w: %s header style %q", ErrInvalidPreset, p.ID, p.Layout.HeaderStyle)
	}
	if !p.Layout.MenuLayout.IsValid() {
		return fmt.Errorf("%w: %s menu layout %q", ErrInvalidPreset, p.ID, p.Layout.MenuLayout)
	}
	return nil
}

// Get returns the preset with the given id. Unknown ids never fall back to
// another preset.
func (r *Registry) Get(id models.TemplateID) (models.TemplatePreset, error) {
	p, ok := r.presets[id]
	if !ok {
		return models.TemplatePreset{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return p, nil
}

// List returns every preset in catalog order.
func (r *Registry) List() []models.TemplatePreset {
	out := make([]models.TemplatePreset, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.presets[id])
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry built from the embedded catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(presetsYAML)
		if err != nil {
			panic(fmt.Sprintf("templates: embedded catalog: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Get looks up a preset in the default registry.
func Get(id models.TemplateID) (models.TemplatePreset, error) {
	return Default().Get(id)
}

// List returns the presets of the default registry.
func List() []models.TemplatePreset {
	return Default().List()
}
