// Package siteconfig holds the typed site configuration model. It merges
// template presets with user overrides and validates a config before it can
// be deployed. The package performs no I/O so that previews can be
// re-evaluated on every edit.
package siteconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// Missing field names reported by Validate.
const (
	FieldBrandName   = "content.brandName"
	FieldContactInfo = "content.contactInfo"
)

// Model owns a SiteConfig and mutates it only through its update operations.
// Every operation starts from the last complete value, so a rejected update
// leaves the config untouched.
type Model struct {
	registry *templates.Registry
	cfg      models.SiteConfig
}

// Option configures a Model.
type Option func(*Model)

// WithRegistry sets the template registry used to resolve template changes.
func WithRegistry(r *templates.Registry) Option {
	return func(m *Model) {
		m.registry = r
	}
}

// New seeds a model from a restaurant profile and a template preset.
func New(profile models.RestaurantProfile, preset models.TemplatePreset, opts ...Option) *Model {
	m := &Model{registry: templates.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.cfg = Defaults(profile, preset)
	return m
}

// FromConfig wraps an existing complete config, e.g. one restored from storage.
func FromConfig(cfg models.SiteConfig, opts ...Option) *Model {
	m := &Model{registry: templates.Default(), cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Defaults derives a complete config from a profile and preset.
func Defaults(profile models.RestaurantProfile, preset models.TemplatePreset) models.SiteConfig {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "Our Restaurant"
	}

	tagline := strings.TrimSpace(profile.Description)
	if tagline == "" && profile.Cuisine != "" {
		tagline = fmt.Sprintf("%s cuisine", profile.Cuisine)
	}
	if tagline == "" {
		tagline = fmt.Sprintf("Welcome to %s", name)
	}

	city := strings.TrimSpace(profile.City)
	if city == "" {
		city = "Restaurant"
	}

	description := strings.TrimSpace(profile.Description)
	if description == "" {
		description = fmt.Sprintf("Discover the menu of %s.", name)
	}

	return models.SiteConfig{
		Template: preset.ID,
		Colors:   preset.Colors,
		Layout:   preset.Layout,
		Content: models.Content{
			BrandName:    name,
			Tagline:      tagline,
			HeroTitle:    fmt.Sprintf("Welcome to %s", name),
			HeroSubtitle: tagline,
			HeroCTA:      "View Menu",
			ContactInfo: models.ContactInfo{
				Phone:   profile.Phone,
				Email:   profile.Email,
				Address: profile.Address,
			},
		},
		SEO: models.SEO{
			MetaTitle:       fmt.Sprintf("%s | %s", name, city),
			MetaDescription: description,
		},
	}
}

// Config returns a copy of the current config.
func (m *Model) Config() models.SiteConfig {
	return m.cfg
}

// Snapshot returns an independent copy suitable for a deployment record.
// SiteConfig holds no references, so a value copy is a deep copy.
func (m *Model) Snapshot() models.SiteConfig {
	return m.cfg
}

// ApplyTemplate replaces the colors and layout with the preset's defaults.
// Content and SEO are never touched.
func (m *Model) ApplyTemplate(preset models.TemplatePreset) models.SiteConfig {
	m.cfg = ApplyTemplate(m.cfg, preset)
	return m.cfg
}

// ApplyTemplate is the pure form of Model.ApplyTemplate.
func ApplyTemplate(cfg models.SiteConfig, preset models.TemplatePreset) models.SiteConfig {
	cfg.Template = preset.ID
	cfg.Colors = preset.Colors
	cfg.Layout = preset.Layout
	return cfg
}

// UpdateField merges value into the config at a dotted path such as
// "content.brandName" or "colors". Group paths accept a map merged key by
// key. On error the config keeps its previous value.
func (m *Model) UpdateField(path string, value any) (models.SiteConfig, error) {
	next := m.cfg
	if err := m.set(&next, path, value); err != nil {
		return m.cfg, err
	}
	m.cfg = next
	return m.cfg, nil
}

// UpdateFields applies several updates atomically: either all of them are
// stored or none is. Paths are applied in sorted order so that a "template"
// change never overwrites explicit color edits in the same batch.
func (m *Model) UpdateFields(values map[string]any) (models.SiteConfig, error) {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if (paths[i] == "template") != (paths[j] == "template") {
			return paths[i] == "template"
		}
		return paths[i] < paths[j]
	})

	next := m.cfg
	for _, p := range paths {
		if err := m.set(&next, p, values[p]); err != nil {
			return m.cfg, err
		}
	}
	m.cfg = next
	return m.cfg, nil
}

func (m *Model) set(cfg *models.SiteConfig, path string, value any) error {
	if path == "template" {
		s, ok := value.(string)
		if !ok {
			return invalidValue(path, fmt.Sprintf("expected template id, got %T", value))
		}
		preset, err := m.registry.Get(models.TemplateID(s))
		if err != nil {
			return &FieldError{Path: path, Reason: err.Error(), Err: ErrInvalidValue}
		}
		*cfg = ApplyTemplate(*cfg, preset)
		return nil
	}

	if groupFields[path] {
		fields, ok := value.(map[string]any)
		if !ok {
			return invalidValue(path, fmt.Sprintf("expected object, got %T", value))
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := m.set(cfg, path+"."+k, fields[k]); err != nil {
				return err
			}
		}
		return nil
	}

	set, ok := leafFields[path]
	if !ok {
		return unknownField(path)
	}
	return set(cfg, path, value)
}

// ValidationResult reports whether a config may be deployed.
type ValidationResult struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing,omitempty"`
}

// Err returns a *ValidationError when the result is not OK.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Missing: r.Missing}
}

// Validate checks the current config. It never fails; missing fields are
// returned so callers can render inline errors.
func (m *Model) Validate() ValidationResult {
	return Validate(m.cfg)
}

// Validate requires a brand name and at least one contact method.
func Validate(cfg models.SiteConfig) ValidationResult {
	var missing []string
	if strings.TrimSpace(cfg.Content.BrandName) == "" {
		missing = append(missing, FieldBrandName)
	}
	ci := cfg.Content.ContactInfo
	if strings.TrimSpace(ci.Phone) == "" && strings.TrimSpace(ci.Email) == "" && strings.TrimSpace(ci.Address) == "" {
		missing = append(missing, FieldContactInfo)
	}
	return ValidationResult{OK: len(missing) == 0, Missing: missing}
}
