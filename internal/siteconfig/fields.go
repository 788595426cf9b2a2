package siteconfig

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

// setter stores a value at a single leaf path.
type setter func(cfg *models.SiteConfig, path string, v any) error

func stringField(get func(*models.SiteConfig) *string) setter {
	return func(cfg *models.SiteConfig, path string, v any) error {
		s, ok := v.(string)
		if !ok {
			return invalidValue(path, fmt.Sprintf("expected string, got %T", v))
		}
		*get(cfg) = s
		return nil
	}
}

func boolField(get func(*models.SiteConfig) *bool) setter {
	return func(cfg *models.SiteConfig, path string, v any) error {
		switch b := v.(type) {
		case bool:
			*get(cfg) = b
			return nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return invalidValue(path, fmt.Sprintf("expected boolean, got %q", b))
			}
			*get(cfg) = parsed
			return nil
		default:
			return invalidValue(path, fmt.Sprintf("expected boolean, got %T", v))
		}
	}
}

func colorField(get func(*models.SiteConfig) *string) setter {
	return func(cfg *models.SiteConfig, path string, v any) error {
		s, ok := v.(string)
		if !ok {
			return invalidValue(path, fmt.Sprintf("expected color string, got %T", v))
		}
		c, ok := models.NormalizeHexColor(s)
		if !ok {
			return invalidValue(path, fmt.Sprintf("%q is not a #RGB or #RRGGBB color", s))
		}
		*get(cfg) = c
		return nil
	}
}

func headerStyleField(cfg *models.SiteConfig, path string, v any) error {
	s, ok := v.(string)
	if !ok || !models.HeaderStyle(s).IsValid() {
		return invalidValue(path, fmt.Sprintf("header style must be gradient, solid or minimal, got %v", v))
	}
	cfg.Layout.HeaderStyle = models.HeaderStyle(s)
	return nil
}

func menuLayoutField(cfg *models.SiteConfig, path string, v any) error {
	s, ok := v.(string)
	if !ok || !models.MenuLayout(s).IsValid() {
		return invalidValue(path, fmt.Sprintf("menu layout must be grid or list, got %v", v))
	}
	cfg.Layout.MenuLayout = models.MenuLayout(s)
	return nil
}

// leafFields maps every updatable leaf path to its setter. The "template"
// path is handled by the Model since it needs the registry.
var leafFields = map[string]setter{
	"colors.primary":    colorField(func(c *models.SiteConfig) *string { return &c.Colors.Primary }),
	"colors.secondary":  colorField(func(c *models.SiteConfig) *string { return &c.Colors.Secondary }),
	"colors.background": colorField(func(c *models.SiteConfig) *string { return &c.Colors.Background }),
	"colors.text":       colorField(func(c *models.SiteConfig) *string { return &c.Colors.Text }),
	"colors.accent":     colorField(func(c *models.SiteConfig) *string { return &c.Colors.Accent }),

	"layout.headerStyle":  headerStyleField,
	"layout.menuLayout":   menuLayoutField,
	"layout.showHero":     boolField(func(c *models.SiteConfig) *bool { return &c.Layout.ShowHero }),
	"layout.showFeatures": boolField(func(c *models.SiteConfig) *bool { return &c.Layout.ShowFeatures }),
	"layout.showGallery":  boolField(func(c *models.SiteConfig) *bool { return &c.Layout.ShowGallery }),

	"content.brandName":           stringField(func(c *models.SiteConfig) *string { return &c.Content.BrandName }),
	"content.tagline":             stringField(func(c *models.SiteConfig) *string { return &c.Content.Tagline }),
	"content.heroTitle":           stringField(func(c *models.SiteConfig) *string { return &c.Content.HeroTitle }),
	"content.heroSubtitle":        stringField(func(c *models.SiteConfig) *string { return &c.Content.HeroSubtitle }),
	"content.heroCTA":             stringField(func(c *models.SiteConfig) *string { return &c.Content.HeroCTA }),
	"content.contactInfo.phone":   stringField(func(c *models.SiteConfig) *string { return &c.Content.ContactInfo.Phone }),
	"content.contactInfo.email":   stringField(func(c *models.SiteConfig) *string { return &c.Content.ContactInfo.Email }),
	"content.contactInfo.address": stringField(func(c *models.SiteConfig) *string { return &c.Content.ContactInfo.Address }),

	"seo.metaTitle":       stringField(func(c *models.SiteConfig) *string { return &c.SEO.MetaTitle }),
	"seo.metaDescription": stringField(func(c *models.SiteConfig) *string { return &c.SEO.MetaDescription }),
}

// groupFields are paths that accept an object merged key by key.
var groupFields = map[string]bool{
	"colors":              true,
	"layout":              true,
	"content":             true,
	"content.contactInfo": true,
	"seo":                 true,
}

// FieldPaths returns every leaf path accepted by UpdateField, sorted.
func FieldPaths() []string {
	paths := make([]string, 0, len(leafFields)+1)
	paths = append(paths, "template")
	for p := range leafFields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsKnownPath reports whether path can be updated.
func IsKnownPath(path string) bool {
	if path == "template" || groupFields[path] {
		return true
	}
	_, ok := leafFields[path]
	return ok
}
