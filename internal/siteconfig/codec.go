package siteconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// Serialize encodes a config for storage.
func Serialize(cfg models.SiteConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling site config: %w", err)
	}
	return data, nil
}

// Deserialize decodes a stored config and repairs it into a complete value:
// colors are normalized and bad slots fall back to the template defaults,
// as do unknown layout enums. An unknown template is an error since there
// is nothing to fall back to.
func Deserialize(data []byte) (models.SiteConfig, error) {
	return DeserializeWith(templates.Default(), data)
}

// DeserializeWith is Deserialize against a specific registry.
func DeserializeWith(r *templates.Registry, data []byte) (models.SiteConfig, error) {
	var cfg models.SiteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.SiteConfig{}, fmt.Errorf("unmarshaling site config: %w", err)
	}

	preset, err := r.Get(cfg.Template)
	if err != nil {
		return models.SiteConfig{}, &FieldError{Path: "template", Reason: err.Error(), Err: ErrInvalidValue}
	}

	cfg.Colors = RepairColors(cfg.Colors, preset.Colors)
	if !cfg.Layout.HeaderStyle.IsValid() {
		cfg.Layout.HeaderStyle = preset.Layout.HeaderStyle
	}
	if !cfg.Layout.MenuLayout.IsValid() {
		cfg.Layout.MenuLayout = preset.Layout.MenuLayout
	}
	return cfg, nil
}

// RepairColors normalizes each slot of c, replacing invalid slots with the
// corresponding slot of fallback.
func RepairColors(c, fallback models.Colors) models.Colors {
	fix := func(v, def string) string {
		if n, ok := models.NormalizeHexColor(v); ok {
			return n
		}
		return def
	}
	return models.Colors{
		Primary:    fix(c.Primary, fallback.Primary),
		Secondary:  fix(c.Secondary, fallback.Secondary),
		Background: fix(c.Background, fallback.Background),
		Text:       fix(c.Text, fallback.Text),
		Accent:     fix(c.Accent, fallback.Accent),
	}
}

// Fingerprint returns a stable hash of a config. Two configs with the same
// fingerprint serialize to the same bytes.
func Fingerprint(cfg models.SiteConfig) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// SiteConfig contains only strings and bools.
		panic(fmt.Sprintf("siteconfig: fingerprint: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
