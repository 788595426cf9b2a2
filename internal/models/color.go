package models

import (
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-f]{3}|[0-9a-f]{6})$`)

// NormalizeHexColor trims, lowercases and prefixes "#" onto s, and reports
// whether the result is a valid "#rgb" or "#rrggbb" color.
func NormalizeHexColor(s string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(s))
	if c == "" {
		return "", false
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if !hexColorPattern.MatchString(c) {
		return "", false
	}
	return c, true
}

// IsHexColor reports whether s is already a normalized hex color.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Slots returns the palette as ordered name/value pairs.
func (c Colors) Slots() [][2]string {
	return [][2]string{
		{"primary", c.Primary},
		{"secondary", c.Secondary},
		{"background", c.Background},
		{"text", c.Text},
		{"accent", c.Accent},
	}
}
