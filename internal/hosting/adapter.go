// Package hosting defines the boundary to external hosting providers. The
// deployment controller and domain manager only talk to an Adapter; real
// provider integrations live behind it.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

// ErrUnsupportedProvider is returned by New for providers without an adapter.
var ErrUnsupportedProvider = errors.New("unsupported hosting provider")

// DeployResult is what a provider reports for a successful deployment.
type DeployResult struct {
	URL string `json:"url"`
}

// Adapter publishes site configs to a hosting provider.
//
// Each call must report a terminal result exactly once: either a result or
// an error, never both and never a second time.
type Adapter interface {
	// Deploy publishes cfg for siteID and blocks until the provider reports
	// the live URL or fails.
	Deploy(ctx context.Context, siteID string, cfg models.SiteConfig) (DeployResult, error)
	// BindDomain attaches a custom domain and returns the initial SSL status.
	// Providers that provision certificates asynchronously return pending and
	// report the final status through a callback.
	BindDomain(ctx context.Context, siteID, domain string) (models.SSLStatus, error)
	// Name returns the provider this adapter talks to.
	Name() models.Provider
}

// Slug turns a brand name into a DNS label: lowercase letters, digits and
// single hyphens, at most 63 characters.
func Slug(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			hyphen = false
		case r == '\'' || r == '’':
			// "Bella's" -> "bellas"
		default:
			if b.Len() > 0 && !hyphen {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > 63 {
		out = strings.TrimRight(out[:63], "-")
	}
	return out
}

// SiteURL builds the default provider URL for a site.
func SiteURL(baseDomain, brandName, siteID string) string {
	label := Slug(brandName)
	if label == "" {
		label = Slug(siteID)
	}
	return fmt.Sprintf("https://%s.%s", label, baseDomain)
}
