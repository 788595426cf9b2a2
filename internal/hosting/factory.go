package hosting

import (
	"fmt"
	"log/slog"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/pkg/config"
)

// New returns the adapter selected by cfg.Provider. Only the stub has a
// built-in adapter; netlify, vercel and cloudflare return
// ErrUnsupportedProvider.
func New(cfg config.DeployConfig, logger *slog.Logger) (Adapter, error) {
	provider := models.Provider(cfg.Provider)
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	switch provider {
	case models.ProviderStub:
		return NewStubAdapter(
			WithBaseDomain(cfg.StubBaseDomain),
			WithDelay(cfg.StubDelay),
			WithStubLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("%w: %s has no built-in adapter", ErrUnsupportedProvider, provider)
	}
}
