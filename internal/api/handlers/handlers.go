// Package handlers implements the HTTP handlers of the site builder API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON decodes the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return apierrors.BadRequest("invalid request body")
	}
	return nil
}

// writeError maps err to a structured response tagged with the request ID.
// Unexpected errors are logged since their message is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := apierrors.From(err).WithRequestID(chimiddleware.GetReqID(r.Context()))
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", apiErr.RequestID,
		)
	}
	apierrors.WriteError(w, apiErr)
}

func siteID(r *http.Request) string {
	return chi.URLParam(r, "siteID")
}

// ConfigSource loads the stored config of a site. A site that has never been
// edited starts from its restaurant profile and the default template.
type ConfigSource struct {
	Configs     store.SiteConfigStore
	Restaurants store.RestaurantStore
	Registry    *templates.Registry

	// mu serializes read-modify-write cycles on stored configs.
	mu sync.Mutex
}

func (s *ConfigSource) registry() *templates.Registry {
	if s.Registry == nil {
		return templates.Default()
	}
	return s.Registry
}

// Load returns the stored config of a site or its seeded defaults.
func (s *ConfigSource) Load(ctx context.Context, siteID string) (models.SiteConfig, error) {
	cfg, err := s.Configs.Get(ctx, siteID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.SiteConfig{}, err
	}

	profile, err := s.Restaurants.Get(ctx, siteID)
	if err != nil {
		return models.SiteConfig{}, err
	}
	preset, err := s.registry().Get(models.TemplateModern)
	if err != nil {
		return models.SiteConfig{}, err
	}
	return siteconfig.Defaults(profile, preset), nil
}

// Update loads the config of a site, applies fn and stores the result if fn
// succeeds.
func (s *ConfigSource) Update(ctx context.Context, siteID string, fn func(models.SiteConfig) (models.SiteConfig, error)) (models.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Load(ctx, siteID)
	if err != nil {
		return models.SiteConfig{}, err
	}
	next, err := fn(cfg)
	if err != nil {
		return models.SiteConfig{}, err
	}
	if err := s.Configs.Save(ctx, siteID, next); err != nil {
		return models.SiteConfig{}, err
	}
	return next, nil
}
