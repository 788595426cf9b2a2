package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
)

// ConfigHandler handles site config HTTP requests.
type ConfigHandler struct {
	source *ConfigSource
	logger *slog.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(source *ConfigSource, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		source: source,
		logger: logger,
	}
}

// ConfigResponse is a config with its current validation result.
type ConfigResponse struct {
	Config     models.SiteConfig           `json:"config"`
	Validation siteconfig.ValidationResult `json:"validation"`
}

func newConfigResponse(cfg models.SiteConfig) ConfigResponse {
	return ConfigResponse{Config: cfg, Validation: siteconfig.Validate(cfg)}
}

// UpdateConfigRequest is either a single field update or a batch.
type UpdateConfigRequest struct {
	Path   string         `json:"path,omitempty"`
	Value  any            `json:"value,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// ApplyTemplateRequest selects a template preset.
type ApplyTemplateRequest struct {
	Template models.TemplateID `json:"template"`
}

// Get handles GET /v1/sites/{siteID}/config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.source.Load(r.Context(), siteID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, newConfigResponse(cfg))
}

// Update handles PATCH /v1/sites/{siteID}/config.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Path == "" && len(req.Fields) == 0 {
		writeError(w, r, h.logger, apierrors.BadRequest("path or fields is required"))
		return
	}

	cfg, err := h.source.Update(r.Context(), siteID(r), func(cfg models.SiteConfig) (models.SiteConfig, error) {
		m := siteconfig.FromConfig(cfg, siteconfig.WithRegistry(h.source.registry()))
		if len(req.Fields) > 0 {
			return m.UpdateFields(req.Fields)
		}
		return m.UpdateField(req.Path, req.Value)
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, newConfigResponse(cfg))
}

// ApplyTemplate handles POST /v1/sites/{siteID}/config/template.
func (h *ConfigHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req ApplyTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Template == "" {
		writeError(w, r, h.logger, apierrors.BadRequest("template is required"))
		return
	}

	preset, err := h.source.registry().Get(req.Template)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cfg, err := h.source.Update(r.Context(), siteID(r), func(cfg models.SiteConfig) (models.SiteConfig, error) {
		return siteconfig.ApplyTemplate(cfg, preset), nil
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, newConfigResponse(cfg))
}

// Validate handles GET /v1/sites/{siteID}/config/validate.
func (h *ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.source.Load(r.Context(), siteID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, siteconfig.Validate(cfg))
}

// Templates handles GET /v1/templates.
func (h *ConfigHandler) Templates(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, h.source.registry().List())
}
