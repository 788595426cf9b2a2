package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/metrics"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/preview"
)

// PreviewHandler renders site previews.
type PreviewHandler struct {
	source  *ConfigSource
	catalog *MenuCatalog
	logger  *slog.Logger
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(source *ConfigSource, catalog *MenuCatalog, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		source:  source,
		catalog: catalog,
		logger:  logger,
	}
}

// PreviewRequest carries optional menu items. Without items the site's stored
// sample menu is used.
type PreviewRequest struct {
	Items  []models.MenuItemSample `json:"items,omitempty"`
	Config *models.SiteConfig      `json:"config,omitempty"`
}

// Render handles POST /v1/sites/{siteID}/preview. The response is the render
// tree as JSON, or an HTML document when format=html.
func (h *PreviewHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var cfg models.SiteConfig
	if req.Config != nil {
		cfg = *req.Config
	} else {
		var err error
		cfg, err = h.source.Load(r.Context(), siteID(r))
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	items := req.Items
	if items == nil && h.catalog != nil {
		items = h.catalog.Items(siteID(r))
	}

	tree := preview.Render(cfg, items)
	metrics.PreviewRenders.Inc()

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := preview.WriteHTML(w, tree); err != nil {
			h.logger.Warn("failed to write preview", "error", err, "site_id", siteID(r))
		}
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, tree)
}
