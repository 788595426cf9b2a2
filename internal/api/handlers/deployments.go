package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/models"
)

// DeploymentHandler handles deployment-related HTTP requests.
type DeploymentHandler struct {
	source     *ConfigSource
	controller *deploy.Controller
	logger     *slog.Logger
}

// NewDeploymentHandler creates a new deployment handler.
func NewDeploymentHandler(source *ConfigSource, controller *deploy.Controller, logger *slog.Logger) *DeploymentHandler {
	return &DeploymentHandler{
		source:     source,
		controller: controller,
		logger:     logger,
	}
}

// RetryRequest selects the config a retry deploys. By default the failed
// deployment's snapshot is reused.
type RetryRequest struct {
	UseCurrent bool `json:"use_current,omitempty"`
}

// Submit handles POST /v1/sites/{siteID}/deployments - deploys the stored config.
func (h *DeploymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)
	cfg, err := h.source.Load(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	record, err := h.controller.Submit(r.Context(), id, cfg)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusAccepted, record)
}

// Redeploy handles POST /v1/sites/{siteID}/deployments/redeploy.
func (h *DeploymentHandler) Redeploy(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)
	cfg, err := h.source.Load(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	record, err := h.controller.Redeploy(r.Context(), id, cfg)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusAccepted, record)
}

// Retry handles POST /v1/sites/{siteID}/deployments/retry.
func (h *DeploymentHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)
	var req RetryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var override *models.SiteConfig
	if req.UseCurrent {
		cfg, err := h.source.Load(r.Context(), id)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		override = &cfg
	}

	record, err := h.controller.Retry(r.Context(), id, override)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusAccepted, record)
}

// Status handles GET /v1/sites/{siteID}/deployments.
func (h *DeploymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.controller.Status(r.Context(), siteID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, view)
}

// History handles GET /v1/sites/{siteID}/deployments/history.
func (h *DeploymentHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.controller.History(r.Context(), siteID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if history == nil {
		history = []*models.DeploymentRecord{}
	}
	apierrors.WriteJSON(w, http.StatusOK, history)
}
