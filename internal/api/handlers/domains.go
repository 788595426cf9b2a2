package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/domains"
	"github.com/narvanalabs/sitebuilder/internal/models"
)

// DomainHandler handles custom domain HTTP requests.
type DomainHandler struct {
	manager *domains.Manager
	logger  *slog.Logger
}

// NewDomainHandler creates a new domain handler.
func NewDomainHandler(manager *domains.Manager, logger *slog.Logger) *DomainHandler {
	return &DomainHandler{
		manager: manager,
		logger:  logger,
	}
}

// BindDomainRequest represents the request body for binding a domain.
type BindDomainRequest struct {
	Domain string `json:"domain"`
}

// DomainResponse is a binding with the URL the site is reachable at.
type DomainResponse struct {
	Binding   *models.DomainBinding `json:"binding,omitempty"`
	PublicURL string                `json:"public_url,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// SSLStatusRequest is the provider's certificate provisioning callback.
type SSLStatusRequest struct {
	SiteID  string           `json:"site_id"`
	Status  models.SSLStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

// Bind handles PUT /v1/sites/{siteID}/domain.
func (h *DomainHandler) Bind(w http.ResponseWriter, r *http.Request) {
	var req BindDomainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	binding, err := h.manager.Bind(r.Context(), siteID(r), req.Domain)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusAccepted, DomainResponse{Binding: &binding})
}

// Get handles GET /v1/sites/{siteID}/domain. A site without a binding still
// reports its public URL.
func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)
	var resp DomainResponse

	binding, err := h.manager.Binding(r.Context(), id)
	switch {
	case err == nil:
		resp.Binding = &binding
		if bindErr := domains.Err(&binding); bindErr != nil {
			resp.Error = bindErr.Error()
		}
	case errors.Is(err, domains.ErrNotBound):
	default:
		writeError(w, r, h.logger, err)
		return
	}

	resp.PublicURL, err = h.manager.PublicURL(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, resp)
}

// Unbind handles DELETE /v1/sites/{siteID}/domain.
func (h *DomainHandler) Unbind(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Unbind(r.Context(), siteID(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SSLCallback handles POST /v1/hooks/ssl.
func (h *DomainHandler) SSLCallback(w http.ResponseWriter, r *http.Request) {
	var req SSLStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.SiteID == "" {
		writeError(w, r, h.logger, apierrors.BadRequest("site_id is required"))
		return
	}

	binding, err := h.manager.HandleSSLStatus(r.Context(), req.SiteID, req.Status, req.Message)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, DomainResponse{Binding: &binding})
}
