package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/resource"
)

// MenuCatalog holds the sample menu items of each site, used to populate
// previews. Items are keyed by their lowercased name.
type MenuCatalog struct {
	mu    sync.Mutex
	lists map[string]*resource.List[models.MenuItemSample]
}

// NewMenuCatalog creates an empty catalog.
func NewMenuCatalog() *MenuCatalog {
	return &MenuCatalog{lists: make(map[string]*resource.List[models.MenuItemSample])}
}

// MenuItemKey returns the key of a menu item.
func MenuItemKey(item models.MenuItemSample) string {
	return strings.ToLower(strings.TrimSpace(item.Name))
}

func validateMenuItem(item models.MenuItemSample) error {
	if item.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

func matchMenuItem(item models.MenuItemSample, query string) bool {
	for _, s := range []string{item.Name, item.Category, item.Description} {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// Site returns the item list of a site, creating it on first use.
func (c *MenuCatalog) Site(siteID string) *resource.List[models.MenuItemSample] {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[siteID]
	if !ok {
		l = resource.New("menu item", MenuItemKey,
			resource.WithMatcher(matchMenuItem),
			resource.WithValidator(validateMenuItem),
		)
		c.lists[siteID] = l
	}
	return l
}

// Items returns the items of a site in insertion order.
func (c *MenuCatalog) Items(siteID string) []models.MenuItemSample {
	items, _ := c.Site(siteID).List()
	return items
}

// MenuHandler handles menu item HTTP requests.
type MenuHandler struct {
	catalog *MenuCatalog
	logger  *slog.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(catalog *MenuCatalog, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// List handles GET /v1/sites/{siteID}/menu-items. The optional q parameter
// filters by name, category and description.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Site(siteID(r)).Filter(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, items)
}

// Create handles POST /v1/sites/{siteID}/menu-items.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.MenuItemSample
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.catalog.Site(siteID(r)).Create(item); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, item)
}

// Replace handles PUT /v1/sites/{siteID}/menu-items.
func (h *MenuHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var items []models.MenuItemSample
	if err := decodeJSON(r, &items); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list := h.catalog.Site(siteID(r))
	if err := list.Replace(items); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, _ := list.List()
	apierrors.WriteJSON(w, http.StatusOK, out)
}

// Update handles PATCH /v1/sites/{siteID}/menu-items/{name}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.MenuItemSample
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	item, err := h.catalog.Site(siteID(r)).Edit(strings.ToLower(chi.URLParam(r, "name")), func(item *models.MenuItemSample) {
		if patch.Name != "" {
			item.Name = patch.Name
		}
		if patch.Description != "" {
			item.Description = patch.Description
		}
		if patch.Category != "" {
			item.Category = patch.Category
		}
		if patch.ImageURL != "" {
			item.ImageURL = patch.ImageURL
		}
		if patch.Price != 0 {
			item.Price = patch.Price
		}
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /v1/sites/{siteID}/menu-items/{name}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Site(siteID(r)).Delete(strings.ToLower(chi.URLParam(r, "name"))); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
