package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/auth"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/onboarding"
)

// OnboardingHandler creates restaurants and issues their first token.
type OnboardingHandler struct {
	creator onboarding.RestaurantCreator
	source  *ConfigSource
	auth    *auth.Service
	logger  *slog.Logger
}

// NewOnboardingHandler creates a new onboarding handler.
func NewOnboardingHandler(creator onboarding.RestaurantCreator, source *ConfigSource, authSvc *auth.Service, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		creator: creator,
		source:  source,
		auth:    authSvc,
		logger:  logger,
	}
}

// CreateRestaurantResponse is the created restaurant and a token scoped to it.
type CreateRestaurantResponse struct {
	Restaurant models.RestaurantProfile `json:"restaurant"`
	Config     models.SiteConfig        `json:"config"`
	Token      string                   `json:"token"`
}

// CreateRestaurant handles POST /v1/restaurants. The site's config is seeded
// from the profile and the default template.
func (h *OnboardingHandler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var profile models.RestaurantProfile
	if err := decodeJSON(r, &profile); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(profile.Name) == "" {
		writeError(w, r, h.logger, apierrors.BadRequest("name is required"))
		return
	}
	profile.ID = ""

	preset, err := h.source.registry().Get(onboarding.DefaultTemplate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, cfg, err := onboarding.Seed(r.Context(), h.creator, profile, preset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.source.Configs.Save(r.Context(), created.ID, cfg); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.auth.GenerateToken(created.ID, profile.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("restaurant onboarded", "restaurant_id", created.ID)
	apierrors.WriteJSON(w, http.StatusCreated, CreateRestaurantResponse{
		Restaurant: created,
		Config:     cfg,
		Token:      token,
	})
}
