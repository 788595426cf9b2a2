// Package onboarding walks a restaurant owner from profile creation to the
// first deployment of their site.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/preview"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

var (
	// ErrRestaurantRequired is returned when leaving the profile step before
	// the restaurant exists.
	ErrRestaurantRequired = errors.New("restaurant profile must be completed first")

	// ErrNoNextStep is returned by Next on the last step.
	ErrNoNextStep = errors.New("no next onboarding step")

	// ErrWrongStep is returned for operations not available on the current step.
	ErrWrongStep = errors.New("operation not available on this step")

	// ErrProfileCompleted is returned when the restaurant was already created.
	ErrProfileCompleted = errors.New("restaurant profile already completed")
)

// Step is a stage of the onboarding flow.
type Step int

const (
	StepProfile Step = iota
	StepMenuUpload
	StepCustomize
	StepDeploy
)

func (s Step) String() string {
	switch s {
	case StepProfile:
		return "profile"
	case StepMenuUpload:
		return "menu_upload"
	case StepCustomize:
		return "customize"
	case StepDeploy:
		return "deploy"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// RestaurantCreator creates the restaurant behind a profile and returns it
// with its assigned ID.
type RestaurantCreator interface {
	CreateRestaurant(ctx context.Context, profile models.RestaurantProfile) (models.RestaurantProfile, error)
}

// Deployer submits a config for deployment.
type Deployer interface {
	Submit(ctx context.Context, siteID string, cfg models.SiteConfig) (models.DeploymentRecord, error)
}

// DefaultTemplate is the preset new sites start from.
const DefaultTemplate = models.TemplateModern

// Seed creates the restaurant behind profile and derives the site's first
// config from it and preset.
func Seed(ctx context.Context, creator RestaurantCreator, profile models.RestaurantProfile, preset models.TemplatePreset) (models.RestaurantProfile, models.SiteConfig, error) {
	created, err := creator.CreateRestaurant(ctx, profile)
	if err != nil {
		return models.RestaurantProfile{}, models.SiteConfig{}, fmt.Errorf("creating restaurant: %w", err)
	}
	if created.ID == "" {
		return models.RestaurantProfile{}, models.SiteConfig{}, fmt.Errorf("creating restaurant: %w", ErrRestaurantRequired)
	}
	return created, siteconfig.Defaults(created, preset), nil
}

type storeCreator struct {
	restaurants store.RestaurantStore
}

// NewRestaurantCreator returns a RestaurantCreator backed by a store.
func NewRestaurantCreator(restaurants store.RestaurantStore) RestaurantCreator {
	return storeCreator{restaurants: restaurants}
}

func (c storeCreator) CreateRestaurant(ctx context.Context, profile models.RestaurantProfile) (models.RestaurantProfile, error) {
	return c.restaurants.Create(ctx, profile)
}

// Wizard holds the state of one onboarding session. The config survives
// navigation in both directions.
type Wizard struct {
	creator  RestaurantCreator
	deployer Deployer
	configs  store.SiteConfigStore
	preset   models.TemplateID
	logger   *slog.Logger

	mu           sync.Mutex
	step         Step
	restaurantID string
	model        *siteconfig.Model
	items        []models.MenuItemSample
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithTemplate sets the preset new sites start from.
func WithTemplate(id models.TemplateID) Option {
	return func(w *Wizard) {
		w.preset = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// NewWizard starts a session on the profile step.
func NewWizard(creator RestaurantCreator, deployer Deployer, configs store.SiteConfigStore, opts ...Option) *Wizard {
	w := &Wizard{
		creator:  creator,
		deployer: deployer,
		configs:  configs,
		preset:   DefaultTemplate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("component", "onboarding")
	w.model = siteconfig.New(models.RestaurantProfile{}, w.template())
	return w
}

func (w *Wizard) template() models.TemplatePreset {
	preset, err := templates.Get(w.preset)
	if err != nil {
		w.logger.Warn("unknown template, using modern", "template", w.preset)
		preset, _ = templates.Get(DefaultTemplate)
	}
	return preset
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// RestaurantID returns the ID of the created restaurant, or "".
func (w *Wizard) RestaurantID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.restaurantID
}

// CompleteProfile creates the restaurant and seeds the config from it.
func (w *Wizard) CompleteProfile(ctx context.Context, profile models.RestaurantProfile) (models.RestaurantProfile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepProfile {
		return models.RestaurantProfile{}, ErrWrongStep
	}
	if w.restaurantID != "" {
		return models.RestaurantProfile{}, ErrProfileCompleted
	}

	created, cfg, err := Seed(ctx, w.creator, profile, w.template())
	if err != nil {
		return models.RestaurantProfile{}, err
	}

	w.restaurantID = created.ID
	w.model = siteconfig.FromConfig(cfg)
	w.logger.Info("restaurant created", "restaurant_id", created.ID, "name", created.Name)
	return created, nil
}

// Resume continues a session for an existing restaurant from its saved
// config, on the customize step.
func (w *Wizard) Resume(ctx context.Context, restaurantID string) error {
	cfg, err := w.configs.Get(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.restaurantID = restaurantID
	w.model = siteconfig.FromConfig(cfg)
	w.step = StepCustomize
	return nil
}

// Next advances one step if the current step is complete.
func (w *Wizard) Next() (Step, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepProfile:
		if w.restaurantID == "" {
			return w.step, ErrRestaurantRequired
		}
	case StepCustomize:
		if err := w.model.Validate().Err(); err != nil {
			return w.step, err
		}
	case StepDeploy:
		return w.step, ErrNoNextStep
	}
	w.step++
	return w.step, nil
}

// Back returns to the previous step. It is a no-op on the first step.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepProfile {
		w.step--
	}
	return w.step
}

// Config returns the current config.
func (w *Wizard) Config() models.SiteConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Config()
}

// UpdateField edits the config. See siteconfig.Model.UpdateField.
func (w *Wizard) UpdateField(path string, value any) (models.SiteConfig, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.UpdateField(path, value)
}

// UpdateFields edits several fields at once. See siteconfig.Model.UpdateFields.
func (w *Wizard) UpdateFields(values map[string]any) (models.SiteConfig, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.UpdateFields(values)
}

// Validate reports whether the config can be deployed.
func (w *Wizard) Validate() siteconfig.ValidationResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Validate()
}

// SetMenuItems replaces the sample items shown in previews.
func (w *Wizard) SetMenuItems(items []models.MenuItemSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append([]models.MenuItemSample(nil), items...)
}

// MenuItems returns the sample items.
func (w *Wizard) MenuItems() []models.MenuItemSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.MenuItemSample(nil), w.items...)
}

// Preview renders the current config with the sample items.
func (w *Wizard) Preview() *preview.Tree {
	w.mu.Lock()
	defer w.mu.Unlock()
	return preview.Render(w.model.Config(), w.items)
}

// Deploy saves the config and submits it. Only available on the last step.
func (w *Wizard) Deploy(ctx context.Context) (models.DeploymentRecord, error) {
	w.mu.Lock()
	if w.step != StepDeploy {
		w.mu.Unlock()
		return models.DeploymentRecord{}, ErrWrongStep
	}
	id, cfg := w.restaurantID, w.model.Snapshot()
	w.mu.Unlock()

	if err := w.configs.Save(ctx, id, cfg); err != nil {
		return models.DeploymentRecord{}, fmt.Errorf("saving config: %w", err)
	}
	rec, err := w.deployer.Submit(ctx, id, cfg)
	if err != nil {
		return models.DeploymentRecord{}, err
	}
	w.logger.Info("first deployment submitted", "restaurant_id", id, "deployment_id", rec.ID)
	return rec, nil
}

// Exit saves the config so the owner can come back later. Nothing is saved
// before the restaurant exists.
func (w *Wizard) Exit(ctx context.Context) error {
	w.mu.Lock()
	id, cfg := w.restaurantID, w.model.Snapshot()
	w.mu.Unlock()

	if id == "" {
		return nil
	}
	if err := w.configs.Save(ctx, id, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	w.logger.Info("onboarding exited", "restaurant_id", id)
	return nil
}
