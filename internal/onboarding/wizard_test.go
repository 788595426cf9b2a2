package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/hosting"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/preview"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/store/memory"
	"github.com/narvanalabs/sitebuilder/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bellas = models.RestaurantProfile{
	Name:        "Bella's",
	Cuisine:     "Italian",
	Description: "Handmade pasta since 1987",
	Phone:       "+1 555 0100",
	City:        "New York",
}

type fixture struct {
	store      *memory.Store
	controller *deploy.Controller
	wizard     *Wizard
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := memory.New()
	c := deploy.NewController(hosting.NewStubAdapter(), s.Deployments())
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	w := NewWizard(NewRestaurantCreator(s.Restaurants()), c, s.SiteConfigs())
	return fixture{store: s, controller: c, wizard: w}
}

func TestProfileGatesNext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	step, err := f.wizard.Next()
	assert.ErrorIs(t, err, ErrRestaurantRequired)
	assert.Equal(t, StepProfile, step)

	created, err := f.wizard.CompleteProfile(ctx, bellas)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.ID, f.wizard.RestaurantID())
	assert.Equal(t, "Bella's", f.wizard.Config().Content.BrandName)
	assert.Equal(t, "Bella's | New York", f.wizard.Config().SEO.MetaTitle)

	_, err = f.wizard.CompleteProfile(ctx, bellas)
	assert.ErrorIs(t, err, ErrProfileCompleted)

	step, err = f.wizard.Next()
	require.NoError(t, err)
	assert.Equal(t, StepMenuUpload, step)

	_, err = f.wizard.CompleteProfile(ctx, bellas)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestCustomizeRequiresValidConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	noContact := bellas
	noContact.Phone = ""
	_, err := f.wizard.CompleteProfile(ctx, noContact)
	require.NoError(t, err)
	_, err = f.wizard.Next()
	require.NoError(t, err)
	_, err = f.wizard.Next()
	require.NoError(t, err)

	step, err := f.wizard.Next()
	var verr *siteconfig.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{siteconfig.FieldContactInfo}, verr.Missing)
	assert.Equal(t, StepCustomize, step)

	_, err = f.wizard.UpdateField("content.contactInfo.email", "ciao@bellas.example.com")
	require.NoError(t, err)
	step, err = f.wizard.Next()
	require.NoError(t, err)
	assert.Equal(t, StepDeploy, step)

	_, err = f.wizard.Next()
	assert.ErrorIs(t, err, ErrNoNextStep)
}

func TestDeployOnlyOnLastStep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture(t)

	_, err := f.wizard.Deploy(ctx)
	assert.ErrorIs(t, err, ErrWrongStep)

	created, err := f.wizard.CompleteProfile(ctx, bellas)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.wizard.Next()
		require.NoError(t, err)
	}

	rec, err := f.wizard.Deploy(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, rec.SiteID)

	rec, err = f.controller.Wait(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusDeployed, rec.Status)
	assert.Equal(t, "https://bellas.sites.localhost", rec.URL)

	saved, err := f.store.SiteConfigs().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, f.wizard.Config(), saved)
}

func TestExitPersistsWithoutDeploying(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.wizard.Exit(ctx))

	created, err := f.wizard.CompleteProfile(ctx, bellas)
	require.NoError(t, err)
	_, err = f.wizard.UpdateFields(map[string]any{
		"template":        "bold",
		"colors.primary":  "#AA0000",
		"content.tagline": "Open late",
	})
	require.NoError(t, err)
	require.NoError(t, f.wizard.Exit(ctx))

	saved, err := f.store.SiteConfigs().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateBold, saved.Template)
	assert.Equal(t, "#aa0000", saved.Colors.Primary)
	assert.Equal(t, "Open late", saved.Content.Tagline)

	view, err := f.controller.Status(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SiteStateNotDeployed, view.Status)

	// A new session picks up where the owner left off.
	resumed := NewWizard(NewRestaurantCreator(f.store.Restaurants()), f.controller, f.store.SiteConfigs())
	require.NoError(t, resumed.Resume(ctx, created.ID))
	assert.Equal(t, StepCustomize, resumed.Step())
	assert.Equal(t, saved, resumed.Config())

	err = NewWizard(nil, nil, f.store.SiteConfigs()).Resume(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPreviewUsesMenuItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wizard.CompleteProfile(ctx, bellas)
	require.NoError(t, err)

	assert.NotNil(t, f.wizard.Preview().Find(preview.KindEmpty))

	items := []models.MenuItemSample{
		{Name: "Cacio e Pepe", Price: 1450, Category: "Pasta"},
		{Name: "Tiramisu", Price: 900, Category: "Dolci"},
	}
	f.wizard.SetMenuItems(items)
	items[0].Name = "mutated"

	tree := f.wizard.Preview()
	assert.Nil(t, tree.Find(preview.KindEmpty))
	assert.Equal(t, "Cacio e Pepe", f.wizard.MenuItems()[0].Name)
	assert.Equal(t, "Bella's | New York", tree.Title)
}

type failingCreator struct{}

func (failingCreator) CreateRestaurant(ctx context.Context, p models.RestaurantProfile) (models.RestaurantProfile, error) {
	return models.RestaurantProfile{}, errors.New("backend unavailable")
}

func TestCreatorFailureKeepsProfileStep(t *testing.T) {
	w := NewWizard(failingCreator{}, nil, memory.New().SiteConfigs())
	_, err := w.CompleteProfile(context.Background(), bellas)
	require.Error(t, err)
	assert.Empty(t, w.RestaurantID())
	_, err = w.Next()
	assert.ErrorIs(t, err, ErrRestaurantRequired)
}

// *For any* sequence of navigation moves, the config is never lost and the
// step stays within bounds.
func TestNavigationKeepsConfigProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("navigation never discards the config", prop.ForAll(
		func(moves []bool, tagline string) bool {
			ctx := context.Background()
			s := memory.New()
			w := NewWizard(NewRestaurantCreator(s.Restaurants()), nil, s.SiteConfigs())
			if _, err := w.CompleteProfile(ctx, bellas); err != nil {
				return false
			}
			if _, err := w.UpdateField("content.tagline", tagline); err != nil {
				return false
			}
			want := w.Config()

			for _, forward := range moves {
				if forward {
					_, _ = w.Next()
				} else {
					w.Back()
				}
				if w.Step() < StepProfile || w.Step() > StepDeploy {
					return false
				}
			}
			return w.Config() == want
		},
		gen.SliceOf(gen.Bool()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestSeedMatchesWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.wizard.CompleteProfile(ctx, bellas)
	require.NoError(t, err)

	preset, err := templates.Get(DefaultTemplate)
	require.NoError(t, err)
	created, cfg, err := Seed(ctx, NewRestaurantCreator(memory.New().Restaurants()), bellas, preset)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, f.wizard.Config(), cfg)

	_, _, err = Seed(ctx, failingCreator{}, bellas, preset)
	assert.ErrorContains(t, err, "backend unavailable")
}
