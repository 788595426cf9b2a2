package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteConfigs(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.SiteConfigs().Get(ctx, "site-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cfg := testutil.BellasConfig()
	require.NoError(t, s.SiteConfigs().Save(ctx, "site-1", cfg))
	got, err := s.SiteConfigs().Get(ctx, "site-1")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	require.NoError(t, s.SiteConfigs().Delete(ctx, "site-1"))
	assert.ErrorIs(t, s.SiteConfigs().Delete(ctx, "site-1"), store.ErrNotFound)
}

func TestDeploymentHistoryOrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []models.DeploymentStatus{models.DeploymentStatusDeployed, models.DeploymentStatusFailed, models.DeploymentStatusDeploying} {
		r := &models.DeploymentRecord{
			SiteID:          "site-1",
			Status:          status,
			SubmittedConfig: testutil.BellasConfig(),
			SubmittedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Deployments().Create(ctx, r))
		assert.NotEmpty(t, r.ID)
	}
	require.NoError(t, s.Deployments().Create(ctx, &models.DeploymentRecord{SiteID: "site-2", SubmittedAt: base}))

	history, err := s.Deployments().ListBySite(ctx, "site-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.DeploymentStatusDeployed, history[0].Status)
	assert.Equal(t, models.DeploymentStatusDeploying, history[2].Status)

	// Mutating a returned record must not leak into the store.
	history[0].URL = "https://mutated.example.com"
	again, _ := s.Deployments().Get(ctx, history[0].ID)
	assert.Empty(t, again.URL)

	inFlight, err := s.Deployments().ListByStatus(ctx, models.DeploymentStatusDeploying)
	require.NoError(t, err)
	assert.Len(t, inFlight, 1)
}

func TestDeploymentOneInFlightPerSite(t *testing.T) {
	ctx := context.Background()
	s := New()
	deploying := func(site string) *models.DeploymentRecord {
		return &models.DeploymentRecord{SiteID: site, Status: models.DeploymentStatusDeploying}
	}

	require.NoError(t, s.Deployments().Create(ctx, deploying("site-1")))
	assert.ErrorIs(t, s.Deployments().Create(ctx, deploying("site-1")), store.ErrDuplicateKey)
	assert.NoError(t, s.Deployments().Create(ctx, deploying("site-2")))
}

func TestDeploymentUpdateKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := &models.DeploymentRecord{SiteID: "site-1", SubmittedConfig: testutil.BellasConfig(), ConfigHash: "abc"}
	require.NoError(t, s.Deployments().Create(ctx, r))

	r.Status = models.DeploymentStatusDeployed
	r.URL = "https://bellas.example.com"
	r.SubmittedConfig.Content.BrandName = "changed"
	r.ConfigHash = "def"
	require.NoError(t, s.Deployments().Update(ctx, r))

	got, err := s.Deployments().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://bellas.example.com", got.URL)
	assert.Equal(t, "Bella's", got.SubmittedConfig.Content.BrandName)
	assert.Equal(t, "abc", got.ConfigHash)

	assert.ErrorIs(t, s.Deployments().Update(ctx, &models.DeploymentRecord{ID: "missing"}), store.ErrNotFound)
}

func TestDomainsUniqueAcrossSites(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Domains().Upsert(ctx, &models.DomainBinding{SiteID: "site-1", Domain: "bellas.com"}))
	require.NoError(t, s.Domains().Upsert(ctx, &models.DomainBinding{SiteID: "site-1", Domain: "bellas.com", SSLStatus: models.SSLStatusActive}))

	err := s.Domains().Upsert(ctx, &models.DomainBinding{SiteID: "site-2", Domain: "bellas.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	b, err := s.Domains().GetByDomain(ctx, "bellas.com")
	require.NoError(t, err)
	assert.Equal(t, "site-1", b.SiteID)
	assert.Equal(t, models.SSLStatusActive, b.SSLStatus)

	require.NoError(t, s.Domains().Delete(ctx, "site-1"))
	_, err = s.Domains().Get(ctx, "site-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Store) error {
		if err := tx.SiteConfigs().Save(ctx, "site-1", testutil.BellasConfig()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = s.SiteConfigs().Get(ctx, "site-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Store) error {
		return tx.SiteConfigs().Save(ctx, "site-1", testutil.BellasConfig())
	}))
	_, err = s.SiteConfigs().Get(ctx, "site-1")
	assert.NoError(t, err)
}

func TestRestaurants(t *testing.T) {
	ctx := context.Background()
	s := New()

	p, err := s.Restaurants().Create(ctx, models.RestaurantProfile{Name: "Bella's"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := s.Restaurants().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bella's", got.Name)

	_, err = s.Restaurants().Create(ctx, p)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}
