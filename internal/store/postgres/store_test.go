package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet SQL expectations: %v", err)
		}
		db.Close()
	})
	return New(db, nil), mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func TestSiteConfigGetRepairsColors(t *testing.T) {
	s, mock := newMockStore(t)
	cfg := testutil.BellasConfig()
	cfg.Colors.Primary = "FF0000"
	data, _ := json.Marshal(cfg)

	mock.ExpectQuery(q(getSiteConfigQuery)).
		WithArgs("site-1").
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow(data))

	got, err := s.SiteConfigs().Get(context.Background(), "site-1")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", got.Colors.Primary)
	assert.Equal(t, cfg.Content, got.Content)
}

func TestSiteConfigGetNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(q(getSiteConfigQuery)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.SiteConfigs().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSiteConfigSave(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(saveSiteConfigQuery)).
		WithArgs("site-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SiteConfigs().Save(context.Background(), "site-1", testutil.BellasConfig()))
}

func TestSiteConfigDeleteNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(deleteSiteConfigQuery)).
		WithArgs("site-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.SiteConfigs().Delete(context.Background(), "site-1"), store.ErrNotFound)
}

func deploymentRow(r *models.DeploymentRecord) []driver.Value {
	configJSON, _ := json.Marshal(r.SubmittedConfig)
	var errJSON []byte
	if r.Error != nil {
		errJSON, _ = json.Marshal(r.Error)
	}
	var url any
	if r.URL != "" {
		url = r.URL
	}
	var resolved any
	if r.ResolvedAt != nil {
		resolved = *r.ResolvedAt
	}
	return []driver.Value{r.ID, r.SiteID, string(r.Provider), string(r.Status), string(r.Trigger),
		configJSON, r.ConfigHash, url, errJSON, r.SubmittedAt, resolved}
}

var deploymentRowColumns = []string{"id", "site_id", "provider", "status", "trigger",
	"submitted_config", "config_hash", "url", "error", "submitted_at", "resolved_at"}

func TestDeploymentCreateAssignsID(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(createDeploymentQuery)).
		WithArgs(sqlmock.AnyArg(), "site-1", "stub", "deploying", "submit",
			sqlmock.AnyArg(), "hash", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := &models.DeploymentRecord{
		SiteID:          "site-1",
		Provider:        models.ProviderStub,
		Status:          models.DeploymentStatusDeploying,
		Trigger:         models.TriggerSubmit,
		SubmittedConfig: testutil.BellasConfig(),
		ConfigHash:      "hash",
	}
	require.NoError(t, s.Deployments().Create(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.SubmittedAt.IsZero())
}

func TestDeploymentCreateSecondInFlightIsDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(createDeploymentQuery)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.Deployments().Create(context.Background(), &models.DeploymentRecord{SiteID: "site-1"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestDeploymentListBySiteDecodesRecords(t *testing.T) {
	s, mock := newMockStore(t)
	submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	resolved := submitted.Add(time.Minute)

	ok := &models.DeploymentRecord{
		ID: "d1", SiteID: "site-1", Provider: models.ProviderStub,
		Status: models.DeploymentStatusDeployed, Trigger: models.TriggerSubmit,
		SubmittedConfig: testutil.BellasConfig(), ConfigHash: "h1",
		URL: "https://bellas.example.com", SubmittedAt: submitted, ResolvedAt: &resolved,
	}
	failed := &models.DeploymentRecord{
		ID: "d2", SiteID: "site-1", Provider: models.ProviderStub,
		Status: models.DeploymentStatusFailed, Trigger: models.TriggerRedeploy,
		SubmittedConfig: testutil.BellasConfig(), ConfigHash: "h1",
		Error:       &models.DeploymentError{Code: models.DeploymentErrorProvider, Message: "build failed", Cause: "boom"},
		SubmittedAt: resolved, ResolvedAt: &resolved,
	}

	mock.ExpectQuery(q(listDeploymentsBySiteQuery)).
		WithArgs("site-1").
		WillReturnRows(sqlmock.NewRows(deploymentRowColumns).
			AddRow(deploymentRow(ok)...).
			AddRow(deploymentRow(failed)...))

	records, err := s.Deployments().ListBySite(context.Background(), "site-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ok, records[0])
	assert.Equal(t, failed, records[1])
}

func TestDeploymentUpdateNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(updateDeploymentQuery)).
		WithArgs("d1", "failed", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now()
	err := s.Deployments().Update(context.Background(), &models.DeploymentRecord{
		ID:         "d1",
		Status:     models.DeploymentStatusFailed,
		Error:      &models.DeploymentError{Code: models.DeploymentErrorTimeout, Cause: "Timeout"},
		ResolvedAt: &now,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeploymentGetNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(q(getDeploymentQuery)).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := s.Deployments().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDomainUpsertDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(upsertDomainQuery)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.Domains().Upsert(context.Background(), &models.DomainBinding{SiteID: "site-2", Domain: "bellas.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestDomainGet(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q(getDomainQuery)).
		WithArgs("site-1").
		WillReturnRows(sqlmock.NewRows([]string{"site_id", "domain", "ssl_status", "error", "verified_at", "created_at", "updated_at"}).
			AddRow("site-1", "bellas.com", "active", "", now, now, now))

	b, err := s.Domains().Get(context.Background(), "site-1")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusActive, b.SSLStatus)
	require.NotNil(t, b.VerifiedAt)
	assert.Equal(t, now, *b.VerifiedAt)
}

func TestRestaurantCreateAndGet(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(createRestaurantQuery)).
		WithArgs(sqlmock.AnyArg(), "Bella's", "Italian", "", "", "", "", "New York").
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := s.Restaurants().Create(context.Background(), models.RestaurantProfile{Name: "Bella's", Cuisine: "Italian", City: "New York"})
	require.NoError(t, err)

	mock.ExpectQuery(q(getRestaurantQuery)).
		WithArgs(p.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "cuisine", "description", "phone", "email", "address", "city"}).
			AddRow(p.ID, "Bella's", "Italian", "", "", "", "", "New York"))

	got, err := s.Restaurants().Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestWithTxCommitAndRollback(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(saveSiteConfigQuery)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx store.Store) error {
		return tx.SiteConfigs().Save(context.Background(), "site-1", testutil.BellasConfig())
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = s.WithTx(context.Background(), func(tx store.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
}
