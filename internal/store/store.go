// Package store provides persistence interfaces for site configs, deployment
// history, domain bindings and restaurant profiles.
package store

import (
	"context"
	"errors"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey is returned when a unique value is already taken.
	ErrDuplicateKey = errors.New("duplicate key")
)

// SiteConfigStore persists the editable config of each site.
type SiteConfigStore interface {
	// Get retrieves the config of a site.
	Get(ctx context.Context, siteID string) (models.SiteConfig, error)
	// Save creates or replaces the config of a site.
	Save(ctx context.Context, siteID string, cfg models.SiteConfig) error
	// Delete removes the config of a site.
	Delete(ctx context.Context, siteID string) error
}

// DeploymentStore persists the append-only deployment history.
type DeploymentStore interface {
	// Create stores a new record.
	Create(ctx context.Context, record *models.DeploymentRecord) error
	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*models.DeploymentRecord, error)
	// Update stores the resolution of a record. SubmittedConfig is never
	// rewritten.
	Update(ctx context.Context, record *models.DeploymentRecord) error
	// ListBySite retrieves the history of a site, oldest first.
	ListBySite(ctx context.Context, siteID string) ([]*models.DeploymentRecord, error)
	// ListByStatus retrieves all records with a given status.
	// Used at startup to find deployments interrupted by a crash.
	ListByStatus(ctx context.Context, status models.DeploymentStatus) ([]*models.DeploymentRecord, error)
}

// DomainStore persists custom domain bindings, at most one per site.
type DomainStore interface {
	// Get retrieves the binding of a site.
	Get(ctx context.Context, siteID string) (*models.DomainBinding, error)
	// GetByDomain retrieves the binding that owns a domain.
	GetByDomain(ctx context.Context, domain string) (*models.DomainBinding, error)
	// Upsert creates or replaces the binding of a site. Returns
	// ErrDuplicateKey if another site owns the domain.
	Upsert(ctx context.Context, binding *models.DomainBinding) error
	// Delete removes the binding of a site.
	Delete(ctx context.Context, siteID string) error
}

// RestaurantStore persists restaurant profiles created during onboarding.
type RestaurantStore interface {
	// Create stores a profile and returns it with its assigned ID.
	Create(ctx context.Context, profile models.RestaurantProfile) (models.RestaurantProfile, error)
	// Get retrieves a profile by ID.
	Get(ctx context.Context, id string) (models.RestaurantProfile, error)
}

// Store is the main interface for persistence.
type Store interface {
	// SiteConfigs returns the SiteConfigStore.
	SiteConfigs() SiteConfigStore
	// Deployments returns the DeploymentStore.
	Deployments() DeploymentStore
	// Domains returns the DomainStore.
	Domains() DomainStore
	// Restaurants returns the RestaurantStore.
	Restaurants() RestaurantStore

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Close releases the underlying resources.
	Close() error
}
