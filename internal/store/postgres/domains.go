package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

const domainColumns = `site_id, domain, ssl_status, error, verified_at, created_at, updated_at`

const (
	getDomainQuery = `
		SELECT ` + domainColumns + `
		FROM domain_bindings
		WHERE site_id = $1`

	getDomainByNameQuery = `
		SELECT ` + domainColumns + `
		FROM domain_bindings
		WHERE domain = $1`

	upsertDomainQuery = `
		INSERT INTO domain_bindings (` + domainColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (site_id) DO UPDATE
		SET domain = EXCLUDED.domain, ssl_status = EXCLUDED.ssl_status, error = EXCLUDED.error,
			verified_at = EXCLUDED.verified_at, updated_at = EXCLUDED.updated_at`

	deleteDomainQuery = `DELETE FROM domain_bindings WHERE site_id = $1`
)

// DomainStore implements store.DomainStore using PostgreSQL.
type DomainStore struct {
	conn   queryable
	logger *slog.Logger
}

// Get retrieves the binding of a site.
func (s *DomainStore) Get(ctx context.Context, siteID string) (*models.DomainBinding, error) {
	return s.get(ctx, getDomainQuery, siteID)
}

// GetByDomain retrieves the binding that owns a domain.
func (s *DomainStore) GetByDomain(ctx context.Context, domain string) (*models.DomainBinding, error) {
	return s.get(ctx, getDomainByNameQuery, domain)
}

func (s *DomainStore) get(ctx context.Context, query, arg string) (*models.DomainBinding, error) {
	b := &models.DomainBinding{}
	var verifiedAt sql.NullTime
	err := s.conn.QueryRowContext(ctx, query, arg).Scan(
		&b.SiteID,
		&b.Domain,
		&b.SSLStatus,
		&b.Error,
		&verifiedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting domain binding: %w", err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		b.VerifiedAt = &t
	}
	return b, nil
}

// Upsert creates or replaces the binding of a site.
func (s *DomainStore) Upsert(ctx context.Context, b *models.DomainBinding) error {
	_, err := s.conn.ExecContext(ctx, upsertDomainQuery,
		b.SiteID,
		b.Domain,
		b.SSLStatus,
		b.Error,
		b.VerifiedAt,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("domain %s: %w", b.Domain, store.ErrDuplicateKey)
		}
		return fmt.Errorf("upserting domain binding: %w", err)
	}
	return nil
}

// Delete removes the binding of a site.
func (s *DomainStore) Delete(ctx context.Context, siteID string) error {
	result, err := s.conn.ExecContext(ctx, deleteDomainQuery, siteID)
	if err != nil {
		return fmt.Errorf("deleting domain binding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
