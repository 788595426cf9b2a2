package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

const (
	getSiteConfigQuery = `SELECT config FROM site_configs WHERE site_id = $1`

	saveSiteConfigQuery = `
		INSERT INTO site_configs (site_id, config, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (site_id) DO UPDATE
		SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`

	deleteSiteConfigQuery = `DELETE FROM site_configs WHERE site_id = $1`
)

// SiteConfigStore implements store.SiteConfigStore using PostgreSQL.
type SiteConfigStore struct {
	conn   queryable
	logger *slog.Logger
}

// Get retrieves the config of a site. Stored colors are repaired against the
// template defaults on the way out.
func (s *SiteConfigStore) Get(ctx context.Context, siteID string) (models.SiteConfig, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx, getSiteConfigQuery, siteID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SiteConfig{}, store.ErrNotFound
		}
		return models.SiteConfig{}, fmt.Errorf("querying site config: %w", err)
	}

	cfg, err := siteconfig.Deserialize(data)
	if err != nil {
		return models.SiteConfig{}, fmt.Errorf("decoding site config %s: %w", siteID, err)
	}
	return cfg, nil
}

// Save creates or replaces the config of a site.
func (s *SiteConfigStore) Save(ctx context.Context, siteID string, cfg models.SiteConfig) error {
	data, err := siteconfig.Serialize(cfg)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, saveSiteConfigQuery, siteID, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving site config: %w", err)
	}
	return nil
}

// Delete removes the config of a site.
func (s *SiteConfigStore) Delete(ctx context.Context, siteID string) error {
	result, err := s.conn.ExecContext(ctx, deleteSiteConfigQuery, siteID)
	if err != nil {
		return fmt.Errorf("deleting site config: %w", err)
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
