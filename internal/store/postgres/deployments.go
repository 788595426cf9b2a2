package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

const deploymentColumns = `id, site_id, provider, status, trigger, submitted_config, config_hash,
			url, error, submitted_at, resolved_at`

const (
	createDeploymentQuery = `
		INSERT INTO deployments (` + deploymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	updateDeploymentQuery = `
		UPDATE deployments
		SET status = $2, url = $3, error = $4, resolved_at = $5
		WHERE id = $1`

	getDeploymentQuery = `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE id = $1`

	listDeploymentsBySiteQuery = `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE site_id = $1
		ORDER BY submitted_at ASC, id ASC`

	listDeploymentsByStatusQuery = `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE status = $1
		ORDER BY submitted_at ASC, id ASC`
)

// DeploymentStore implements store.DeploymentStore using PostgreSQL.
type DeploymentStore struct {
	conn   queryable
	logger *slog.Logger
}

// Create stores a new record.
func (s *DeploymentStore) Create(ctx context.Context, record *models.DeploymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(record.SubmittedConfig)
	if err != nil {
		return fmt.Errorf("marshaling submitted config: %w", err)
	}
	errJSON, err := marshalDeploymentError(record.Error)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, createDeploymentQuery,
		record.ID,
		record.SiteID,
		record.Provider,
		record.Status,
		record.Trigger,
		configJSON,
		record.ConfigHash,
		nullString(record.URL),
		errJSON,
		record.SubmittedAt,
		record.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("deployment for site %s: %w", record.SiteID, store.ErrDuplicateKey)
		}
		return fmt.Errorf("inserting deployment: %w", err)
	}
	return nil
}

// Update stores the resolution of a record.
func (s *DeploymentStore) Update(ctx context.Context, record *models.DeploymentRecord) error {
	errJSON, err := marshalDeploymentError(record.Error)
	if err != nil {
		return err
	}

	result, err := s.conn.ExecContext(ctx, updateDeploymentQuery,
		record.ID,
		record.Status,
		nullString(record.URL),
		errJSON,
		record.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("updating deployment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Get retrieves a record by ID.
func (s *DeploymentStore) Get(ctx context.Context, id string) (*models.DeploymentRecord, error) {
	record, err := scanDeployment(s.conn.QueryRowContext(ctx, getDeploymentQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("querying deployment: %w", err)
	}
	return record, nil
}

// ListBySite retrieves the history of a site, oldest first.
func (s *DeploymentStore) ListBySite(ctx context.Context, siteID string) ([]*models.DeploymentRecord, error) {
	rows, err := s.conn.QueryContext(ctx, listDeploymentsBySiteQuery, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying deployments: %w", err)
	}
	defer rows.Close()
	return scanDeployments(rows)
}

// ListByStatus retrieves all records with a given status.
func (s *DeploymentStore) ListByStatus(ctx context.Context, status models.DeploymentStatus) ([]*models.DeploymentRecord, error) {
	rows, err := s.conn.QueryContext(ctx, listDeploymentsByStatusQuery, status)
	if err != nil {
		return nil, fmt.Errorf("querying deployments by status: %w", err)
	}
	defer rows.Close()
	return scanDeployments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row rowScanner) (*models.DeploymentRecord, error) {
	record := &models.DeploymentRecord{}
	var configJSON, errJSON []byte
	var url sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.SiteID,
		&record.Provider,
		&record.Status,
		&record.Trigger,
		&configJSON,
		&record.ConfigHash,
		&url,
		&errJSON,
		&record.SubmittedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	// The snapshot is decoded verbatim: a retry must resubmit exactly what
	// was stored.
	if err := json.Unmarshal(configJSON, &record.SubmittedConfig); err != nil {
		return nil, fmt.Errorf("unmarshaling submitted config: %w", err)
	}
	if len(errJSON) > 0 {
		record.Error = &models.DeploymentError{}
		if err := json.Unmarshal(errJSON, record.Error); err != nil {
			return nil, fmt.Errorf("unmarshaling deployment error: %w", err)
		}
	}
	if url.Valid {
		record.URL = url.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		record.ResolvedAt = &t
	}
	return record, nil
}

func scanDeployments(rows *sql.Rows) ([]*models.DeploymentRecord, error) {
	var records []*models.DeploymentRecord
	for rows.Next() {
		record, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning deployment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deployments: %w", err)
	}
	return records, nil
}

func marshalDeploymentError(e *models.DeploymentError) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling deployment error: %w", err)
	}
	return data, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
