package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

const (
	createRestaurantQuery = `
		INSERT INTO restaurants (id, name, cuisine, description, phone, email, address, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getRestaurantQuery = `
		SELECT id, name, cuisine, description, phone, email, address, city
		FROM restaurants
		WHERE id = $1`
)

// RestaurantStore implements store.RestaurantStore using PostgreSQL.
type RestaurantStore struct {
	conn   queryable
	logger *slog.Logger
}

// Create stores a profile and returns it with its assigned ID.
func (s *RestaurantStore) Create(ctx context.Context, p models.RestaurantProfile) (models.RestaurantProfile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.conn.ExecContext(ctx, createRestaurantQuery,
		p.ID, p.Name, p.Cuisine, p.Description, p.Phone, p.Email, p.Address, p.City)
	if err != nil {
		if isUniqueViolation(err) {
			return models.RestaurantProfile{}, fmt.Errorf("restaurant %s: %w", p.ID, store.ErrDuplicateKey)
		}
		return models.RestaurantProfile{}, fmt.Errorf("inserting restaurant: %w", err)
	}
	return p, nil
}

// Get retrieves a profile by ID.
func (s *RestaurantStore) Get(ctx context.Context, id string) (models.RestaurantProfile, error) {
	var p models.RestaurantProfile
	err := s.conn.QueryRowContext(ctx, getRestaurantQuery, id).Scan(
		&p.ID, &p.Name, &p.Cuisine, &p.Description, &p.Phone, &p.Email, &p.Address, &p.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RestaurantProfile{}, store.ErrNotFound
		}
		return models.RestaurantProfile{}, fmt.Errorf("getting restaurant: %w", err)
	}
	return p, nil
}
