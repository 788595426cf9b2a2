// Package memory provides an in-process implementation of the store
// interfaces. It is used in development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

type state struct {
	configs     map[string]models.SiteConfig
	deployments map[string]*models.DeploymentRecord
	// order keeps insertion order so history is stable for equal timestamps.
	order       []string
	domains     map[string]*models.DomainBinding
	restaurants map[string]models.RestaurantProfile
}

func newState() *state {
	return &state{
		configs:     make(map[string]models.SiteConfig),
		deployments: make(map[string]*models.DeploymentRecord),
		domains:     make(map[string]*models.DomainBinding),
		restaurants: make(map[string]models.RestaurantProfile),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.deployments {
		c.deployments[k] = v.Clone()
	}
	c.order = append([]string(nil), s.order...)
	for k, v := range s.domains {
		b := *v
		c.domains[k] = &b
	}
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	return c
}

// Store implements store.Store in memory.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// SiteConfigs returns the SiteConfigStore.
func (s *Store) SiteConfigs() store.SiteConfigStore { return (*siteConfigs)(s) }

// Deployments returns the DeploymentStore.
func (s *Store) Deployments() store.DeploymentStore { return (*deployments)(s) }

// Domains returns the DomainStore.
func (s *Store) Domains() store.DomainStore { return (*domains)(s) }

// Restaurants returns the RestaurantStore.
func (s *Store) Restaurants() store.RestaurantStore { return (*restaurants)(s) }

// WithTx runs fn and restores the previous state if it fails. Transactions
// are serialized with each other but not isolated from concurrent
// non-transactional writes.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.st.clone()
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type siteConfigs Store

func (s *siteConfigs) Get(ctx context.Context, siteID string) (models.SiteConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.st.configs[siteID]
	if !ok {
		return models.SiteConfig{}, store.ErrNotFound
	}
	return cfg, nil
}

func (s *siteConfigs) Save(ctx context.Context, siteID string, cfg models.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.configs[siteID] = cfg
	return nil
}

func (s *siteConfigs) Delete(ctx context.Context, siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.configs[siteID]; !ok {
		return store.ErrNotFound
	}
	delete(s.st.configs, siteID)
	return nil
}

type deployments Store

func (s *deployments) Create(ctx context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if _, ok := s.st.deployments[record.ID]; ok {
		return fmt.Errorf("deployment %s: %w", record.ID, store.ErrDuplicateKey)
	}
	if record.Status == models.DeploymentStatusDeploying {
		for _, r := range s.st.deployments {
			if r.SiteID == record.SiteID && r.Status == models.DeploymentStatusDeploying {
				return fmt.Errorf("site %s already deploying: %w", record.SiteID, store.ErrDuplicateKey)
			}
		}
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	s.st.deployments[record.ID] = record.Clone()
	s.st.order = append(s.st.order, record.ID)
	return nil
}

func (s *deployments) Get(ctx context.Context, id string) (*models.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.st.deployments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *deployments) Update(ctx context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.st.deployments[record.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := record.Clone()
	updated.SubmittedConfig = existing.SubmittedConfig
	updated.ConfigHash = existing.ConfigHash
	s.st.deployments[record.ID] = updated
	return nil
}

func (s *deployments) ListBySite(ctx context.Context, siteID string) ([]*models.DeploymentRecord, error) {
	return s.list(func(r *models.DeploymentRecord) bool { return r.SiteID == siteID }), nil
}

func (s *deployments) ListByStatus(ctx context.Context, status models.DeploymentStatus) ([]*models.DeploymentRecord, error) {
	return s.list(func(r *models.DeploymentRecord) bool { return r.Status == status }), nil
}

func (s *deployments) list(match func(*models.DeploymentRecord) bool) []*models.DeploymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DeploymentRecord
	for _, id := range s.st.order {
		if r := s.st.deployments[id]; match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

type domains Store

func (s *domains) Get(ctx context.Context, siteID string) (*models.DomainBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.st.domains[siteID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (s *domains) GetByDomain(ctx context.Context, domain string) (*models.DomainBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.st.domains {
		if b.Domain == domain {
			c := *b
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *domains) Upsert(ctx context.Context, binding *models.DomainBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for siteID, b := range s.st.domains {
		if b.Domain == binding.Domain && siteID != binding.SiteID {
			return fmt.Errorf("domain %s: %w", binding.Domain, store.ErrDuplicateKey)
		}
	}
	c := *binding
	s.st.domains[binding.SiteID] = &c
	return nil
}

func (s *domains) Delete(ctx context.Context, siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.domains[siteID]; !ok {
		return store.ErrNotFound
	}
	delete(s.st.domains, siteID)
	return nil
}

type restaurants Store

func (s *restaurants) Create(ctx context.Context, profile models.RestaurantProfile) (models.RestaurantProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if _, ok := s.st.restaurants[profile.ID]; ok {
		return models.RestaurantProfile{}, fmt.Errorf("restaurant %s: %w", profile.ID, store.ErrDuplicateKey)
	}
	s.st.restaurants[profile.ID] = profile
	return profile, nil
}

func (s *restaurants) Get(ctx context.Context, id string) (models.RestaurantProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.restaurants[id]
	if !ok {
		return models.RestaurantProfile{}, store.ErrNotFound
	}
	return p, nil
}
