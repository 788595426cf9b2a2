// Package domains binds owner-supplied domains to deployed sites and tracks
// their SSL provisioning. SSL state never feeds back into deployment state.
package domains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/events"
	"github.com/narvanalabs/sitebuilder/internal/hosting"
	"github.com/narvanalabs/sitebuilder/internal/metrics"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store"
)

const bindTimeout = 2 * time.Minute

// SiteStatus reports the deployment state of a site.
type SiteStatus interface {
	Status(ctx context.Context, siteID string) (deploy.SiteView, error)
}

// Manager owns the custom domain of each site.
type Manager struct {
	adapter   hosting.Adapter
	store     store.DomainStore
	sites     SiteStatus
	publisher events.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes read-modify-write cycles on bindings.
	mu sync.Mutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher sets where SSL transitions are published.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a domain manager.
func NewManager(adapter hosting.Adapter, domains store.DomainStore, sites SiteStatus, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		adapter:   adapter,
		store:     domains,
		sites:     sites,
		publisher: events.Discard,
		validate:  validator.New(),
		logger:    slog.Default(),
		now:       time.Now,
		baseCtx:   ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "domains")
	return m
}

// Normalize lowercases domain and strips a trailing dot. It returns
// ErrInvalidDomain if the result is not a fully qualified domain name.
func (m *Manager) Normalize(domain string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if err := m.validate.Var(d, "required,fqdn"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return d, nil
}

// Bind attaches domain to a deployed site. The binding starts pending and
// the provider is asked to attach it in the background.
func (m *Manager) Bind(ctx context.Context, siteID, domain string) (models.DomainBinding, error) {
	d, err := m.Normalize(domain)
	if err != nil {
		return models.DomainBinding{}, err
	}

	view, err := m.sites.Status(ctx, siteID)
	if err != nil {
		return models.DomainBinding{}, err
	}
	if view.Status != models.SiteStateDeployed {
		return models.DomainBinding{}, ErrNotDeployedYet
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.Get(ctx, siteID)
	switch {
	case err == nil && existing.Domain == d && existing.SSLStatus != models.SSLStatusFailed:
		return *existing, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return models.DomainBinding{}, fmt.Errorf("loading domain binding: %w", err)
	}

	now := m.now().UTC()
	b := &models.DomainBinding{
		SiteID:    siteID,
		Domain:    d,
		SSLStatus: models.SSLStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Upsert(ctx, b); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return models.DomainBinding{}, fmt.Errorf("%w: %s", ErrDomainInUse, d)
		}
		return models.DomainBinding{}, fmt.Errorf("saving domain binding: %w", err)
	}

	metrics.DomainTransitions.WithLabelValues(string(models.SSLStatusPending)).Inc()
	m.logger.Info("domain binding requested", "site_id", siteID, "domain", d)
	m.publish(events.DomainPending, b)

	m.wg.Add(1)
	go m.attach(siteID, d)

	return *b, nil
}

// attach asks the provider to serve domain and applies the status it reports.
func (m *Manager) attach(siteID, domain string) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.baseCtx, bindTimeout)
	defer cancel()

	status, err := m.adapter.BindDomain(ctx, siteID, domain)
	if err != nil {
		m.logger.Warn("provider rejected domain", "site_id", siteID, "domain", domain, "error", err)
		status = models.SSLStatusFailed
	}
	if status == models.SSLStatusPending {
		// Final status arrives through HandleSSLStatus.
		return
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer storeCancel()
	if _, err := m.apply(storeCtx, siteID, domain, status, msg); err != nil && !errors.Is(err, ErrNotBound) {
		m.logger.Error("failed to record ssl status", "site_id", siteID, "domain", domain, "error", err)
	}
}

// HandleSSLStatus applies a provider's SSL report for the site's binding.
// Reports for a binding that already reached active or failed are ignored.
func (m *Manager) HandleSSLStatus(ctx context.Context, siteID string, status models.SSLStatus, message string) (models.DomainBinding, error) {
	if !status.IsValid() {
		return models.DomainBinding{}, fmt.Errorf("%w: %q", ErrInvalidSSLStatus, status)
	}
	return m.apply(ctx, siteID, "", status, message)
}

// apply transitions the binding of siteID. When domain is set the report is
// ignored unless it still matches the bound domain.
func (m *Manager) apply(ctx context.Context, siteID, domain string, status models.SSLStatus, message string) (models.DomainBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.store.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.DomainBinding{}, ErrNotBound
		}
		return models.DomainBinding{}, fmt.Errorf("loading domain binding: %w", err)
	}
	if domain != "" && b.Domain != domain {
		m.logger.Debug("ignoring ssl report for replaced domain", "site_id", siteID, "domain", domain)
		return *b, nil
	}
	if b.SSLStatus.IsTerminal() || status == models.SSLStatusPending {
		return *b, nil
	}

	now := m.now().UTC()
	b.SSLStatus = status
	b.UpdatedAt = now
	switch status {
	case models.SSLStatusActive:
		b.VerifiedAt = &now
		b.Error = ""
	case models.SSLStatusFailed:
		if message == "" {
			message = "certificate could not be issued"
		}
		b.Error = message
	}
	if err := m.store.Upsert(ctx, b); err != nil {
		return models.DomainBinding{}, fmt.Errorf("saving domain binding: %w", err)
	}

	metrics.DomainTransitions.WithLabelValues(string(status)).Inc()
	if status == models.SSLStatusActive {
		m.logger.Info("domain is live", "site_id", siteID, "domain", b.Domain)
		m.publish(events.DomainActive, b)
	} else {
		m.logger.Warn("ssl provisioning failed", "site_id", siteID, "domain", b.Domain, "error", b.Error)
		m.publish(events.DomainFailed, b)
	}
	return *b, nil
}

// Unbind removes the custom domain. Unbinding a site without one is a no-op.
func (m *Manager) Unbind(ctx context.Context, siteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.store.Get(ctx, siteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading domain binding: %w", err)
	}
	if err := m.store.Delete(ctx, siteID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("deleting domain binding: %w", err)
	}

	m.logger.Info("domain unbound", "site_id", siteID, "domain", b.Domain)
	m.publish(events.DomainUnbound, b)
	return nil
}

// Binding returns the site's custom domain binding.
func (m *Manager) Binding(ctx context.Context, siteID string) (models.DomainBinding, error) {
	b, err := m.store.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.DomainBinding{}, ErrNotBound
		}
		return models.DomainBinding{}, fmt.Errorf("loading domain binding: %w", err)
	}
	return *b, nil
}

// PublicURL returns https://<domain> once the custom domain serves traffic,
// and the provider's live URL otherwise.
func (m *Manager) PublicURL(ctx context.Context, siteID string) (string, error) {
	b, err := m.store.Get(ctx, siteID)
	switch {
	case err == nil && b.SSLStatus == models.SSLStatusActive:
		return "https://" + b.Domain, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("loading domain binding: %w", err)
	}

	view, err := m.sites.Status(ctx, siteID)
	if err != nil {
		return "", err
	}
	return view.LiveURL, nil
}

func (m *Manager) publish(t events.Type, b *models.DomainBinding) {
	cp := *b
	m.publisher.Publish(events.Event{
		Type:   t,
		SiteID: b.SiteID,
		Domain: &cp,
		At:     m.now().UTC(),
	})
}

// Wait blocks until background provider calls have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Name implements shutdown.Component.
func (m *Manager) Name() string {
	return "domain-manager"
}

// Shutdown waits for background provider calls, cancelling them when ctx
// expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
