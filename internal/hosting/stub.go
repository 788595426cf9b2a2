package hosting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

// ErrScriptedFailure is the default error returned by a StubAdapter told to fail.
var ErrScriptedFailure = errors.New("stub: scripted deploy failure")

// StubOutcome scripts the result of one StubAdapter.Deploy call.
type StubOutcome struct {
	URL   string
	Err   error
	Delay time.Duration
}

// StubAdapter is an in-process provider used in development and tests. It
// publishes every site at https://<slug>.<baseDomain> after a delay.
type StubAdapter struct {
	baseDomain string
	delay      time.Duration
	ssl        models.SSLStatus
	logger     *slog.Logger

	mu      sync.Mutex
	script  []StubOutcome
	deploys map[string]int
	binds   map[string]string
}

// StubOption configures a StubAdapter.
type StubOption func(*StubAdapter)

// WithBaseDomain sets the domain sites are published under.
func WithBaseDomain(domain string) StubOption {
	return func(s *StubAdapter) {
		s.baseDomain = domain
	}
}

// WithDelay sets the simulated build time.
func WithDelay(d time.Duration) StubOption {
	return func(s *StubAdapter) {
		s.delay = d
	}
}

// WithSSLStatus sets the status returned by BindDomain.
func WithSSLStatus(status models.SSLStatus) StubOption {
	return func(s *StubAdapter) {
		s.ssl = status
	}
}

// WithStubLogger sets the logger.
func WithStubLogger(logger *slog.Logger) StubOption {
	return func(s *StubAdapter) {
		s.logger = logger
	}
}

// NewStubAdapter creates a stub adapter.
func NewStubAdapter(opts ...StubOption) *StubAdapter {
	s := &StubAdapter{
		baseDomain: "sites.localhost",
		ssl:        models.SSLStatusPending,
		logger:     slog.Default(),
		deploys:    make(map[string]int),
		binds:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the stub provider.
func (s *StubAdapter) Name() models.Provider {
	return models.ProviderStub
}

// Enqueue scripts the next Deploy outcomes in order. Unscripted calls succeed.
func (s *StubAdapter) Enqueue(outcomes ...StubOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, outcomes...)
}

// FailNext makes the next Deploy call fail with err, or ErrScriptedFailure
// when err is nil.
func (s *StubAdapter) FailNext(err error) {
	if err == nil {
		err = ErrScriptedFailure
	}
	s.Enqueue(StubOutcome{Err: err})
}

// Deploys returns how many times Deploy was called for siteID.
func (s *StubAdapter) Deploys(siteID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deploys[siteID]
}

// Deploy simulates a provider build.
func (s *StubAdapter) Deploy(ctx context.Context, siteID string, cfg models.SiteConfig) (DeployResult, error) {
	s.mu.Lock()
	s.deploys[siteID]++
	outcome := StubOutcome{Delay: s.delay}
	if len(s.script) > 0 {
		outcome = s.script[0]
		s.script = s.script[1:]
	}
	s.mu.Unlock()

	s.logger.Debug("stub deploy started", "site_id", siteID, "delay", outcome.Delay)

	if outcome.Delay > 0 {
		timer := time.NewTimer(outcome.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return DeployResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if outcome.Err != nil {
		return DeployResult{}, outcome.Err
	}
	url := outcome.URL
	if url == "" {
		url = SiteURL(s.baseDomain, cfg.Content.BrandName, siteID)
	}
	return DeployResult{URL: url}, nil
}

// BindDomain records the binding and returns the configured SSL status.
func (s *StubAdapter) BindDomain(ctx context.Context, siteID, domain string) (models.SSLStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.binds[siteID] = domain
	s.mu.Unlock()
	return s.ssl, nil
}

// BoundDomain returns the domain last bound for siteID.
func (s *StubAdapter) BoundDomain(siteID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binds[siteID]
}
