// Package deploy implements the per-site deployment state machine:
//
//	not_deployed --submit--> deploying --success--> deployed --redeploy--> deploying
//	                                   --failure--> failed   --retry-----> deploying
//
// A site has at most one deployment in flight. Provider results are applied
// exactly once; a result arriving after the deployment timed out is dropped.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/sitebuilder/internal/events"
	"github.com/narvanalabs/sitebuilder/internal/hosting"
	"github.com/narvanalabs/sitebuilder/internal/metrics"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/sethvargo/go-retry"
)

const (
	// DefaultTimeout bounds how long a provider may take to resolve.
	DefaultTimeout = 10 * time.Minute

	// leaseMargin keeps the guard lease alive a little past the timeout so
	// it never expires while the controller still considers the site busy.
	leaseMargin = 30 * time.Second

	// storeTimeout bounds persistence done outside a caller's context.
	storeTimeout = 10 * time.Second

	// persistRetries and persistBackoff bound how hard a resolved record is
	// written back before the controller gives up and reconciles later.
	persistRetries = 3
	persistBackoff = 50 * time.Millisecond

	// foreignPollInterval is how often Wait re-reads a deployment owned by
	// another process.
	foreignPollInterval = 500 * time.Millisecond

	causeTimeout     = "Timeout"
	causeInterrupted = "Interrupted"
)

// SiteView is a read-only snapshot of a site's deployment state.
type SiteView struct {
	SiteID string           `json:"site_id"`
	Status models.SiteState `json:"status"`
	// Current is the latest record, in flight or resolved.
	Current *models.DeploymentRecord `json:"current,omitempty"`
	// LiveURL is the URL of the last successful deployment. It stays set
	// while a redeploy is in flight and after a failed one.
	LiveURL string              `json:"live_url,omitempty"`
	Actions []models.SiteAction `json:"actions"`
}

// siteState is the controller's view of one site.
type siteState struct {
	mu sync.Mutex

	latest   *models.DeploymentRecord
	liveURL  string
	liveHash string

	// done is non-nil while this process runs the in-flight deployment and
	// is closed when it resolves.
	done chan struct{}
	// foreign marks a deploying record owned by another process.
	foreign bool
}

func (s *siteState) status() models.SiteState {
	return models.DeriveSiteState(s.latest)
}

func (s *siteState) view(siteID string) SiteView {
	status := s.status()
	return SiteView{
		SiteID:  siteID,
		Status:  status,
		Current: s.latest.Clone(),
		LiveURL: s.liveURL,
		Actions: status.AvailableActions(),
	}
}

// Controller drives deployments through a hosting adapter.
type Controller struct {
	adapter   hosting.Adapter
	store     store.DeploymentStore
	guard     Guard
	publisher events.Publisher
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	sites map[string]*siteState

	baseCtx  context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
	closedMu sync.RWMutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithGuard sets the in-flight guard.
func WithGuard(g Guard) Option {
	return func(c *Controller) {
		c.guard = g
	}
}

// WithPublisher sets where transitions are published.
func WithPublisher(p events.Publisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller.
func NewController(adapter hosting.Adapter, deployments store.DeploymentStore, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		adapter:   adapter,
		store:     deployments,
		guard:     NewMemoryGuard(),
		publisher: events.Discard,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		now:       time.Now,
		sites:     make(map[string]*siteState),
		baseCtx:   ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "deploy")
	return c
}

// Submit validates cfg and deploys it.
//
// A site that is deployed with an identical config is left alone and its
// live record returned. A deployed site with a different config is
// redeployed. A failed site accepts a fresh submit.
func (c *Controller) Submit(ctx context.Context, siteID string, cfg models.SiteConfig) (models.DeploymentRecord, error) {
	st, err := c.site(ctx, siteID)
	if err != nil {
		return models.DeploymentRecord{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	trigger := models.TriggerSubmit
	switch st.status() {
	case models.SiteStateDeploying:
		return models.DeploymentRecord{}, ErrAlreadyInFlight
	case models.SiteStateDeployed:
		if siteconfig.Fingerprint(cfg) == st.liveHash {
			c.logger.Debug("config unchanged, skipping deploy", "site_id", siteID)
			return *st.latest.Clone(), nil
		}
		trigger = models.TriggerRedeploy
	}

	if err := siteconfig.Validate(cfg).Err(); err != nil {
		return models.DeploymentRecord{}, err
	}
	return c.start(ctx, st, siteID, cfg, trigger)
}

// Redeploy deploys cfg over a live site.
func (c *Controller) Redeploy(ctx context.Context, siteID string, cfg models.SiteConfig) (models.DeploymentRecord, error) {
	st, err := c.site(ctx, siteID)
	if err != nil {
		return models.DeploymentRecord{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if status := st.status(); status != models.SiteStateDeployed {
		if status == models.SiteStateDeploying {
			return models.DeploymentRecord{}, ErrAlreadyInFlight
		}
		return models.DeploymentRecord{}, illegal(status, models.SiteActionRedeploy)
	}
	if err := siteconfig.Validate(cfg).Err(); err != nil {
		return models.DeploymentRecord{}, err
	}
	return c.start(ctx, st, siteID, cfg, models.TriggerRedeploy)
}

// Retry resubmits the snapshot of the failed deployment unchanged, or
// override when given.
func (c *Controller) Retry(ctx context.Context, siteID string, override *models.SiteConfig) (models.DeploymentRecord, error) {
	st, err := c.site(ctx, siteID)
	if err != nil {
		return models.DeploymentRecord{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if status := st.status(); status != models.SiteStateFailed {
		if status == models.SiteStateDeploying {
			return models.DeploymentRecord{}, ErrAlreadyInFlight
		}
		return models.DeploymentRecord{}, illegal(status, models.SiteActionRetry)
	}

	cfg := st.latest.SubmittedConfig
	if override != nil {
		if err := siteconfig.Validate(*override).Err(); err != nil {
			return models.DeploymentRecord{}, err
		}
		cfg = *override
	}
	return c.start(ctx, st, siteID, cfg, models.TriggerRetry)
}

// start creates the deploying record and hands the adapter call to a
// goroutine. st.mu must be held.
func (c *Controller) start(ctx context.Context, st *siteState, siteID string, cfg models.SiteConfig, trigger models.DeploymentTrigger) (models.DeploymentRecord, error) {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	if c.closed {
		return models.DeploymentRecord{}, ErrShuttingDown
	}

	release, err := c.guard.Acquire(ctx, siteID, c.timeout+leaseMargin)
	if err != nil {
		return models.DeploymentRecord{}, err
	}

	record := &models.DeploymentRecord{
		ID:              uuid.New().String(),
		SiteID:          siteID,
		Provider:        c.adapter.Name(),
		Status:          models.DeploymentStatusDeploying,
		Trigger:         trigger,
		SubmittedConfig: cfg,
		ConfigHash:      siteconfig.Fingerprint(cfg),
		SubmittedAt:     c.now().UTC(),
	}
	err = c.store.Create(ctx, record)
	if errors.Is(err, store.ErrDuplicateKey) && c.reconcile(ctx, st, siteID) {
		err = c.store.Create(ctx, record)
	}
	if err != nil {
		release()
		if errors.Is(err, store.ErrDuplicateKey) {
			return models.DeploymentRecord{}, ErrAlreadyInFlight
		}
		return models.DeploymentRecord{}, fmt.Errorf("recording deployment: %w", err)
	}

	st.latest = record
	st.foreign = false
	done := make(chan struct{})
	st.done = done

	metrics.DeploymentsSubmitted.WithLabelValues(string(trigger)).Inc()
	metrics.DeploymentsInFlight.Inc()
	c.logger.Info("deployment started",
		"site_id", siteID,
		"deployment_id", record.ID,
		"trigger", trigger,
		"provider", record.Provider,
	)
	c.publish(events.DeploymentStarted, siteID, st)

	c.wg.Add(1)
	go c.run(siteID, st, record.Clone(), release, done)

	return *record.Clone(), nil
}

type outcome struct {
	result hosting.DeployResult
	err    error
}

// run calls the adapter and applies its result exactly once.
func (c *Controller) run(siteID string, st *siteState, record *models.DeploymentRecord, release func(), done chan struct{}) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
	defer cancel()

	results := make(chan outcome, 1)
	go func() {
		res, err := c.adapter.Deploy(ctx, siteID, record.SubmittedConfig)
		results <- outcome{result: res, err: err}
	}()

	var o outcome
	select {
	case o = <-results:
	case <-ctx.Done():
		o = outcome{err: ctx.Err()}
		go c.drainLate(siteID, record.ID, results)
	}

	c.resolve(ctx, siteID, st, record, o, release)
	close(done)
}

func (c *Controller) drainLate(siteID, deploymentID string, results <-chan outcome) {
	o := <-results
	metrics.LateResultsDropped.Inc()
	c.logger.Warn("dropping provider result received after timeout",
		"site_id", siteID,
		"deployment_id", deploymentID,
		"url", o.result.URL,
		"error", o.err,
	)
}

// resolve applies an adapter outcome to the record and the site state. The
// lease is released before the site leaves deploying, so a caller that sees
// failed or deployed can act on it immediately.
func (c *Controller) resolve(ctx context.Context, siteID string, st *siteState, record *models.DeploymentRecord, o outcome, release func()) {
	now := c.now().UTC()
	record.ResolvedAt = &now

	switch {
	case o.err == nil && o.result.URL != "":
		record.Status = models.DeploymentStatusDeployed
		record.URL = o.result.URL
		record.Error = nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		record.Status = models.DeploymentStatusFailed
		record.Error = &models.DeploymentError{
			Code:    models.DeploymentErrorTimeout,
			Message: fmt.Sprintf("provider did not respond within %s", c.timeout),
			Cause:   causeTimeout,
		}
	case errors.Is(c.baseCtx.Err(), context.Canceled):
		record.Status = models.DeploymentStatusFailed
		record.Error = &models.DeploymentError{
			Code:    models.DeploymentErrorInterrupted,
			Message: "deployment interrupted by shutdown",
			Cause:   causeInterrupted,
		}
	default:
		cause := "provider returned no URL"
		if o.err != nil {
			cause = o.err.Error()
		}
		record.Status = models.DeploymentStatusFailed
		record.Error = &models.DeploymentError{
			Code:    models.DeploymentErrorProvider,
			Message: fmt.Sprintf("%s deployment failed", record.Provider),
			Cause:   cause,
		}
	}

	storeCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.persist(storeCtx, record); err != nil {
		c.logger.Error("failed to persist deployment result",
			"site_id", siteID,
			"deployment_id", record.ID,
			"error", err,
		)
	}
	release()

	st.mu.Lock()
	defer st.mu.Unlock()

	st.latest = record
	st.done = nil
	if record.Status == models.DeploymentStatusDeployed {
		st.liveURL = record.URL
		st.liveHash = record.ConfigHash
	}

	duration := now.Sub(record.SubmittedAt)
	metrics.DeploymentsInFlight.Dec()
	metrics.DeploymentsResolved.WithLabelValues(string(record.Status)).Inc()
	metrics.DeploymentDuration.Observe(duration.Seconds())

	if record.Status == models.DeploymentStatusDeployed {
		c.logger.Info("deployment succeeded",
			"site_id", siteID,
			"deployment_id", record.ID,
			"url", record.URL,
			"duration", duration,
		)
		c.publish(events.DeploymentSucceeded, siteID, st)
		return
	}

	metrics.DeploymentFailures.WithLabelValues(string(record.Error.Code)).Inc()
	c.logger.Warn("deployment failed",
		"site_id", siteID,
		"deployment_id", record.ID,
		"code", record.Error.Code,
		"cause", record.Error.Cause,
		"live_url", st.liveURL,
	)
	c.publish(events.DeploymentFailed, siteID, st)
}

// persist writes a resolved record back, retrying store failures with
// exponential backoff.
func (c *Controller) persist(ctx context.Context, record *models.DeploymentRecord) error {
	b := retry.WithMaxRetries(persistRetries, retry.NewExponential(persistBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.store.Update(ctx, record)
		if err == nil || errors.Is(err, store.ErrNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// reconcile rewrites a row the store still holds as deploying after this
// process resolved it, which happens when persist gave up. It reports
// whether the row was rewritten. st.mu must be held.
func (c *Controller) reconcile(ctx context.Context, st *siteState, siteID string) bool {
	if st.latest == nil || st.latest.Status == models.DeploymentStatusDeploying {
		return false
	}
	stored, err := c.store.Get(ctx, st.latest.ID)
	if err != nil || stored.Status != models.DeploymentStatusDeploying {
		return false
	}
	if err := c.persist(ctx, st.latest); err != nil {
		c.logger.Error("failed to reconcile deployment record",
			"site_id", siteID,
			"deployment_id", st.latest.ID,
			"error", err,
		)
		return false
	}
	c.logger.Warn("reconciled deployment record left deploying in the store",
		"site_id", siteID,
		"deployment_id", st.latest.ID,
		"status", st.latest.Status,
	)
	return true
}

// publish emits a transition. st.mu must be held.
func (c *Controller) publish(t events.Type, siteID string, st *siteState) {
	c.publisher.Publish(events.Event{
		Type:       t,
		SiteID:     siteID,
		State:      st.status(),
		LiveURL:    st.liveURL,
		Deployment: st.latest.Clone(),
		At:         c.now().UTC(),
	})
}

// Status returns a snapshot of the site's deployment state.
func (c *Controller) Status(ctx context.Context, siteID string) (SiteView, error) {
	st, err := c.site(ctx, siteID)
	if err != nil {
		return SiteView{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.view(siteID), nil
}

// History returns every deployment of the site, oldest first.
func (c *Controller) History(ctx context.Context, siteID string) ([]*models.DeploymentRecord, error) {
	records, err := c.store.ListBySite(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	return records, nil
}

// Wait blocks until the site's in-flight deployment resolves and returns
// it. If nothing is in flight the latest record is returned immediately.
func (c *Controller) Wait(ctx context.Context, siteID string) (models.DeploymentRecord, error) {
	for {
		st, err := c.site(ctx, siteID)
		if err != nil {
			return models.DeploymentRecord{}, err
		}

		st.mu.Lock()
		done, foreign, latest := st.done, st.foreign, st.latest.Clone()
		st.mu.Unlock()

		switch {
		case latest == nil:
			return models.DeploymentRecord{}, ErrNoDeployments
		case done != nil:
			select {
			case <-done:
			case <-ctx.Done():
				return models.DeploymentRecord{}, ctx.Err()
			}
		case foreign:
			select {
			case <-time.After(foreignPollInterval):
			case <-ctx.Done():
				return models.DeploymentRecord{}, ctx.Err()
			}
		default:
			return *latest, nil
		}
	}
}

// site returns the state of siteID, loading it from the store on first use.
// A deployment owned by another process is reloaded on every call until it
// resolves.
func (c *Controller) site(ctx context.Context, siteID string) (*siteState, error) {
	c.mu.Lock()
	st, ok := c.sites[siteID]
	if !ok {
		st = &siteState{}
		c.sites[siteID] = st
	}
	c.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if ok && !st.foreign {
		return st, nil
	}
	if err := c.load(ctx, siteID, st); err != nil {
		if !ok {
			c.mu.Lock()
			delete(c.sites, siteID)
			c.mu.Unlock()
		}
		return nil, err
	}
	return st, nil
}

// Restore rebuilds the site's state from the persisted history. A record
// left deploying by a process that no longer holds the lease is marked
// failed as interrupted.
func (c *Controller) Restore(ctx context.Context, siteID string) (SiteView, error) {
	c.mu.Lock()
	st, ok := c.sites[siteID]
	if !ok {
		st = &siteState{}
		c.sites[siteID] = st
	}
	c.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.done != nil {
		// Running here; memory is authoritative.
		return st.view(siteID), nil
	}
	if err := c.load(ctx, siteID, st); err != nil {
		return SiteView{}, err
	}
	return st.view(siteID), nil
}

// RecoverInterrupted marks every deploying record that no process is
// working on as failed. It is called once at startup and returns how many
// records were marked.
func (c *Controller) RecoverInterrupted(ctx context.Context) (int, error) {
	records, err := c.store.ListByStatus(ctx, models.DeploymentStatusDeploying)
	if err != nil {
		return 0, fmt.Errorf("listing in-flight deployments: %w", err)
	}
	seen := make(map[string]bool)
	n := 0
	for _, r := range records {
		if seen[r.SiteID] {
			continue
		}
		seen[r.SiteID] = true
		view, err := c.Restore(ctx, r.SiteID)
		if err != nil {
			return n, err
		}
		if view.Current != nil && view.Current.Error != nil && view.Current.Error.Code == models.DeploymentErrorInterrupted {
			n++
		}
	}
	return n, nil
}

// load replaces st with what the store knows. st.mu must be held.
func (c *Controller) load(ctx context.Context, siteID string, st *siteState) error {
	history, err := c.store.ListBySite(ctx, siteID)
	if err != nil {
		return fmt.Errorf("loading deployment history: %w", err)
	}

	st.latest, st.liveURL, st.liveHash, st.foreign = nil, "", "", false
	for _, r := range history {
		if r.Status == models.DeploymentStatusDeployed {
			st.liveURL = r.URL
			st.liveHash = r.ConfigHash
		}
	}
	if len(history) == 0 {
		return nil
	}

	latest := history[len(history)-1]
	st.latest = latest
	if latest.Status != models.DeploymentStatusDeploying {
		return nil
	}

	held, err := c.guard.Held(ctx, siteID)
	if err != nil {
		return err
	}
	if held {
		st.foreign = true
		return nil
	}

	now := c.now().UTC()
	latest.Status = models.DeploymentStatusFailed
	latest.ResolvedAt = &now
	latest.Error = &models.DeploymentError{
		Code:    models.DeploymentErrorInterrupted,
		Message: "deployment was interrupted before the provider responded",
		Cause:   causeInterrupted,
	}
	if err := c.store.Update(ctx, latest); err != nil {
		return fmt.Errorf("marking interrupted deployment: %w", err)
	}
	c.logger.Warn("marked interrupted deployment as failed",
		"site_id", siteID,
		"deployment_id", latest.ID,
	)
	return nil
}

// Name implements shutdown.Component.
func (c *Controller) Name() string {
	return "deploy-controller"
}

// Shutdown stops accepting deployments and waits for in-flight ones. When
// ctx expires first the remaining adapter calls are cancelled and their
// records fail as interrupted.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.closedMu.Lock()
	c.closed = true
	c.closedMu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}
