package domains

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/events"
	"github.com/narvanalabs/sitebuilder/internal/hosting"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liveURL = "https://bellas.sites.localhost"

type fakeSites map[string]models.SiteState

func (f fakeSites) Status(ctx context.Context, siteID string) (deploy.SiteView, error) {
	state, ok := f[siteID]
	if !ok {
		state = models.SiteStateNotDeployed
	}
	view := deploy.SiteView{SiteID: siteID, Status: state, Actions: state.AvailableActions()}
	if state == models.SiteStateDeployed || state == models.SiteStateFailed {
		view.LiveURL = liveURL
	}
	return view, nil
}

type failingAdapter struct {
	*hosting.StubAdapter
}

func (failingAdapter) BindDomain(ctx context.Context, siteID, domain string) (models.SSLStatus, error) {
	return "", errors.New("dns check failed")
}

func newManager(t *testing.T, adapter hosting.Adapter, opts ...Option) *Manager {
	t.Helper()
	sites := fakeSites{"bellas": models.SiteStateDeployed, "pho-24": models.SiteStateDeployed, "draft": models.SiteStateFailed}
	m := NewManager(adapter, memory.New().Domains(), sites, opts...)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func TestBindRequiresDeployedSite(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, hosting.NewStubAdapter())

	_, err := m.Bind(ctx, "draft", "bellas.com")
	assert.ErrorIs(t, err, ErrNotDeployedYet)
	_, err = m.Bind(ctx, "unknown", "bellas.com")
	assert.ErrorIs(t, err, ErrNotDeployedYet)

	_, err = m.Binding(ctx, "draft")
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestBindValidatesDomain(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, hosting.NewStubAdapter())

	for _, bad := range []string{"", "localhost", "bellas", "http://bellas.com", "bel las.com", "-bellas.com"} {
		_, err := m.Bind(ctx, "bellas", bad)
		assert.ErrorIs(t, err, ErrInvalidDomain, bad)
	}

	b, err := m.Bind(ctx, "bellas", "  WWW.Bellas.COM. ")
	require.NoError(t, err)
	assert.Equal(t, "www.bellas.com", b.Domain)
}

func TestBindPendingThenActive(t *testing.T) {
	ctx := context.Background()
	stub := hosting.NewStubAdapter()
	broker := events.NewBroker(nil)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub := broker.Subscribe(subCtx, "bellas")
	m := newManager(t, stub, WithPublisher(broker))

	b, err := m.Bind(ctx, "bellas", "bellas.com")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusPending, b.SSLStatus)
	assert.Nil(t, b.VerifiedAt)
	m.Wait()
	assert.Equal(t, "bellas.com", stub.BoundDomain("bellas"))

	// Still pending: the public URL stays on the provider.
	url, err := m.PublicURL(ctx, "bellas")
	require.NoError(t, err)
	assert.Equal(t, liveURL, url)

	b, err = m.HandleSSLStatus(ctx, "bellas", models.SSLStatusActive, "")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusActive, b.SSLStatus)
	require.NotNil(t, b.VerifiedAt)
	assert.NoError(t, Err(&b))

	url, err = m.PublicURL(ctx, "bellas")
	require.NoError(t, err)
	assert.Equal(t, "https://bellas.com", url)

	// Terminal: later reports are ignored.
	b, err = m.HandleSSLStatus(ctx, "bellas", models.SSLStatusFailed, "late")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusActive, b.SSLStatus)

	assert.Equal(t, events.DomainPending, (<-sub.Ch).Type)
	assert.Equal(t, events.DomainActive, (<-sub.Ch).Type)
}

func TestSSLFailureKeepsBinding(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, hosting.NewStubAdapter())

	_, err := m.Bind(ctx, "bellas", "bellas.com")
	require.NoError(t, err)
	m.Wait()

	b, err := m.HandleSSLStatus(ctx, "bellas", models.SSLStatusFailed, "CAA record forbids issuance")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusFailed, b.SSLStatus)
	assert.ErrorIs(t, Err(&b), ErrSSLProvisioningFailed)
	assert.Contains(t, Err(&b).Error(), "CAA record")

	got, err := m.Binding(ctx, "bellas")
	require.NoError(t, err)
	assert.Equal(t, "bellas.com", got.Domain)

	url, err := m.PublicURL(ctx, "bellas")
	require.NoError(t, err)
	assert.Equal(t, liveURL, url)

	// Binding the same domain again restarts provisioning.
	b, err = m.Bind(ctx, "bellas", "bellas.com")
	require.NoError(t, err)
	assert.Equal(t, models.SSLStatusPending, b.SSLStatus)
}

func TestProviderResultsApplied(t *testing.T) {
	ctx := context.Background()

	t.Run("active", func(t *testing.T) {
		m := newManager(t, hosting.NewStubAdapter(hosting.WithSSLStatus(models.SSLStatusActive)))
		_, err := m.Bind(ctx, "bellas", "bellas.com")
		require.NoError(t, err)
		m.Wait()

		b, err := m.Binding(ctx, "bellas")
		require.NoError(t, err)
		assert.Equal(t, models.SSLStatusActive, b.SSLStatus)
	})

	t.Run("error", func(t *testing.T) {
		m := newManager(t, failingAdapter{hosting.NewStubAdapter()})
		_, err := m.Bind(ctx, "bellas", "bellas.com")
		require.NoError(t, err)
		m.Wait()

		b, err := m.Binding(ctx, "bellas")
		require.NoError(t, err)
		assert.Equal(t, models.SSLStatusFailed, b.SSLStatus)
		assert.Equal(t, "dns check failed", b.Error)
	})
}

func TestDomainOwnership(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, hosting.NewStubAdapter())

	_, err := m.Bind(ctx, "bellas", "bellas.com")
	require.NoError(t, err)
	_, err = m.Bind(ctx, "pho-24", "bellas.com")
	assert.ErrorIs(t, err, ErrDomainInUse)

	require.NoError(t, m.Unbind(ctx, "bellas"))
	require.NoError(t, m.Unbind(ctx, "bellas"))
	_, err = m.Binding(ctx, "bellas")
	assert.ErrorIs(t, err, ErrNotBound)

	_, err = m.Bind(ctx, "pho-24", "bellas.com")
	assert.NoError(t, err)
}

func TestHandleSSLStatusErrors(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, hosting.NewStubAdapter())

	_, err := m.HandleSSLStatus(ctx, "bellas", models.SSLStatusActive, "")
	assert.ErrorIs(t, err, ErrNotBound)
	_, err = m.HandleSSLStatus(ctx, "bellas", "issued", "")
	assert.ErrorIs(t, err, ErrInvalidSSLStatus)
}

// *For any* sequence of SSL reports, the binding changes at most once.
func TestSSLExactlyOnceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genStatus := gen.OneConstOf(models.SSLStatusPending, models.SSLStatusActive, models.SSLStatusFailed)

	properties.Property("first terminal report wins", prop.ForAll(
		func(reports []models.SSLStatus) bool {
			ctx := context.Background()
			now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			m := NewManager(hosting.NewStubAdapter(), memory.New().Domains(),
				fakeSites{"bellas": models.SiteStateDeployed},
				WithClock(func() time.Time { return now }))
			if _, err := m.Bind(ctx, "bellas", "bellas.com"); err != nil {
				return false
			}
			m.Wait()

			want := models.SSLStatusPending
			for _, s := range reports {
				if want == models.SSLStatusPending && s.IsTerminal() {
					want = s
				}
				if _, err := m.HandleSSLStatus(ctx, "bellas", s, ""); err != nil {
					return false
				}
			}
			b, err := m.Binding(ctx, "bellas")
			return err == nil && b.SSLStatus == want && (b.VerifiedAt != nil) == (want == models.SSLStatusActive)
		},
		gen.SliceOf(genStatus, reflect.TypeOf(models.SSLStatus(""))),
	))

	properties.TestingRun(t)
}
