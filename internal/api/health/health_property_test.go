package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func pinger(healthy bool) Pinger {
	if healthy {
		return &mockPinger{}
	}
	return &mockPinger{err: errors.New("connection refused")}
}

// *For any* combination of database and cache health, the overall status is
// unhealthy iff the database fails, degraded iff only the cache fails.
func TestPropertyHealthAggregation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("overall status follows component criticality", prop.ForAll(
		func(version string, dbHealthy, cacheHealthy bool) bool {
			checker := NewChecker(version)
			checker.Register("database", pinger(dbHealthy), true)
			checker.Register("redis", pinger(cacheHealthy), false)

			response := checker.Check(context.Background())
			if response.Version != version || len(response.Components) != 2 {
				return false
			}

			switch {
			case !dbHealthy:
				return response.Status == StatusUnhealthy
			case !cacheHealthy:
				return response.Status == StatusDegraded
			default:
				return response.Status == StatusHealthy
			}
		},
		gen.RegexMatch("v?[0-9]+\\.[0-9]+\\.[0-9]+"),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestHandlerStatusCodes(t *testing.T) {
	checker := NewChecker("v1.0.0")
	checker.Register("database", PingFunc(func(context.Context) error { return nil }), true)

	rec := httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Equal(t, "connected", body.Components["database"].Message)

	checker.Register("database", nil, true)
	rec = httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckHonorsTimeout(t *testing.T) {
	checker := NewChecker("dev")
	checker.SetTimeout(20 * time.Millisecond)
	checker.Register("database", PingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), true)

	start := time.Now()
	response := checker.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusUnhealthy, response.Status)
}
