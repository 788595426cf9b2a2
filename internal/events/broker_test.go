package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBrokerFiltersBySite(t *testing.T) {
	b := NewBroker(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := b.Subscribe(ctx, "site-1")
	all := b.Subscribe(ctx, "")

	b.Publish(Event{Type: DeploymentStarted, SiteID: "site-2"})
	b.Publish(Event{Type: DeploymentSucceeded, SiteID: "site-1"})

	got := <-mine.Ch
	assert.Equal(t, DeploymentSucceeded, got.Type)
	assert.False(t, got.At.IsZero())
	assert.Empty(t, mine.Ch)

	assert.Equal(t, "site-2", (<-all.Ch).SiteID)
	assert.Equal(t, "site-1", (<-all.Ch).SiteID)
}

func TestBrokerUnsubscribesOnContextDone(t *testing.T) {
	b := NewBroker(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx, "site-1")
	require.Equal(t, 1, b.SubscriberCount())

	cancel()
	select {
	case _, open := <-sub.Ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed")
	}
	assert.Equal(t, 0, b.SubscriberCount())

	// Unsubscribing twice is harmless.
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}

func TestBrokerNeverBlocks(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("publishing more than the buffer drops instead of blocking", prop.ForAll(
		func(n int) bool {
			b := NewBroker(quietLogger())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sub := b.Subscribe(ctx, "site-1")

			done := make(chan struct{})
			go func() {
				for i := 0; i < n; i++ {
					b.Publish(Event{Type: DeploymentStarted, SiteID: "site-1"})
				}
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				return false
			}
			want := n
			if want > b.bufferSize {
				want = b.bufferSize
			}
			return len(sub.Ch) == want
		},
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
