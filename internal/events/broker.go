// Package events provides real-time streaming of deployment and domain
// transitions.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/sitebuilder/internal/models"
)

// Type identifies a transition.
type Type string

const (
	DeploymentStarted   Type = "deployment.started"
	DeploymentSucceeded Type = "deployment.succeeded"
	DeploymentFailed    Type = "deployment.failed"
	DomainPending       Type = "domain.pending"
	DomainActive        Type = "domain.active"
	DomainFailed        Type = "domain.failed"
	DomainUnbound       Type = "domain.unbound"
)

// Event is a single transition of a site.
type Event struct {
	Type       Type                     `json:"type"`
	SiteID     string                   `json:"site_id"`
	State      models.SiteState         `json:"state,omitempty"`
	LiveURL    string                   `json:"live_url,omitempty"`
	Deployment *models.DeploymentRecord `json:"deployment,omitempty"`
	Domain     *models.DomainBinding    `json:"domain,omitempty"`
	At         time.Time                `json:"at"`
}

// Publisher accepts events. Publishing never blocks.
type Publisher interface {
	Publish(e Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Subscriber represents an event stream subscriber.
type Subscriber struct {
	ID string
	// SiteID filters events to one site; empty receives all sites.
	SiteID    string
	Ch        chan Event
	CreatedAt time.Time
}

// Broker manages subscriptions and publishing.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	bufferSize  int
	logger      *slog.Logger
}

// NewBroker creates a new event broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subscribers: make(map[string]*Subscriber),
		bufferSize:  64,
		logger:      logger,
	}
}

// Subscribe registers a subscriber for siteID. The subscription is removed
// when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, siteID string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		Ch:        make(chan Event, b.bufferSize),
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "subscriber_id", sub.ID, "site_id", siteID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(sub)
	}()

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sub.ID]; exists {
		close(sub.Ch)
		delete(b.subscribers, sub.ID)
		b.logger.Debug("subscriber removed", "subscriber_id", sub.ID)
	}
}

// Publish sends an event to all matching subscribers. Slow subscribers
// miss events rather than blocking the publisher.
func (b *Broker) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.SiteID != "" && sub.SiteID != e.SiteID {
			continue
		}
		select {
		case sub.Ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"subscriber_id", sub.ID,
				"site_id", e.SiteID,
				"type", e.Type,
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
