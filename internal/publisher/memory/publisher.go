// Package memory contains an in-memory publisher for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/publisher"
)

// Publisher stores published listings for inspection.
type Publisher struct {
	mu       sync.RWMutex
	messages []PublishedMessage
	err      error
}

var _ publisher.Publisher = (*Publisher)(nil)

// PublishedMessage captures one announced listing.
type PublishedMessage struct {
	Data       []byte
	Attributes map[string]string
	Listing    listing.JobListing
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Fail makes subsequent Publish calls return err without recording anything.
func (p *Publisher) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records one message per listing.
func (p *Publisher) Publish(_ context.Context, runID string, listings []listing.JobListing) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	for _, l := range listings {
		data, attrs, err := publisher.Encode(runID, l)
		if err != nil {
			return 0, err
		}
		p.messages = append(p.messages, PublishedMessage{Data: data, Attributes: attrs, Listing: l})
	}
	return len(listings), nil
}

// Close implements publisher.Publisher.
func (p *Publisher) Close() error { return nil }

// Messages returns the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
