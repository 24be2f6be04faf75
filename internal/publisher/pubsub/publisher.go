// Package pubsub announces new listings on a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/publisher"
)

// Config identifies the topic to publish to.
type Config struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

var _ publisher.Publisher = (*Publisher)(nil)

// New creates a client for cfg.ProjectID and binds it to cfg.TopicID.
func New(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("notify provider is 'pubsub' but project_id or topic_id is not set")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	p := NewWithTopic(client.Topic(cfg.TopicID), logger)
	p.client = client
	return p, nil
}

// NewWithTopic wraps an existing topic handle. The caller owns the client.
func NewWithTopic(topic *pubsub.Topic, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{topic: topic, logger: logger}
}

// Publish sends one message per listing and waits for every result. It
// returns the number of acknowledged messages and the joined failures.
func (p *Publisher) Publish(ctx context.Context, runID string, listings []listing.JobListing) (int, error) {
	if p.topic == nil {
		return 0, fmt.Errorf("pubsub topic is not configured")
	}
	results := make([]*pubsub.PublishResult, 0, len(listings))
	var errs []error
	for _, l := range listings {
		data, attrs, err := publisher.Encode(runID, l)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}))
	}

	published := 0
	for _, res := range results {
		id, err := res.Get(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish message: %w", err))
			continue
		}
		published++
		p.logger.Debug("listing published", zap.String("run_id", runID), zap.String("message_id", id))
	}
	return published, errors.Join(errs...)
}

// Close flushes pending messages and releases the client when owned.
func (p *Publisher) Close() error {
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("close pubsub client: %w", err)
		}
	}
	return nil
}
