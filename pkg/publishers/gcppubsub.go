package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/Adda-Baaj/newsscrape/internal/logger"
	"google.golang.org/api/option"
)

type gcpPubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    logger.Logger
}

func newGCPPubSubPublisher(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	if cfg.GCPPubSub == nil {
		return nil, fmt.Errorf("publisher %q missing gcp_pubsub configuration", cfg.ID)
	}
	sender, err := newGCPPubSubSender(ctx, cfg.GCPPubSub, log)
	if err != nil {
		return nil, err
	}
	return &queuePublisher{
		id:     cfg.ID,
		typ:    TypeGCPPubSub,
		sender: sender,
		close:  sender.Close,
	}, nil
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log logger.Logger) (*gcpPubSubSender, error) {
	if cfg == nil {
		return nil, errors.New("gcp pubsub config is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		client: client,
		topic:  client.Topic(cfg.Topic),
		log:    logger.Ensure(log),
	}, nil
}

// Send publishes the event and waits for the server acknowledgement.
func (s *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := evt.body()
	if err != nil {
		return err
	}

	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(payload),
		Attributes: evt.attributes(),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish to %s: %w", s.topic.ID(), err)
	}
	s.log.DebugObj("pubsub accepted event", "publisher_delivery", map[string]any{
		"topic":      s.topic.ID(),
		"message_id": id,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (s *gcpPubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
