package publishers

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/newsscrape/internal/logger"
)

// Builder creates the Publisher for one config entry.
type Builder func(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error)

// Builders maps sink types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every sink type the publishers file accepts.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:      newWebhookPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	}
}

// Build instantiates a publisher per entry. On failure the publishers built so
// far are closed.
func (b Builders) Build(ctx context.Context, cfgs []Config, log logger.Logger) ([]Publisher, error) {
	log = logger.Ensure(log)
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := b[cfg.Type]
		if !ok {
			_ = NewFanout(pubs).Close()
			return nil, fmt.Errorf("build publisher %q: no builder for type %q", cfg.ID, cfg.Type)
		}
		pub, err := build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(pubs).Close()
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
