// Package realtime implements the live-delivery core: canonical channel
// addressing, per-user topic fan-out, and connection lifecycle hooks.
//
// Delivery is at-most-once with no retries. Refresh publishes carry the full
// current list rather than deltas, so a subscriber's state is always "last
// message wins"; under network reordering a stale list can transiently
// overwrite a fresher one, which is an accepted tradeoff.
package realtime

import (
	"context"

	"github.com/rs/zerolog"
)

// Publisher delivers a payload to every live subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// MultiPublisher fans a publish out to several backends (in-process hub,
// broker). A failing backend is logged and skipped; it never blocks the
// others or the caller.
type MultiPublisher struct {
	targets []Publisher
	log     *zerolog.Logger
}

// NewMultiPublisher composes targets into one best-effort publisher.
func NewMultiPublisher(logger *zerolog.Logger, targets ...Publisher) *MultiPublisher {
	return &MultiPublisher{targets: targets, log: logger}
}

// Publish sends to every backend. Always returns nil; failures are logged.
func (m *MultiPublisher) Publish(ctx context.Context, topic string, payload any) error {
	for _, t := range m.targets {
		if err := t.Publish(ctx, topic, payload); err != nil {
			m.log.Warn().Err(err).Str("topic", topic).Msg("publish failed")
		}
	}
	return nil
}
