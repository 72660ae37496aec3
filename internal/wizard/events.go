package wizard

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channels the wizard publishes to. Payloads carry the session id and step
// names only, never the applicant's answers.
const (
	EventStep      = "EVENT_INTAKE_STEP"
	EventSubmitted = "EVENT_INTAKE_SUBMITTED"
)

// Publisher is the subset of *redis.Client used for events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// publish sends an event (non-fatal).
func (s *Service) publish(ctx context.Context, channel string, fields map[string]string) {
	if s.pub == nil {
		return
	}
	fields["type"] = channel
	event, _ := json.Marshal(fields)
	if err := s.pub.Publish(ctx, channel, event).Err(); err != nil {
		slog.Warn("publish "+channel+" failed", "err", err)
	}
}
