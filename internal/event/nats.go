// Package event publishes confirmed store transitions to NATS JetStream so other devices
// on the LAN can follow likes, favourites, tag edits and deletions.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/lanalbum/albumclient/internal/metrics"
	"github.com/lanalbum/albumclient/internal/model"
)

// Action names a confirmed per-item mutation.
type Action string

const (
	ActionLiked       Action = "liked"
	ActionUnliked     Action = "unliked"
	ActionFavorited   Action = "favorited"
	ActionUnfavorited Action = "unfavorited"
	ActionTagged      Action = "tagged"
	ActionUntagged    Action = "untagged"
	ActionDeleted     Action = "deleted"
)

// MediaChange describes one confirmed mutation of a media item.
type MediaChange struct {
	Action  Action `json:"action"`
	MediaID string `json:"mediaId"`
	TagID   string `json:"tagId,omitempty"`
}

// Publisher is the event sink used by the stores. Publish errors never roll back state;
// callers log them.
type Publisher interface {
	PublishMediaChanged(ctx context.Context, change MediaChange) error
	PublishTagCreated(ctx context.Context, tag model.Tag) error
	Close() error
}

// noop is used when NATS is not configured or unreachable.
type noop struct{}

// NewNoop returns a Publisher that discards every event.
func NewNoop() Publisher { return noop{} }

func (noop) Close() error { return nil }
func (noop) PublishMediaChanged(ctx context.Context, _ MediaChange) error { return nil }
func (noop) PublishTagCreated(ctx context.Context, _ model.Tag) error { return nil }

const (
	streamName       = "ALBUM_MEDIA"
	subjectPrefix    = "album.media."
	subjectTagCreate = "album.tags.created"
)

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	metrics *metrics.Metrics
}

// NewPublisher connects to url. An empty url, or any connection or stream setup failure,
// yields a no-op publisher so the client keeps working without NATS.
func NewPublisher(url string) Publisher {
	if url == "" {
		return noop{}
	}

	nc, err := nats.Connect(url, nats.Name("albumclient"), nats.Timeout(2*time.Second))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return noop{}
	}

	if err := initStream(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return noop{}
	}

	return &natsPub{nc: nc, js: js, metrics: metrics.NewMetrics()}
}

// initStream creates the ALBUM_MEDIA stream if it does not exist yet.
func initStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(streamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + "*", subjectTagCreate},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s stream: %w", streamName, err)
	}
	return nil
}

// EventEnvelope represents the standard event envelope structure.
type EventEnvelope struct {
	Type          string    `json:"type"`
	Version       string    `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"`
	Payload       any       `json:"payload"`
}

func newEnvelope(typ string, payload any) EventEnvelope {
	return EventEnvelope{
		Type:          typ,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}
}

// Subject returns the subject a media change is published on.
func (c MediaChange) Subject() string {
	return subjectPrefix + string(c.Action)
}

func (p *natsPub) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}

func (p *natsPub) PublishMediaChanged(ctx context.Context, change MediaChange) error {
	return p.publish(ctx, change.Subject(), change)
}

func (p *natsPub) PublishTagCreated(ctx context.Context, tag model.Tag) error {
	return p.publish(ctx, subjectTagCreate, tag)
}

func (p *natsPub) publish(ctx context.Context, subject string, payload any) (err error) {
	start := time.Now()
	defer func() {
		status := metrics.Outcome(err)
		p.metrics.EventPublishTotal.WithLabelValues(subject, status).Inc()
		p.metrics.EventPublishDuration.WithLabelValues(subject, status).Observe(time.Since(start).Seconds())
	}()

	b, err := json.Marshal(newEnvelope(subject, payload))
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, b, nats.Context(ctx))
	return err
}
