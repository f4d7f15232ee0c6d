package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lanalbum/albumclient/internal/model"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("")
	if _, ok := p.(noop); !ok {
		t.Fatalf("NewPublisher(\"\") = %T, want noop", p)
	}
	if err := p.PublishMediaChanged(context.Background(), MediaChange{Action: ActionLiked, MediaID: "m1"}); err != nil {
		t.Errorf("PublishMediaChanged() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewPublisherUnreachableFallsBack(t *testing.T) {
	p := NewPublisher("nats://127.0.0.1:1")
	if _, ok := p.(noop); !ok {
		t.Errorf("NewPublisher(unreachable) = %T, want noop", p)
	}
}

func TestEnvelope(t *testing.T) {
	change := MediaChange{Action: ActionTagged, MediaID: "m1", TagID: "t1"}
	if got := change.Subject(); got != "album.media.tagged" {
		t.Errorf("Subject() = %v, want album.media.tagged", got)
	}

	b, err := json.Marshal(newEnvelope(change.Subject(), change))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded struct {
		Type          string      `json:"type"`
		Version       string      `json:"version"`
		CorrelationID string      `json:"correlationId"`
		Payload       MediaChange `json:"payload"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Type != "album.media.tagged" || decoded.Version != "1.0.0" || decoded.CorrelationID == "" {
		t.Errorf("envelope = %+v", decoded)
	}
	if decoded.Payload != change {
		t.Errorf("payload = %+v, want %+v", decoded.Payload, change)
	}

	tagEnv := newEnvelope(subjectTagCreate, model.Tag{ID: "t9", Name: "Sunsets"})
	if tagEnv.Type != "album.tags.created" {
		t.Errorf("tag envelope type = %v", tagEnv.Type)
	}
}
