package relay

import (
	"context"
	"time"

	"github.com/samvad-hq/bizdesk/pkg/publishers"
)

// EventPublisher delivers a snapshot to every configured sink and reports how
// many accepted it. *publishers.Fanout implements it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
}

// Deduper remembers the digest last published for each snapshot kind.
// storage.Store implements it.
type Deduper interface {
	LastDigest(kind string) (string, bool, error)
	RecordDigest(kind, digest string) error
}

// Recorder receives relay counters. *metrics.Metrics implements it.
type Recorder interface {
	Snapshot(kind, result string)
	Delivery(kind string, delivered, failed int)
	PassCompleted(at time.Time)
}

type nopRecorder struct{}

func (nopRecorder) Snapshot(string, string)   {}
func (nopRecorder) Delivery(string, int, int) {}
func (nopRecorder) PassCompleted(time.Time)   {}
