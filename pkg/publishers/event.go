package publishers

import (
	"encoding/json"
	"time"
)

// Event is one dashboard snapshot delivered downstream.
type Event struct {
	// Kind names the snapshot, e.g. "dashboard.metrics".
	Kind string `json:"kind"`
	// Source is the API origin the snapshot was read from.
	Source      string          `json:"source"`
	Digest      string          `json:"digest"`
	Data        json.RawMessage `json:"data"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent stamps a snapshot with the current UTC time.
func NewEvent(kind, source, digest string, data json.RawMessage) Event {
	return Event{
		Kind:        kind,
		Source:      source,
		Digest:      digest,
		Data:        data,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached to queue and topic messages so subscribers can
// filter without decoding the body.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_kind": e.Kind,
		"digest":     e.Digest,
	}
}
