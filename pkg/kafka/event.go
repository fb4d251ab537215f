package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the envelope version stamped on every event.
const SchemaVersion = 1

// Event is the envelope for every message the service publishes.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PublishedAt   time.Time       `json:"published_at"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	ActorID       int64           `json:"actor_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// EventMeta describes the aggregate change an event reports.
type EventMeta struct {
	Type          string
	AggregateType string
	AggregateID   int64
	Source        string

	// OccurredAt is when the change was committed. Zero means now.
	OccurredAt    time.Time
	CorrelationID string
	ActorID       int64
}

// NewEvent builds an envelope with a fresh id around data.
func NewEvent(meta EventMeta, data any) (*Event, error) {
	if meta.Type == "" || meta.AggregateType == "" {
		return nil, fmt.Errorf("event type and aggregate type are required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", meta.Type, err)
	}

	now := time.Now().UTC()
	occurred := meta.OccurredAt.UTC()
	if meta.OccurredAt.IsZero() {
		occurred = now
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     meta.Type,
		AggregateID:   strconv.FormatInt(meta.AggregateID, 10),
		AggregateType: meta.AggregateType,
		Version:       SchemaVersion,
		OccurredAt:    occurred,
		PublishedAt:   now,
		Source:        meta.Source,
		CorrelationID: meta.CorrelationID,
		ActorID:       meta.ActorID,
		Data:          raw,
	}, nil
}

// Encode serializes the envelope.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an envelope and rejects versions this package does not know.
func DecodeEvent(raw []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.Version != SchemaVersion {
		return nil, fmt.Errorf("decode event: unsupported version %d", event.Version)
	}
	return &event, nil
}

// DecodeData decodes the payload into target.
func (e *Event) DecodeData(target any) error {
	return json.Unmarshal(e.Data, target)
}
