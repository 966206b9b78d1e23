// Package events publishes record change notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies peopledesk as the event producer.
const Source = "peopledesk"

// Change operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// Event is the envelope written to the bus.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Source  string          `json:"source"`
	Subject string          `json:"subject"`
	Time    time.Time       `json:"time"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Change is the payload of a record change event.
type Change struct {
	Collection string          `json:"collection"`
	Operation  string          `json:"operation"`
	RecordID   string          `json:"recordId"`
	Record     json.RawMessage `json:"record,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event Event) error
	Close() error
}

// NewChangeEvent builds the event for a change to one record. record may be
// nil for deletions.
func NewChangeEvent(collection, operation, recordID string, record any, now time.Time) (Event, error) {
	change := Change{Collection: collection, Operation: operation, RecordID: recordID}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return Event{}, fmt.Errorf("marshaling record: %w", err)
		}
		change.Record = raw
	}
	data, err := json.Marshal(change)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling change: %w", err)
	}
	return Event{
		ID:      uuid.NewString(),
		Type:    Source + "." + collection + "." + operation,
		Source:  Source,
		Subject: recordID,
		Time:    now.UTC(),
		Data:    data,
	}, nil
}

// SubjectFor returns the bus subject for a change under prefix.
func SubjectFor(prefix, collection, operation string) string {
	return prefix + "." + collection + "." + operation
}

// Noop discards every event.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, string, Event) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }
