// Package events defines the external event type carried between
// receivers and the dispatcher.
package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Topic is the event bus topic all external events travel on.
const Topic = "mordomo.events"

// Metadata keys set on bus messages.
const (
	SourceMetadataKey = "event_source"
	TypeMetadataKey   = "event_type"
)

// ErrInvalidEvent reports an event missing its source or type.
var ErrInvalidEvent = errors.New("event requires a source and a type")

// ExternalEvent is something that happened outside the process and may
// match event-triggered workflows on (Source, Type). Data is the open
// payload receivers pass through unchanged.
type ExternalEvent struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}

// NewExternalEvent builds an event with a fresh id and the current time.
func NewExternalEvent(source, eventType string, data map[string]any) ExternalEvent {
	return ExternalEvent{
		ID:     uuid.New().String(),
		Source: source,
		Type:   eventType,
		Data:   data,
		At:     time.Now().UTC(),
	}
}

// Validate rejects events without a source or type, which could never
// match a workflow.
func (e ExternalEvent) Validate() error {
	if e.Source == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	return nil
}
