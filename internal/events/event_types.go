package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventOffsetCreated  EventType = "offset_created"
	EventOffsetUpdated  EventType = "offset_updated"
	EventOffsetDeleted  EventType = "offset_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resource_id"`
	Actor      string      `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// OffsetPayload describes a named offset after the change.
type OffsetPayload struct {
	Label   string `json:"label"`
	City    string `json:"city"`
	Offset  string `json:"offset"`
	OwnerID string `json:"owner_id"`
}
