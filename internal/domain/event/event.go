package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a committed change to a claim
type Event struct {
	ID          string                 `json:"id"`
	Type        Type                   `json:"type"`
	ClaimID     int64                  `json:"claimId"`
	ActorUserID int64                  `json:"actorUserId"`
	FromStatus  string                 `json:"fromStatus,omitempty"`
	ToStatus    string                 `json:"toStatus,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewEvent creates a domain event with a generated ID and the current time
func NewEvent(eventType Type, claimID, actorUserID int64, from, to string) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ClaimID:     claimID,
		ActorUserID: actorUserID,
		FromStatus:  from,
		ToStatus:    to,
		Payload:     map[string]interface{}{},
		Timestamp:   time.Now(),
	}
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	cp := *e
	cp.Payload = newPayload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
