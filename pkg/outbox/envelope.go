package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID     uuid.UUID `json:"userId"`
	BusinessID uuid.UUID `json:"businessId"`
	Role       string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
// Consumers key off version and eventId, so neither field may be repurposed.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
