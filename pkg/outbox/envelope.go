package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentEnvelopeVersion is written on every new event.
const CurrentEnvelopeVersion = 1

// ActorRef identifies who produced the event. Guest checkouts carry the
// auto-registered user id; admin status changes carry the admin.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload and sent
// verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ParseEnvelope decodes a message body and rejects envelopes a consumer
// cannot dedupe on: unknown versions and missing or malformed event ids.
func ParseEnvelope(raw []byte) (PayloadEnvelope, uuid.UUID, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version < 1 || env.Version > CurrentEnvelopeVersion {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("invalid event id %q: %w", env.EventID, err)
	}
	return env, eventID, nil
}

// DecodeData unmarshals the event specific payload into v.
func (e PayloadEnvelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope %s has no data", e.EventID)
	}
	return json.Unmarshal(e.Data, v)
}
