package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// ReelStatusChanged is emitted into the outbox on every status transition
// so downstream consumers can follow pipeline progress without polling.
type ReelStatusChanged struct {
	eventID    uuid.UUID
	reelID     uuid.UUID
	from       Status
	to         Status
	occurredAt time.Time
}

func NewReelStatusChanged(reelID uuid.UUID, from, to Status) *ReelStatusChanged {
	return &ReelStatusChanged{
		eventID:    uuid.New(),
		reelID:     reelID,
		from:       from,
		to:         to,
		occurredAt: time.Now(),
	}
}

func (e *ReelStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *ReelStatusChanged) EventType() string      { return "ReelStatusChanged" }
func (e *ReelStatusChanged) AggregateID() uuid.UUID { return e.reelID }
func (e *ReelStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

func (e *ReelStatusChanged) From() Status { return e.from }
func (e *ReelStatusChanged) To() Status   { return e.to }

func (e *ReelStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		ReelID     uuid.UUID `json:"reel_id"`
		From       Status    `json:"from"`
		To         Status    `json:"to"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		ReelID:     e.reelID,
		From:       e.from,
		To:         e.to,
		OccurredAt: e.occurredAt,
	})
}
