package events

import (
	"context"
	"time"
)

type Type string

const (
	OccurrenceTaken   Type = "occurrence.taken"
	OccurrenceSkipped Type = "occurrence.skipped"
	OccurrenceUndone  Type = "occurrence.undone"
	OccurrenceMissed  Type = "occurrence.missed"
)

// OccurrenceEvent se publica después de cada transición confirmada.
type OccurrenceEvent struct {
	Type           Type      `json:"type"`
	UserID         string    `json:"user_id"`
	DetailID       string    `json:"detail_id"`
	MedicineID     string    `json:"medicine_id"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OccurrenceEvent) error
}

// Nop descarta eventos; es el default cuando no hay broker configurado.
type Nop struct{}

func (Nop) Publish(context.Context, OccurrenceEvent) error { return nil }
