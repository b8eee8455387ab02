package reminders

import "time"

// Status de un recordatorio puntual.
// @Enum PENDING, DONE, MISSED
type Status string

const (
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
	StatusMissed  Status = "MISSED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone || s == StatusMissed
}

// Reminder es un aviso en un instante concreto para un medicamento.
type Reminder struct {
	ID         string
	MedicineID string
	Time       time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
