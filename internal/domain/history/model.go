package history

import (
	"time"

	"medcare/internal/domain/schedules"
)

const DateLayout = "2006-01-02"

// Status de una ocurrencia.
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

// Occurrence es el registro persistido ("history") de una toma en un día.
// Invariante: Status == DONE sii TimeTaken != nil.
type Occurrence struct {
	ID          string
	DetailID    string
	Date        time.Time
	TimeTaken   *time.Time
	Status      Status
	LastUpdated time.Time
}

func (o Occurrence) Key() Key { return KeyOf(o.DetailID, o.Date) }

func (o Occurrence) consistent() bool {
	return (o.Status == StatusDone) == (o.TimeTaken != nil)
}

func (o Occurrence) sameState(p Occurrence) bool {
	if o.Status != p.Status || !o.LastUpdated.Equal(p.LastUpdated) {
		return false
	}
	if o.TimeTaken == nil || p.TimeTaken == nil {
		return o.TimeTaken == nil && p.TimeTaken == nil
	}
	return o.TimeTaken.Equal(*p.TimeTaken)
}

// Entry es una ocurrencia enriquecida para lecturas.
type Entry struct {
	Occurrence
	MedicineID    string
	MedicineName  string
	ScheduledTime schedules.TimeOfDay
}

// Outcome etiqueta el resultado de un upsert.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

type UpsertResult struct {
	Outcome  Outcome
	Previous *Status // nil si se creó
	Current  Occurrence
}

// EnteredDone: la escritura llevó la ocurrencia a DONE desde otro estado.
func (r UpsertResult) EnteredDone() bool {
	if r.Outcome == OutcomeUnchanged || r.Current.Status != StatusDone {
		return false
	}
	return r.Previous == nil || *r.Previous != StatusDone
}

// LeftDone: la ocurrencia era DONE y dejó de serlo.
func (r UpsertResult) LeftDone() bool {
	return r.Outcome == OutcomeUpdated && r.Previous != nil &&
		*r.Previous == StatusDone && r.Current.Status != StatusDone
}

// ComplianceSnapshot resume una semana.
type ComplianceSnapshot struct {
	Total          int
	Completed      int
	Missed         int
	ComplianceRate float64
}
