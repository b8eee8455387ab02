package memory

import (
	"sync"

	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/reminders"
	"medcare/internal/domain/schedules"
	"medcare/internal/domain/settings"
)

// DB es el estado compartido de todos los repos in-memory. Un único mutex
// permite que el historial y el stock cambien juntos y que los joins de
// ownership vean un snapshot consistente.
type DB struct {
	mu sync.RWMutex

	medicines   map[string]medicines.Medicine
	schedules   map[string]schedules.Schedule // sin Details
	details     map[string]schedules.Detail
	occurrences map[history.Key]history.Occurrence
	settings    map[string]settings.Settings
	reminders   map[string]reminders.Reminder
}

func NewDB() *DB {
	return &DB{
		medicines:   make(map[string]medicines.Medicine),
		schedules:   make(map[string]schedules.Schedule),
		details:     make(map[string]schedules.Detail),
		occurrences: make(map[history.Key]history.Occurrence),
		settings:    make(map[string]settings.Settings),
		reminders:   make(map[string]reminders.Reminder),
	}
}

// detailView arma la cadena Detail -> Schedule -> Medicine. Requiere lock.
func (db *DB) detailView(d schedules.Detail) (schedules.DetailView, bool) {
	sc, ok := db.schedules[d.ScheduleID]
	if !ok {
		return schedules.DetailView{}, false
	}
	m, ok := db.medicines[sc.MedicineID]
	if !ok {
		return schedules.DetailView{}, false
	}
	return schedules.DetailView{
		Detail:         d,
		ScheduleType:   sc.Type,
		StartDate:      sc.StartDate,
		MedicineID:     m.ID,
		MedicineName:   m.Name,
		MedicineActive: m.Active,
		OwnerUserID:    m.UserID,
	}, true
}

// deleteDetail borra el detalle y su historial. Requiere lock.
func (db *DB) deleteDetail(id string) {
	delete(db.details, id)
	for k := range db.occurrences {
		if k.DetailID == id {
			delete(db.occurrences, k)
		}
	}
}
