package schedules

import (
	"fmt"
	"time"
)

// Type define la recurrencia de un horario.
// @Enum DAILY, WEEKLY
type Type string

const (
	TypeDaily  Type = "DAILY"
	TypeWeekly Type = "WEEKLY"
)

func (t Type) Valid() bool { return t == TypeDaily || t == TypeWeekly }

// TimeOfDay es una hora del día sin zona (HH:mm). Siempre se interpreta en UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time must be in HH:mm format: %w", err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func TimeOfDayFromMinutes(n int) TimeOfDay {
	return TimeOfDay{Hour: n / 60, Minute: n % 60}
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// DayOf trunca un instante a la medianoche UTC de su día. Es la única
// definición de "día calendario" del sistema.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// On devuelve el instante programado para esa fecha (día UTC + hora).
func (t TimeOfDay) On(date time.Time) time.Time {
	return DayOf(date).Add(time.Duration(t.Minutes()) * time.Minute)
}

type Schedule struct {
	ID         string
	MedicineID string
	Type       Type
	StartDate  time.Time // día (medianoche UTC)

	Details []Detail

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Detail es una toma programada dentro de un Schedule.
type Detail struct {
	ID         string
	ScheduleID string
	Time       TimeOfDay
	DayOfWeek  *int // 0=domingo..6=sábado; solo WEEKLY
	CreatedAt  time.Time
}

// sameSlot: misma hora y mismo día de semana.
func (d Detail) sameSlot(o Detail) bool {
	if d.Time != o.Time {
		return false
	}
	if d.DayOfWeek == nil || o.DayOfWeek == nil {
		return d.DayOfWeek == nil && o.DayOfWeek == nil
	}
	return *d.DayOfWeek == *o.DayOfWeek
}

// DetailView es un Detail con la cadena de ownership resuelta
// (Detail -> Schedule -> Medicine -> User). Lo arma el repo con joins.
type DetailView struct {
	Detail Detail

	ScheduleType Type
	StartDate    time.Time

	MedicineID     string
	MedicineName   string
	MedicineActive bool
	OwnerUserID    string
}

// AppliesOn indica si la toma corresponde a ese día: DAILY siempre,
// WEEKLY solo en su día de semana, y nunca antes del inicio del horario.
func (v DetailView) AppliesOn(date time.Time) bool {
	day := date.UTC()
	if day.Before(v.StartDate) {
		return false
	}
	switch v.ScheduleType {
	case TypeDaily:
		return true
	case TypeWeekly:
		return v.Detail.DayOfWeek != nil && *v.Detail.DayOfWeek == int(day.Weekday())
	default:
		return false
	}
}
