package history

import (
	"fmt"
	"time"

	"medcare/internal/domain/schedules"
)

// CalendarDateOf trunca un instante a la medianoche UTC de su día.
func CalendarDateOf(t time.Time) time.Time { return schedules.DayOf(t) }

// Key identifica una ocurrencia: una toma (detail) en un día calendario.
type Key struct {
	DetailID string
	Date     time.Time
}

func KeyOf(detailID string, date time.Time) Key {
	return Key{DetailID: detailID, Date: CalendarDateOf(date)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.DetailID, k.Date.Format(DateLayout))
}

// ScheduledInstant es la fecha + hora de la toma en UTC.
func ScheduledInstant(date time.Time, at schedules.TimeOfDay) time.Time {
	return at.On(CalendarDateOf(date))
}

func IsToday(date, now time.Time) bool {
	return CalendarDateOf(date).Equal(CalendarDateOf(now))
}

// nextMidnight es el vencimiento del mute de una ocurrencia.
func nextMidnight(date time.Time) time.Time {
	return CalendarDateOf(date).AddDate(0, 0, 1)
}
