package settings

import "time"

const DefaultSound = "default"

// Settings son las preferencias de alarma de un usuario. Se crean con
// defaults la primera vez que se leen.
type Settings struct {
	UserID            string
	AlarmSound        string
	NotificationSound string
	UpdatedAt         time.Time
}

func Defaults(userID string, now time.Time) Settings {
	return Settings{
		UserID:            userID,
		AlarmSound:        DefaultSound,
		NotificationSound: DefaultSound,
		UpdatedAt:         now,
	}
}
