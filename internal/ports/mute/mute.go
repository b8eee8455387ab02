package mute

import (
	"context"
	"fmt"
	"time"
)

// Key identifica la alarma de una toma concreta de un usuario.
type Key struct {
	UserID   string
	DetailID string
	Date     time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("mute:%s:%s:%s", k.UserID, k.DetailID, k.Date.UTC().Format("2006-01-02"))
}

// Store silencia alarmas hasta un instante. Las entradas vencen solas.
type Store interface {
	Mute(ctx context.Context, k Key, until time.Time) error
	Unmute(ctx context.Context, k Key) error
	IsMuted(ctx context.Context, k Key) (bool, error)
}
