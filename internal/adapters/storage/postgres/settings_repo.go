package postgres

import (
	"context"

	"medcare/internal/domain/settings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context, userID string) (settings.Settings, error) {
	var s settings.Settings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, alarm_sound, notification_sound, updated_at
		FROM settings WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.AlarmSound, &s.NotificationSound, &s.UpdatedAt)
	if err != nil {
		return settings.Settings{}, notFound(err, settings.ErrNotFound)
	}
	return s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s settings.Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (user_id, alarm_sound, notification_sound, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO UPDATE SET
			alarm_sound = EXCLUDED.alarm_sound,
			notification_sound = EXCLUDED.notification_sound,
			updated_at = EXCLUDED.updated_at
	`, s.UserID, s.AlarmSound, s.NotificationSound, s.UpdatedAt)
	return err
}

func (r *SettingsRepo) CreateIfAbsent(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO settings (user_id, alarm_sound, notification_sound, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id) DO NOTHING
	`, s.UserID, s.AlarmSound, s.NotificationSound, s.UpdatedAt); err != nil {
		return settings.Settings{}, err
	}
	return r.Get(ctx, s.UserID)
}
