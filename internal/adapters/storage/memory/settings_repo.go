package memory

import (
	"context"

	"medcare/internal/domain/settings"
)

type settingsRepo struct{ db *DB }

func NewSettingsRepo(db *DB) settings.Repository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, userID string) (settings.Settings, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.settings[userID]
	if !ok {
		return settings.Settings{}, settings.ErrNotFound
	}
	return s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s settings.Settings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.settings[s.UserID] = s
	return nil
}

func (r *settingsRepo) CreateIfAbsent(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if cur, ok := r.db.settings[s.UserID]; ok {
		return cur, nil
	}
	r.db.settings[s.UserID] = s
	return s, nil
}
