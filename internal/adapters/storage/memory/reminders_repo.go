package memory

import (
	"context"
	"errors"
	"sort"

	"medcare/internal/domain/reminders"
)

type remindersRepo struct{ db *DB }

func NewRemindersRepo(db *DB) reminders.Repository {
	return &remindersRepo{db: db}
}

func (r *remindersRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if rem.ID == "" {
		return errors.New("reminder id required")
	}
	if _, exists := r.db.reminders[rem.ID]; exists {
		return errors.New("reminder already exists")
	}
	r.db.reminders[rem.ID] = rem
	return nil
}

func (r *remindersRepo) Update(ctx context.Context, rem reminders.Reminder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.reminders[rem.ID]; !ok {
		return reminders.ErrNotFound
	}
	r.db.reminders[rem.ID] = rem
	return nil
}

func (r *remindersRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.reminders[id]; !ok {
		return reminders.ErrNotFound
	}
	delete(r.db.reminders, id)
	return nil
}

func (r *remindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rem, ok := r.db.reminders[id]
	if !ok {
		return reminders.Reminder{}, reminders.ErrNotFound
	}
	return rem, nil
}

func (r *remindersRepo) ListByMedicine(ctx context.Context, medicineID string) ([]reminders.Reminder, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.db.reminders {
		if rem.MedicineID == medicineID {
			out = append(out, rem)
		}
	}
	sortByTime(out)
	return out, nil
}

func (r *remindersRepo) ListByOwner(ctx context.Context, userID string) ([]reminders.Reminder, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.db.reminders {
		m, ok := r.db.medicines[rem.MedicineID]
		if !ok || !m.Active || m.UserID != userID {
			continue
		}
		out = append(out, rem)
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(items []reminders.Reminder) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Time.Equal(items[j].Time) {
			return items[i].Time.Before(items[j].Time)
		}
		return items[i].ID < items[j].ID
	})
}
