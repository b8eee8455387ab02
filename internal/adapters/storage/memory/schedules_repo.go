package memory

import (
	"context"
	"errors"
	"sort"

	"medcare/internal/domain/schedules"
)

type schedulesRepo struct{ db *DB }

func NewSchedulesRepo(db *DB) schedules.Repository {
	return &schedulesRepo{db: db}
}

func (r *schedulesRepo) CreateSchedule(ctx context.Context, s schedules.Schedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.ID == "" {
		return errors.New("schedule id required")
	}
	if _, exists := r.db.schedules[s.ID]; exists {
		return errors.New("schedule already exists")
	}
	details := s.Details
	s.Details = nil
	r.db.schedules[s.ID] = s
	for _, d := range details {
		r.db.details[d.ID] = d
	}
	return nil
}

func (r *schedulesRepo) GetSchedule(ctx context.Context, id string) (schedules.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.schedules[id]
	if !ok {
		return schedules.Schedule{}, schedules.ErrNotFound
	}
	s.Details = r.detailsOf(id)
	return s, nil
}

func (r *schedulesRepo) ListSchedulesByMedicine(ctx context.Context, medicineID string) ([]schedules.Schedule, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]schedules.Schedule, 0)
	for _, s := range r.db.schedules {
		if s.MedicineID == medicineID {
			s.Details = r.detailsOf(s.ID)
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *schedulesRepo) UpdateSchedule(ctx context.Context, s schedules.Schedule, add []schedules.Detail, removeIDs []string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.schedules[s.ID]
	if !ok {
		return schedules.ErrNotFound
	}
	cur.Type = s.Type
	cur.StartDate = s.StartDate
	cur.UpdatedAt = s.UpdatedAt
	r.db.schedules[s.ID] = cur

	for _, id := range removeIDs {
		r.db.deleteDetail(id)
	}
	for _, d := range add {
		r.db.details[d.ID] = d
	}
	return nil
}

func (r *schedulesRepo) DeleteSchedule(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.schedules[id]; !ok {
		return schedules.ErrNotFound
	}
	for did, d := range r.db.details {
		if d.ScheduleID == id {
			r.db.deleteDetail(did)
		}
	}
	delete(r.db.schedules, id)
	return nil
}

func (r *schedulesRepo) AddDetails(ctx context.Context, details []schedules.Detail) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, d := range details {
		if _, ok := r.db.schedules[d.ScheduleID]; !ok {
			return schedules.ErrNotFound
		}
	}
	for _, d := range details {
		r.db.details[d.ID] = d
	}
	return nil
}

func (r *schedulesRepo) UpdateDetail(ctx context.Context, d schedules.Detail) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.details[d.ID]; !ok {
		return schedules.ErrDetailNotFound
	}
	r.db.details[d.ID] = d
	return nil
}

func (r *schedulesRepo) DeleteDetail(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.details[id]; !ok {
		return schedules.ErrDetailNotFound
	}
	r.db.deleteDetail(id)
	return nil
}

func (r *schedulesRepo) GetDetailView(ctx context.Context, detailID string) (schedules.DetailView, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	d, ok := r.db.details[detailID]
	if !ok {
		return schedules.DetailView{}, schedules.ErrDetailNotFound
	}
	v, ok := r.db.detailView(d)
	if !ok {
		return schedules.DetailView{}, schedules.ErrDetailNotFound
	}
	return v, nil
}

func (r *schedulesRepo) ListDetailViewsByOwner(ctx context.Context, userID string) ([]schedules.DetailView, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]schedules.DetailView, 0)
	for _, d := range r.db.details {
		v, ok := r.db.detailView(d)
		if !ok || !v.MedicineActive || v.OwnerUserID != userID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Detail.Time.Minutes(), out[j].Detail.Time.Minutes()
		if a != b {
			return a < b
		}
		return out[i].Detail.ID < out[j].Detail.ID
	})
	return out, nil
}

// detailsOf requiere lock.
func (r *schedulesRepo) detailsOf(scheduleID string) []schedules.Detail {
	out := make([]schedules.Detail, 0)
	for _, d := range r.db.details {
		if d.ScheduleID == scheduleID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Time.Minutes(), out[j].Time.Minutes()
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}
