package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"medcare/internal/domain/medicines"
)

type medicinesRepo struct{ db *DB }

func NewMedicinesRepo(db *DB) medicines.Repository {
	return &medicinesRepo{db: db}
}

func (r *medicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	if _, exists := r.db.medicines[m.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.db.medicines[m.ID] = m
	return nil
}

func (r *medicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.medicines[m.ID]
	if !ok {
		return medicines.ErrNotFound
	}
	m.UserID = cur.UserID
	m.CreatedAt = cur.CreatedAt
	r.db.medicines[m.ID] = m
	return nil
}

func (r *medicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.medicines[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, nil
}

func (r *medicinesRepo) ListActiveByUser(ctx context.Context, userID string) ([]medicines.Medicine, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.db.medicines {
		if m.Active && m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
