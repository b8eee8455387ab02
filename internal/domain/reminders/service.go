package reminders

import (
	"context"
	"errors"
	"strings"
	"time"

	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = apperr.NotFound("reminder not found")
	ErrMedicineNotFound = apperr.NotFound("medicine not found")
	ErrPastTime         = apperr.Validation("reminder time must be in the future")
	ErrNothingToPatch   = apperr.Validation("no fields to update")
)

type MedicineOwnerLookup interface {
	OwnerOf(ctx context.Context, medicineID string) (string, error)
}

type Service struct {
	repo      Repository
	medicines MedicineOwnerLookup
	clock     clock.Clock
}

func NewService(repo Repository, medicines MedicineOwnerLookup) *Service {
	return &Service{repo: repo, medicines: medicines, clock: clock.System()}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

type CreateInput struct {
	MedicineID string
	Time       time.Time
}

type UpdateInput struct {
	Time   *time.Time
	Status *Status
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Reminder, error) {
	if err := s.ensureMedicineOwner(ctx, userID, in.MedicineID); err != nil {
		return Reminder{}, err
	}
	now := s.clock.Now()
	if !in.Time.After(now) {
		return Reminder{}, ErrPastTime
	}
	rem := Reminder{
		ID:         uuid.NewString(),
		MedicineID: strings.TrimSpace(in.MedicineID),
		Time:       in.Time.UTC(),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, rem); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Reminder, error) {
	rem, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Reminder{}, err
	}
	owner, err := s.medicines.OwnerOf(ctx, rem.MedicineID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return Reminder{}, err
	}
	if err != nil || owner != userID {
		return Reminder{}, ErrNotFound
	}
	return rem, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.repo.ListByOwner(ctx, userID)
}

func (s *Service) ListByMedicine(ctx context.Context, userID, medicineID string) ([]Reminder, error) {
	if err := s.ensureMedicineOwner(ctx, userID, medicineID); err != nil {
		return nil, err
	}
	return s.repo.ListByMedicine(ctx, strings.TrimSpace(medicineID))
}

// Upcoming: PENDING con Time >= ahora.
func (s *Service) Upcoming(ctx context.Context, userID string) ([]Reminder, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]Reminder, 0, len(all))
	for _, r := range all {
		if r.Status == StatusPending && !r.Time.Before(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Reminder, error) {
	if in.Time == nil && in.Status == nil {
		return Reminder{}, ErrNothingToPatch
	}
	rem, err := s.Get(ctx, userID, id)
	if err != nil {
		return Reminder{}, err
	}
	if in.Time != nil {
		if !in.Time.After(s.clock.Now()) {
			return Reminder{}, ErrPastTime
		}
		rem.Time = in.Time.UTC()
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Reminder{}, apperr.Validation("status must be PENDING, DONE or MISSED")
		}
		rem.Status = *in.Status
	}
	rem.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, rem); err != nil {
		return Reminder{}, err
	}
	return rem, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	rem, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, rem.ID)
}

func (s *Service) ensureMedicineOwner(ctx context.Context, userID, medicineID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrUnauthorized
	}
	owner, err := s.medicines.OwnerOf(ctx, strings.TrimSpace(medicineID))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err != nil || owner != userID {
		return ErrMedicineNotFound
	}
	return nil
}
