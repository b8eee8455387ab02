package schedules

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = apperr.NotFound("schedule not found")
	ErrDetailNotFound   = apperr.NotFound("schedule detail not found")
	ErrMedicineNotFound = apperr.NotFound("medicine not found")
	ErrNoDetails        = apperr.Validation("at least one schedule detail is required")
	ErrNothingToPatch   = apperr.Validation("no fields to update")
)

// MedicineOwnerLookup lo implementa medicines.Service.
// Se declara acá para no acoplar paquetes de dominio.
type MedicineOwnerLookup interface {
	OwnerOf(ctx context.Context, medicineID string) (string, error)
}

type Service struct {
	repo      Repository
	medicines MedicineOwnerLookup
	clock     clock.Clock
}

func NewService(repo Repository, medicines MedicineOwnerLookup) *Service {
	return &Service{
		repo:      repo,
		medicines: medicines,
		clock:     clock.System(),
	}
}

func (s *Service) WithClock(c clock.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

type DetailInput struct {
	Time      string
	DayOfWeek *int
}

type CreateInput struct {
	MedicineID string
	Type       Type
	StartDate  time.Time
	Details    []DetailInput
}

type UpdateInput struct {
	Type      Type
	StartDate time.Time
	Details   []DetailInput
}

type DetailPatch struct {
	Time      *string
	DayOfWeek *int
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Schedule, error) {
	if err := s.ensureMedicineOwner(ctx, userID, in.MedicineID); err != nil {
		return Schedule{}, err
	}
	if !in.Type.Valid() {
		return Schedule{}, apperr.Validation("schedule_type must be DAILY or WEEKLY")
	}

	now := s.clock.Now()
	sc := Schedule{
		ID:         uuid.NewString(),
		MedicineID: in.MedicineID,
		Type:       in.Type,
		StartDate:  DayOf(in.StartDate),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	details, err := buildDetails(sc.ID, sc.Type, in.Details, now)
	if err != nil {
		return Schedule{}, err
	}
	sc.Details = details
	sortDetails(sc.Details)

	if err := s.repo.CreateSchedule(ctx, sc); err != nil {
		return Schedule{}, err
	}
	return sc, nil
}

func (s *Service) Get(ctx context.Context, userID, scheduleID string) (Schedule, error) {
	sc, err := s.repo.GetSchedule(ctx, strings.TrimSpace(scheduleID))
	if err != nil {
		return Schedule{}, err
	}
	owner, err := s.medicines.OwnerOf(ctx, sc.MedicineID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return Schedule{}, err
	}
	if err != nil || owner != userID {
		return Schedule{}, ErrNotFound
	}
	return sc, nil
}

// ListByMedicine lo usa medicines para ?include=schedules.
func (s *Service) ListByMedicine(ctx context.Context, userID, medicineID string) ([]Schedule, error) {
	if err := s.ensureMedicineOwner(ctx, userID, medicineID); err != nil {
		return nil, err
	}
	return s.repo.ListSchedulesByMedicine(ctx, medicineID)
}

func (s *Service) AddDetails(ctx context.Context, userID, scheduleID string, inputs []DetailInput) ([]Detail, error) {
	sc, err := s.Get(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	details, err := buildDetails(sc.ID, sc.Type, inputs, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddDetails(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// Update reemplaza tipo, fecha de inicio y el set de detalles. Los detalles
// cuyo slot (hora + día) no cambia se conservan con su ID, así su historial
// sobrevive; el resto se borra (en cascada con su historial) o se crea.
func (s *Service) Update(ctx context.Context, userID, scheduleID string, in UpdateInput) (Schedule, error) {
	sc, err := s.Get(ctx, userID, scheduleID)
	if err != nil {
		return Schedule{}, err
	}
	if !in.Type.Valid() {
		return Schedule{}, apperr.Validation("schedule_type must be DAILY or WEEKLY")
	}

	now := s.clock.Now()
	wanted, err := buildDetails(sc.ID, in.Type, in.Details, now)
	if err != nil {
		return Schedule{}, err
	}

	kept := make([]Detail, 0, len(sc.Details))
	add := make([]Detail, 0)
	used := make(map[string]bool)
	for _, w := range wanted {
		match := -1
		for i, cur := range sc.Details {
			if !used[cur.ID] && cur.sameSlot(w) {
				match = i
				break
			}
		}
		if match >= 0 {
			used[sc.Details[match].ID] = true
			kept = append(kept, sc.Details[match])
			continue
		}
		add = append(add, w)
	}
	remove := make([]string, 0)
	for _, cur := range sc.Details {
		if !used[cur.ID] {
			remove = append(remove, cur.ID)
		}
	}

	sc.Type = in.Type
	sc.StartDate = DayOf(in.StartDate)
	sc.UpdatedAt = now
	if err := s.repo.UpdateSchedule(ctx, sc, add, remove); err != nil {
		return Schedule{}, err
	}

	sc.Details = append(kept, add...)
	sortDetails(sc.Details)
	return sc, nil
}

func (s *Service) UpdateDetail(ctx context.Context, userID, detailID string, p DetailPatch) (Detail, error) {
	if p.Time == nil && p.DayOfWeek == nil {
		return Detail{}, ErrNothingToPatch
	}
	v, err := s.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return Detail{}, err
	}

	d := v.Detail
	if p.Time != nil {
		t, err := ParseTimeOfDay(strings.TrimSpace(*p.Time))
		if err != nil {
			return Detail{}, apperr.Validationf("invalid time", err)
		}
		d.Time = t
	}
	if p.DayOfWeek != nil {
		if err := checkDayOfWeek(*p.DayOfWeek); err != nil {
			return Detail{}, err
		}
		dow := *p.DayOfWeek
		d.DayOfWeek = &dow
	}
	if v.ScheduleType == TypeDaily {
		d.DayOfWeek = nil
	}

	if err := s.repo.UpdateDetail(ctx, d); err != nil {
		return Detail{}, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, userID, scheduleID string) error {
	sc, err := s.Get(ctx, userID, scheduleID)
	if err != nil {
		return err
	}
	return s.repo.DeleteSchedule(ctx, sc.ID)
}

func (s *Service) DeleteDetail(ctx context.Context, userID, detailID string) error {
	v, err := s.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return err
	}
	return s.repo.DeleteDetail(ctx, v.Detail.ID)
}

// ListDetails devuelve todas las tomas del usuario ordenadas por hora.
func (s *Service) ListDetails(ctx context.Context, userID string) ([]DetailView, error) {
	return s.repo.ListDetailViewsByOwner(ctx, userID)
}

// DetailsByDate filtra las tomas que aplican ese día (ver DetailView.AppliesOn).
func (s *Service) DetailsByDate(ctx context.Context, userID string, date time.Time) ([]DetailView, error) {
	all, err := s.repo.ListDetailViewsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	day := DayOf(date)
	out := make([]DetailView, 0, len(all))
	for _, v := range all {
		if v.AppliesOn(day) {
			out = append(out, v)
		}
	}
	return out, nil
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

func buildDetails(scheduleID string, typ Type, inputs []DetailInput, now time.Time) ([]Detail, error) {
	if len(inputs) == 0 {
		return nil, ErrNoDetails
	}
	out := make([]Detail, 0, len(inputs))
	for _, in := range inputs {
		t, err := ParseTimeOfDay(strings.TrimSpace(in.Time))
		if err != nil {
			return nil, apperr.Validationf("invalid time", err)
		}
		d := Detail{
			ID:         uuid.NewString(),
			ScheduleID: scheduleID,
			Time:       t,
			CreatedAt:  now,
		}
		if typ == TypeWeekly {
			if in.DayOfWeek == nil {
				return nil, apperr.Validation("day_of_week is required for WEEKLY schedules")
			}
			if err := checkDayOfWeek(*in.DayOfWeek); err != nil {
				return nil, err
			}
			dow := *in.DayOfWeek
			d.DayOfWeek = &dow
		}
		out = append(out, d)
	}
	return out, nil
}

func checkDayOfWeek(n int) error {
	if n < 0 || n > 6 {
		return apperr.Validation("day_of_week must be between 0 and 6")
	}
	return nil
}

func sortDetails(ds []Detail) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Time.Minutes() < ds[j].Time.Minutes()
	})
}
