package history

import (
	"context"
	"math"
	"time"
)

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 100
)

// WeekRange devuelve lunes 00:00:00 .. domingo 23:59:59 (UTC) de la semana
// que contiene ref.
func WeekRange(ref time.Time) (time.Time, time.Time) {
	day := CalendarDateOf(ref)
	offset := (int(day.Weekday()) + 6) % 7 // lunes = 0
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}

// Rate es completed/total*100 redondeado a 2 decimales; 0 sin ocurrencias.
func Rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	r := float64(completed) / float64(total) * 100
	return math.Round(r*100) / 100
}

func Summarize(entries []Entry) ComplianceSnapshot {
	var s ComplianceSnapshot
	for _, e := range entries {
		s.Total++
		switch e.Status {
		case StatusDone:
			s.Completed++
		case StatusMissed:
			s.Missed++
		}
	}
	s.ComplianceRate = Rate(s.Completed, s.Total)
	return s
}

// WeeklyComplianceList: ocurrencias de la semana actual por fecha y hora.
func (s *Service) WeeklyComplianceList(ctx context.Context, userID string) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "history.WeeklyComplianceList")
	defer span.End()

	if err := s.sweep(ctx, userID); err != nil {
		return nil, err
	}
	start, end := WeekRange(s.clock.Now())
	return s.store.ListByOwner(ctx, userID, Query{From: start, To: end, Order: OrderDateAsc})
}

func (s *Service) WeeklySnapshot(ctx context.Context, userID string) (ComplianceSnapshot, error) {
	entries, err := s.WeeklyComplianceList(ctx, userID)
	if err != nil {
		return ComplianceSnapshot{}, err
	}
	snap := Summarize(entries)
	s.metrics.ComplianceRate(snap.ComplianceRate)
	return snap, nil
}

func (s *Service) WeeklyComplianceRate(ctx context.Context, userID string) (float64, error) {
	snap, err := s.WeeklySnapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return snap.ComplianceRate, nil
}

func (s *Service) WeeklyMissedCount(ctx context.Context, userID string) (int, error) {
	snap, err := s.WeeklySnapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	return snap.Missed, nil
}

// RecentActivity: solo DONE y MISSED, por lastUpdated descendente.
func (s *Service) RecentActivity(ctx context.Context, userID string, limit int) ([]Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	if err := s.sweep(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, userID, Query{
		Statuses: []Status{StatusDone, StatusMissed},
		Order:    OrderLastUpdatedDesc,
		Limit:    limit,
	})
}

func (s *Service) AllHistory(ctx context.Context, userID string) ([]Entry, error) {
	if err := s.sweep(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, userID, Query{Order: OrderDateDesc})
}
