package history

import (
	"context"
	"fmt"

	"medcare/internal/ports/events"

	"go.uber.org/zap"
)

// sweep materializa MISSED para tomas vencidas sin registro dentro de la
// ventana [hoy - LookbackDays, hoy]. Nunca pisa registros ni toca stock.
func (s *Service) sweep(ctx context.Context, userID string) error {
	if !s.policy.SweepOnRead {
		return nil
	}
	_, err := s.Sweep(ctx, userID)
	return err
}

// Sweep corre el barrido aunque la policy esté apagada (lo usa el CLI).
func (s *Service) Sweep(ctx context.Context, userID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "history.Sweep")
	defer span.End()

	views, err := s.details.ListOwnedDetails(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sweep: list details: %w", err)
	}

	now := s.clock.Now()
	today := CalendarDateOf(now)
	from := today.AddDate(0, 0, -max(s.policy.LookbackDays, 0))

	medicineOf := make(map[string]string, len(views))
	candidates := make([]Occurrence, 0)
	for _, v := range views {
		medicineOf[v.Detail.ID] = v.MedicineID
		start := from
		if v.StartDate.After(start) {
			start = CalendarDateOf(v.StartDate)
		}
		for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
			if !v.AppliesOn(d) || !now.After(ScheduledInstant(d, v.Detail.Time)) {
				continue
			}
			o := fresh(nil, KeyOf(v.Detail.ID, d))
			o.Status = StatusMissed
			o.LastUpdated = now
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	inserted, err := s.store.InsertMissing(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("sweep: insert missing: %w", err)
	}
	s.metrics.Swept(len(inserted))
	for _, o := range inserted {
		e := eventFor(events.OccurrenceMissed, userID, medicineOf[o.DetailID], o, now)
		if err := s.events.Publish(ctx, e); err != nil {
			s.sideEffectFailed(ctx, "publish", err)
		}
	}
	if len(inserted) > 0 {
		s.log.Debug("sweep materialized missed occurrences",
			zap.String("user_id", userID),
			zap.Int("count", len(inserted)),
		)
	}
	return len(inserted), nil
}
