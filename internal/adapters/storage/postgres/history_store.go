package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// upsertAttempts acota el reintento cuando un INSERT concurrente gana la
// carrera por (detail_id, date).
const upsertAttempts = 3

type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

const occurrenceColumns = `h.id, h.detail_id, h.date, h.time_taken, h.status, h.last_updated`

func (s *HistoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx history.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

func (s *HistoryStore) Get(ctx context.Context, key history.Key) (history.Occurrence, error) {
	if !validID(key.DetailID) {
		return history.Occurrence{}, history.ErrOccurrenceNotFound
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+occurrenceColumns+` FROM history h
		WHERE h.detail_id = $1 AND h.date = $2
	`, key.DetailID, history.CalendarDateOf(key.Date))
	if err != nil {
		return history.Occurrence{}, err
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOccurrence)
	if err != nil {
		return history.Occurrence{}, notFound(err, history.ErrOccurrenceNotFound)
	}
	return o, nil
}

func (s *HistoryStore) ListByOwner(ctx context.Context, userID string, q history.Query) ([]history.Entry, error) {
	var sb strings.Builder
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sb.WriteString(`
		SELECT ` + occurrenceColumns + `, m.id, m.name, d.time_minutes
		FROM history h
		JOIN schedule_details d ON d.id = h.detail_id
		JOIN schedules s ON s.id = d.schedule_id
		JOIN medicines m ON m.id = s.medicine_id
		WHERE m.user_id = $1`)
	if !q.From.IsZero() {
		sb.WriteString(` AND h.date >= ` + arg(history.CalendarDateOf(q.From)))
	}
	if !q.To.IsZero() {
		sb.WriteString(` AND h.date <= ` + arg(history.CalendarDateOf(q.To)))
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		sb.WriteString(` AND h.status = ANY(` + arg(statuses) + `)`)
	}
	switch q.Order {
	case history.OrderDateAsc:
		sb.WriteString(` ORDER BY h.date ASC, d.time_minutes ASC, h.id ASC`)
	case history.OrderLastUpdatedDesc:
		sb.WriteString(` ORDER BY h.last_updated DESC, h.id ASC`)
	default:
		sb.WriteString(` ORDER BY h.date DESC, d.time_minutes ASC, h.id ASC`)
	}
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(q.Limit))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Entry, error) {
		var e history.Entry
		var status string
		var minutes int
		err := row.Scan(
			&e.ID, &e.DetailID, &e.Date, &e.TimeTaken, &status, &e.LastUpdated,
			&e.MedicineID, &e.MedicineName, &minutes,
		)
		e.Status = history.Status(status)
		e.ScheduledTime = schedules.TimeOfDayFromMinutes(minutes)
		return e, err
	})
}

// InsertMissing usa ON CONFLICT DO NOTHING: un registro existente nunca se
// pisa, y un detalle borrado en el medio simplemente no inserta.
func (s *HistoryStore) InsertMissing(ctx context.Context, occs []history.Occurrence) ([]history.Occurrence, error) {
	if len(occs) == 0 {
		return nil, nil
	}
	batch := &pgx.Batch{}
	for _, o := range occs {
		batch.Queue(`
			INSERT INTO history (id, detail_id, date, time_taken, status, last_updated)
			SELECT $1::uuid, $2::uuid, $3::date, NULL, $4::text, $5::timestamptz
			WHERE EXISTS (SELECT 1 FROM schedule_details WHERE id = $2::uuid)
			ON CONFLICT (detail_id, date) DO NOTHING
			RETURNING id
		`, o.ID, o.DetailID, history.CalendarDateOf(o.Date), string(o.Status), o.LastUpdated)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := make([]history.Occurrence, 0)
	for _, o := range occs {
		var id string
		err := br.QueryRow().Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert missing %s: %w", o.Key(), err)
		}
		o.Date = history.CalendarDateOf(o.Date)
		inserted = append(inserted, o)
	}
	return inserted, nil
}

type pgTx struct {
	tx pgx.Tx
}

// Upsert bloquea la fila existente (FOR UPDATE); si no hay, inserta con
// ON CONFLICT DO NOTHING y, si otro INSERT ganó, vuelve a bloquear.
func (t *pgTx) Upsert(ctx context.Context, key history.Key, mutate history.Mutation) (history.UpsertResult, error) {
	key = history.KeyOf(key.DetailID, key.Date)

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		prev, err := t.lock(ctx, key)
		if err != nil {
			return history.UpsertResult{}, err
		}
		next, res, write, err := history.Resolve(key, prev, mutate)
		if err != nil || !write {
			return res, err
		}

		if prev != nil {
			_, err := t.tx.Exec(ctx, `
				UPDATE history SET time_taken = $2, status = $3, last_updated = $4
				WHERE id = $1
			`, next.ID, next.TimeTaken, string(next.Status), next.LastUpdated)
			if err != nil {
				return history.UpsertResult{}, fmt.Errorf("update occurrence %s: %w", key, err)
			}
			return res, nil
		}

		tag, err := t.tx.Exec(ctx, `
			INSERT INTO history (id, detail_id, date, time_taken, status, last_updated)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (detail_id, date) DO NOTHING
		`, next.ID, key.DetailID, key.Date, next.TimeTaken, string(next.Status), next.LastUpdated)
		if err != nil {
			return history.UpsertResult{}, fmt.Errorf("insert occurrence %s: %w", key, err)
		}
		if tag.RowsAffected() == 1 {
			return res, nil
		}
	}
	return history.UpsertResult{}, fmt.Errorf("upsert occurrence %s: lost %d insert races", key, upsertAttempts)
}

func (t *pgTx) lock(ctx context.Context, key history.Key) (*history.Occurrence, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+occurrenceColumns+` FROM history h
		WHERE h.detail_id = $1 AND h.date = $2
		FOR UPDATE
	`, key.DetailID, key.Date)
	if err != nil {
		return nil, fmt.Errorf("lock occurrence %s: %w", key, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOccurrence)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock occurrence %s: %w", key, err)
	}
	return &o, nil
}

func (t *pgTx) AdjustStock(ctx context.Context, medicineID string, delta int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE medicines SET stock = stock + $2, updated_at = NOW() WHERE id = $1
	`, medicineID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func scanOccurrence(row pgx.CollectableRow) (history.Occurrence, error) {
	var o history.Occurrence
	var status string
	err := row.Scan(&o.ID, &o.DetailID, &o.Date, &o.TimeTaken, &status, &o.LastUpdated)
	o.Status = history.Status(status)
	return o, err
}
