package postgres

import (
	"context"
	"fmt"

	"medcare/internal/domain/schedules"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SchedulesRepo struct {
	pool *pgxpool.Pool
}

func NewSchedulesRepo(pool *pgxpool.Pool) *SchedulesRepo {
	return &SchedulesRepo{pool: pool}
}

const detailColumns = `d.id, d.schedule_id, d.time_minutes, d.day_of_week, d.created_at`

func (r *SchedulesRepo) CreateSchedule(ctx context.Context, s schedules.Schedule) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO schedules (id, medicine_id, schedule_type, start_date, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, s.ID, s.MedicineID, string(s.Type), schedules.DayOf(s.StartDate), s.CreatedAt, s.UpdatedAt); err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		return insertDetails(ctx, tx, s.Details)
	})
}

func (r *SchedulesRepo) GetSchedule(ctx context.Context, id string) (schedules.Schedule, error) {
	if !validID(id) {
		return schedules.Schedule{}, schedules.ErrNotFound
	}
	var s schedules.Schedule
	var typ string
	err := r.pool.QueryRow(ctx, `
		SELECT id, medicine_id, schedule_type, start_date, created_at, updated_at
		FROM schedules WHERE id = $1
	`, id).Scan(&s.ID, &s.MedicineID, &typ, &s.StartDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return schedules.Schedule{}, notFound(err, schedules.ErrNotFound)
	}
	s.Type = schedules.Type(typ)

	details, err := r.detailsOf(ctx, r.pool, []string{s.ID})
	if err != nil {
		return schedules.Schedule{}, err
	}
	s.Details = details[s.ID]
	return s, nil
}

func (r *SchedulesRepo) ListSchedulesByMedicine(ctx context.Context, medicineID string) ([]schedules.Schedule, error) {
	if !validID(medicineID) {
		return []schedules.Schedule{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, medicine_id, schedule_type, start_date, created_at, updated_at
		FROM schedules WHERE medicine_id = $1
		ORDER BY created_at ASC
	`, medicineID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedules.Schedule, error) {
		var s schedules.Schedule
		var typ string
		err := row.Scan(&s.ID, &s.MedicineID, &typ, &s.StartDate, &s.CreatedAt, &s.UpdatedAt)
		s.Type = schedules.Type(typ)
		return s, err
	})
	if err != nil || len(out) == 0 {
		return out, err
	}

	ids := make([]string, 0, len(out))
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	details, err := r.detailsOf(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Details = details[out[i].ID]
	}
	return out, nil
}

func (r *SchedulesRepo) UpdateSchedule(ctx context.Context, s schedules.Schedule, add []schedules.Detail, removeIDs []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE schedules SET schedule_type = $2, start_date = $3, updated_at = $4
			WHERE id = $1
		`, s.ID, string(s.Type), schedules.DayOf(s.StartDate), s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return schedules.ErrNotFound
		}
		if len(removeIDs) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM schedule_details WHERE id = ANY($1::uuid[])`, removeIDs); err != nil {
				return fmt.Errorf("delete details: %w", err)
			}
		}
		return insertDetails(ctx, tx, add)
	})
}

func (r *SchedulesRepo) DeleteSchedule(ctx context.Context, id string) error {
	if !validID(id) {
		return schedules.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

func (r *SchedulesRepo) AddDetails(ctx context.Context, details []schedules.Detail) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertDetails(ctx, tx, details)
	})
}

func (r *SchedulesRepo) UpdateDetail(ctx context.Context, d schedules.Detail) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedule_details SET time_minutes = $2, day_of_week = $3 WHERE id = $1
	`, d.ID, d.Time.Minutes(), d.DayOfWeek)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return schedules.ErrDetailNotFound
	}
	return nil
}

func (r *SchedulesRepo) DeleteDetail(ctx context.Context, id string) error {
	if !validID(id) {
		return schedules.ErrDetailNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_details WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return schedules.ErrDetailNotFound
	}
	return nil
}

const detailViewQuery = `
	SELECT ` + detailColumns + `,
		s.schedule_type, s.start_date,
		m.id, m.name, m.active, m.user_id
	FROM schedule_details d
	JOIN schedules s ON s.id = d.schedule_id
	JOIN medicines m ON m.id = s.medicine_id
`

func (r *SchedulesRepo) GetDetailView(ctx context.Context, detailID string) (schedules.DetailView, error) {
	if !validID(detailID) {
		return schedules.DetailView{}, schedules.ErrDetailNotFound
	}
	rows, err := r.pool.Query(ctx, detailViewQuery+` WHERE d.id = $1`, detailID)
	if err != nil {
		return schedules.DetailView{}, err
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanDetailView)
	if err != nil {
		return schedules.DetailView{}, notFound(err, schedules.ErrDetailNotFound)
	}
	return v, nil
}

func (r *SchedulesRepo) ListDetailViewsByOwner(ctx context.Context, userID string) ([]schedules.DetailView, error) {
	rows, err := r.pool.Query(ctx, detailViewQuery+`
		WHERE m.user_id = $1 AND m.active
		ORDER BY d.time_minutes ASC, d.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanDetailView)
}

func (r *SchedulesRepo) detailsOf(ctx context.Context, q querier, scheduleIDs []string) (map[string][]schedules.Detail, error) {
	rows, err := q.Query(ctx, `
		SELECT `+detailColumns+`
		FROM schedule_details d
		WHERE d.schedule_id = ANY($1::uuid[])
		ORDER BY d.time_minutes ASC, d.id ASC
	`, scheduleIDs)
	if err != nil {
		return nil, err
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedules.Detail, error) {
		return scanDetail(row)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]schedules.Detail, len(scheduleIDs))
	for _, d := range list {
		out[d.ScheduleID] = append(out[d.ScheduleID], d)
	}
	return out, nil
}

func insertDetails(ctx context.Context, tx pgx.Tx, details []schedules.Detail) error {
	if len(details) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range details {
		batch.Queue(`
			INSERT INTO schedule_details (id, schedule_id, time_minutes, day_of_week, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, d.ID, d.ScheduleID, d.Time.Minutes(), d.DayOfWeek, d.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert details: %w", err)
	}
	return nil
}

func scanDetail(row pgx.Row) (schedules.Detail, error) {
	var d schedules.Detail
	var minutes int
	err := row.Scan(&d.ID, &d.ScheduleID, &minutes, &d.DayOfWeek, &d.CreatedAt)
	d.Time = schedules.TimeOfDayFromMinutes(minutes)
	return d, err
}

func scanDetailView(row pgx.CollectableRow) (schedules.DetailView, error) {
	var v schedules.DetailView
	var minutes int
	var typ string
	err := row.Scan(
		&v.Detail.ID, &v.Detail.ScheduleID, &minutes, &v.Detail.DayOfWeek, &v.Detail.CreatedAt,
		&typ, &v.StartDate,
		&v.MedicineID, &v.MedicineName, &v.MedicineActive, &v.OwnerUserID,
	)
	v.Detail.Time = schedules.TimeOfDayFromMinutes(minutes)
	v.ScheduleType = schedules.Type(typ)
	return v, err
}
