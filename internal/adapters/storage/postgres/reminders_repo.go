package postgres

import (
	"context"

	"medcare/internal/domain/reminders"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RemindersRepo struct {
	pool *pgxpool.Pool
}

func NewRemindersRepo(pool *pgxpool.Pool) *RemindersRepo {
	return &RemindersRepo{pool: pool}
}

const reminderColumns = `r.id, r.medicine_id, r.time, r.status, r.created_at, r.updated_at`

func (r *RemindersRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminders (id, medicine_id, time, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, rem.ID, rem.MedicineID, rem.Time, string(rem.Status), rem.CreatedAt, rem.UpdatedAt)
	return err
}

func (r *RemindersRepo) Update(ctx context.Context, rem reminders.Reminder) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET time = $2, status = $3, updated_at = $4 WHERE id = $1
	`, rem.ID, rem.Time, string(rem.Status), rem.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reminders.ErrNotFound
	}
	return nil
}

func (r *RemindersRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return reminders.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reminders.ErrNotFound
	}
	return nil
}

func (r *RemindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	if !validID(id) {
		return reminders.Reminder{}, reminders.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reminderColumns+` FROM reminders r WHERE r.id = $1`, id)
	if err != nil {
		return reminders.Reminder{}, err
	}
	rem, err := pgx.CollectExactlyOneRow(rows, scanReminder)
	if err != nil {
		return reminders.Reminder{}, notFound(err, reminders.ErrNotFound)
	}
	return rem, nil
}

func (r *RemindersRepo) ListByMedicine(ctx context.Context, medicineID string) ([]reminders.Reminder, error) {
	if !validID(medicineID) {
		return []reminders.Reminder{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+` FROM reminders r
		WHERE r.medicine_id = $1
		ORDER BY r.time ASC, r.id ASC
	`, medicineID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReminder)
}

func (r *RemindersRepo) ListByOwner(ctx context.Context, userID string) ([]reminders.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+` FROM reminders r
		JOIN medicines m ON m.id = r.medicine_id
		WHERE m.user_id = $1 AND m.active
		ORDER BY r.time ASC, r.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReminder)
}

func scanReminder(row pgx.CollectableRow) (reminders.Reminder, error) {
	var rem reminders.Reminder
	var status string
	err := row.Scan(&rem.ID, &rem.MedicineID, &rem.Time, &status, &rem.CreatedAt, &rem.UpdatedAt)
	rem.Status = reminders.Status(status)
	return rem, err
}
