package postgres

import (
	"context"

	"medcare/internal/domain/medicines"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MedicinesRepo struct {
	pool *pgxpool.Pool
}

func NewMedicinesRepo(pool *pgxpool.Pool) *MedicinesRepo {
	return &MedicinesRepo{pool: pool}
}

const medicineColumns = `id, user_id, name, type, dosage, stock, min_stock, notes, active, created_at, updated_at`

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medicines (`+medicineColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID, m.UserID,
		m.Name, m.Type, m.Dosage,
		m.Stock, m.MinStock,
		m.Notes, m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medicines
		SET
			name = $2,
			type = $3,
			dosage = $4,
			stock = $5,
			min_stock = $6,
			notes = $7,
			active = $8,
			updated_at = $9
		WHERE id = $1
	`,
		m.ID,
		m.Name, m.Type, m.Dosage,
		m.Stock, m.MinStock,
		m.Notes, m.Active,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return medicines.ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	if !validID(id) {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	if err != nil {
		return medicines.Medicine{}, err
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMedicine)
	if err != nil {
		return medicines.Medicine{}, notFound(err, medicines.ErrNotFound)
	}
	return m, nil
}

func (r *MedicinesRepo) ListActiveByUser(ctx context.Context, userID string) ([]medicines.Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE user_id = $1 AND active
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMedicine)
}

func scanMedicine(row pgx.CollectableRow) (medicines.Medicine, error) {
	var m medicines.Medicine
	err := row.Scan(
		&m.ID, &m.UserID,
		&m.Name, &m.Type, &m.Dosage,
		&m.Stock, &m.MinStock,
		&m.Notes, &m.Active,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}
