package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	mem "medcare/internal/adapters/storage/memory"
	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

type env struct {
	meds     *medicines.Service
	store    history.Store
	medID    string
	detailID string
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := mem.NewDB()
	meds := medicines.NewService(mem.NewMedicinesRepo(db)).WithClock(clock.Fixed(now))
	scheds := schedules.NewService(mem.NewSchedulesRepo(db), meds).WithClock(clock.Fixed(now))

	ctx := context.Background()
	m, err := meds.Create(ctx, "u1", medicines.CreateInput{Name: "A", Type: "pill", Dosage: "1", Stock: 5})
	require.NoError(t, err)
	sc, err := scheds.Create(ctx, "u1", schedules.CreateInput{
		MedicineID: m.ID,
		Type:       schedules.TypeDaily,
		StartDate:  now,
		Details:    []schedules.DetailInput{{Time: "08:00"}},
	})
	require.NoError(t, err)
	return env{meds: meds, store: mem.NewHistoryStore(db), medID: m.ID, detailID: sc.Details[0].ID}
}

func (e env) stock(t *testing.T) int {
	t.Helper()
	m, err := e.meds.Get(context.Background(), "u1", e.medID)
	require.NoError(t, err)
	return m.Stock
}

func taken(at time.Time) history.Mutation {
	return func(*history.Occurrence) (history.Occurrence, error) {
		return history.Occurrence{ID: "occ-1", Status: history.StatusDone, TimeTaken: &at, LastUpdated: at}, nil
	}
}

func missed(at time.Time) history.Mutation {
	return func(*history.Occurrence) (history.Occurrence, error) {
		return history.Occurrence{ID: "occ-1", Status: history.StatusMissed, LastUpdated: at}, nil
	}
}

var errBoom = errors.New("boom")

func TestInTx_FailureRollsBackUpsertAndStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	key := history.KeyOf(e.detailID, now)

	err := e.store.InTx(ctx, func(ctx context.Context, tx history.Tx) error {
		res, err := tx.Upsert(ctx, key, taken(now))
		require.NoError(t, err)
		require.Equal(t, history.OutcomeCreated, res.Outcome)
		require.NoError(t, tx.AdjustStock(ctx, e.medID, -1))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = e.store.Get(ctx, key)
	assert.ErrorIs(t, err, history.ErrOccurrenceNotFound)
	assert.Equal(t, 5, e.stock(t))
}

func TestInTx_FailingStockChangeLeavesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	key := history.KeyOf(e.detailID, now)

	err := e.store.InTx(ctx, func(ctx context.Context, tx history.Tx) error {
		if _, err := tx.Upsert(ctx, key, taken(now)); err != nil {
			return err
		}
		return tx.AdjustStock(ctx, "no-such-medicine", -1)
	})
	require.ErrorIs(t, err, medicines.ErrNotFound)

	_, err = e.store.Get(ctx, key)
	assert.ErrorIs(t, err, history.ErrOccurrenceNotFound)
	assert.Equal(t, 5, e.stock(t))
}

func TestInTx_RollbackRestoresPreviousState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	key := history.KeyOf(e.detailID, now)

	require.NoError(t, e.store.InTx(ctx, func(ctx context.Context, tx history.Tx) error {
		_, err := tx.Upsert(ctx, key, missed(now))
		return err
	}))

	later := now.Add(time.Hour)
	err := e.store.InTx(ctx, func(ctx context.Context, tx history.Tx) error {
		res, err := tx.Upsert(ctx, key, taken(later))
		require.NoError(t, err)
		require.True(t, res.EnteredDone())
		require.NoError(t, tx.AdjustStock(ctx, e.medID, -1))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	o, err := e.store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, history.StatusMissed, o.Status)
	assert.Nil(t, o.TimeTaken)
	assert.Equal(t, 5, e.stock(t))
}
