package sandbox_test

import (
	"context"
	"testing"
	"time"

	mem "medcare/internal/adapters/storage/memory"
	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/clock"
	"medcare/internal/platform/sandbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// miércoles 10:00 UTC
var now = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

type env struct {
	deps sandbox.Deps
	hist *history.Service
}

func newEnv() env {
	db := mem.NewDB()
	clk := clock.Fixed(now)
	meds := medicines.NewService(mem.NewMedicinesRepo(db)).WithClock(clk)
	scheds := schedules.NewService(mem.NewSchedulesRepo(db), meds).WithClock(clk)
	store := mem.NewHistoryStore(db)
	return env{
		deps: sandbox.Deps{Medicines: meds, Schedules: scheds, History: store},
		hist: history.NewService(store, scheds, history.WithClock(clk)),
	}
}

func TestSeed_BuildsMedicinesSchedulesAndHistory(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sum, err := sandbox.Seed(ctx, e.deps, "user-1", now, sandbox.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Medicines)
	assert.Equal(t, 4, sum.Schedules)
	assert.Equal(t, 7, sum.Details)
	assert.Equal(t, 7*6, sum.Taken+sum.Skipped)

	all, err := e.hist.AllHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 42)

	today := history.CalendarDateOf(now)
	done := 0
	for _, o := range all {
		assert.True(t, o.Date.Before(today), "today stays unrecorded")
		assert.Equal(t, o.Status == history.StatusDone, o.TimeTaken != nil)
		if o.Status == history.StatusDone {
			done++
			assert.True(t, o.TimeTaken.Sub(o.ScheduledTime.On(o.Date)) < 45*time.Minute)
		} else {
			assert.Equal(t, history.StatusMissed, o.Status)
		}
	}
	assert.Equal(t, sum.Taken, done)

	// cada toma descontó stock una vez
	meds, err := e.deps.Medicines.List(ctx, "user-1")
	require.NoError(t, err)
	initial := 30 + 20 + 14 + 60 + 3
	total := 0
	for _, m := range meds {
		total += m.Stock
	}
	assert.Equal(t, initial-sum.Taken, total)

	low, err := e.deps.Medicines.LowStock(ctx, "user-1")
	require.NoError(t, err)
	names := make([]string, 0, len(low))
	for _, it := range low {
		names = append(names, it.Medicine.Name)
	}
	assert.Contains(t, names, "Metformin")
}

func TestSeed_AllTakenWhenRateIsOne(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sum, err := sandbox.Seed(ctx, e.deps, "user-1", now, sandbox.Config{Days: 3, Seed: 7, TakeRates: []float64{1}})
	require.NoError(t, err)
	assert.Equal(t, 21, sum.Taken)
	assert.Zero(t, sum.Skipped)

	meds, err := e.deps.Medicines.List(ctx, "user-1")
	require.NoError(t, err)
	for _, m := range meds {
		if m.Name == "Aspirin" {
			assert.Equal(t, 30-2*3, m.Stock)
		}
	}
}

func TestSeed_IsReproducibleForTheSameSeed(t *testing.T) {
	cfg := sandbox.Config{Days: 6, Seed: 42, TakeRates: []float64{0.5}}

	a, err := sandbox.Seed(context.Background(), newEnv().deps, "user-1", now, cfg)
	require.NoError(t, err)
	b, err := sandbox.Seed(context.Background(), newEnv().deps, "user-1", now, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSeed_RejectsNegativeDays(t *testing.T) {
	_, err := sandbox.Seed(context.Background(), newEnv().deps, "user-1", now, sandbox.Config{Days: -1})
	assert.Error(t, err)
}
