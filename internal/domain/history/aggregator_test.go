package history_test

import (
	"context"
	"testing"
	"time"

	"medcare/internal/domain/history"
	"medcare/internal/platform/apperr"
	"medcare/internal/ports/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekRange(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)

	cases := map[string]time.Time{
		"wednesday":   wednesday,
		"monday":      monday,
		"sunday late": time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC),
	}
	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			start, end := history.WeekRange(ref)
			assert.True(t, start.Equal(monday), "start %s", start)
			assert.True(t, end.Equal(sunday), "end %s", end)
		})
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 70.0, history.Rate(7, 10))
	assert.Equal(t, 66.67, history.Rate(2, 3))
	assert.Equal(t, 100.0, history.Rate(4, 4))
	assert.Equal(t, 0.0, history.Rate(0, 0))
}

func TestWeeklySnapshot_CountsDoneAndMissed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)
	_, err = f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	snap, err := f.svc.WeeklySnapshot(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, history.ComplianceSnapshot{Total: 2, Completed: 1, Missed: 1, ComplianceRate: 50}, snap)

	missed, err := f.svc.WeeklyMissedCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, missed)
}

func TestWeeklySnapshot_EmptyWeekIsZero(t *testing.T) {
	f := newFixture(t)

	rate, err := f.svc.WeeklyComplianceRate(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestWeeklyList_ExcludesOtherWeeksAndOtherUsers(t *testing.T) {
	f := newFixture(t, history.WithPolicy(history.Policy{SkipTodayOnly: false, LookbackDays: 7}))
	ctx := context.Background()

	lastWeek := wednesday.AddDate(0, 0, -7)
	_, err := f.svc.Skip(ctx, owner, f.morning, history.ActionInput{Date: &lastWeek})
	require.NoError(t, err)
	_, err = f.svc.MarkAsTaken(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	list, err := f.svc.WeeklyComplianceList(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.evening, list[0].DetailID)
	assert.Equal(t, "Ibuprofeno", list[0].MedicineName)

	other, err := f.svc.WeeklyComplianceList(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)

	all, err := f.svc.AllHistory(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Date.After(all[1].Date), "all history is newest first")
}

func TestRecentActivity_OnlyResolvedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)

	f.now = f.now.Add(time.Minute)
	_, err = f.svc.MarkAsTaken(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	// vuelve a PENDING: no debe aparecer
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Undo(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	recent, err := f.svc.RecentActivity(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, f.morning, recent[0].DetailID)
	assert.Equal(t, history.StatusDone, recent[0].Status)
}

func TestSweep_MaterializesOverdueOccurrencesOnce(t *testing.T) {
	f := newFixture(t, history.WithPolicy(history.Policy{SkipTodayOnly: true, SweepOnRead: true, LookbackDays: 2}))
	ctx := context.Background()

	// 08:00 de hoy ya tiene registro: el barrido no lo pisa
	_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)

	list, err := f.svc.WeeklyComplianceList(ctx, owner)
	require.NoError(t, err)
	// lunes y martes x2, miércoles 08:00 DONE; miércoles 20:00 todavía no venció
	require.Len(t, list, 5)
	assert.True(t, list[0].Date.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "08:00", list[0].ScheduledTime.String())
	assert.Equal(t, "20:00", list[1].ScheduledTime.String())

	snap := history.Summarize(list)
	assert.Equal(t, 4, snap.Missed)
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 20.0, snap.ComplianceRate)

	n, err := f.svc.Sweep(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, n)

	missedEvents := 0
	for _, typ := range f.pub.types() {
		if typ == events.OccurrenceMissed {
			missedEvents++
		}
	}
	assert.Equal(t, 4, missedEvents)
	assert.Equal(t, 9, f.stock(t), "sweep never touches stock")
}

func TestSweep_OffByDefaultOnReads(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.AllHistory(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHistoryReads_KeepRetiredMedicines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)
	require.NoError(t, f.meds.Delete(ctx, owner, f.medicineID))

	all, err := f.svc.AllHistory(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ibuprofeno", all[0].MedicineName)

	snap, err := f.svc.WeeklySnapshot(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Completed)

	// las acciones sí exigen medicamento activo
	_, err = f.svc.Undo(ctx, owner, f.morning, history.ActionInput{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
