package history_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mutemem "medcare/internal/adapters/mute/memory"
	mem "medcare/internal/adapters/storage/memory"
	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"
	"medcare/internal/ports/events"
	"medcare/internal/ports/mute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

// miércoles 11/03/2026 10:00 UTC
var wednesday = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OccurrenceEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OccurrenceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type failingMutes struct{}

var errRedisDown = errors.New("redis down")

func (failingMutes) Mute(context.Context, mute.Key, time.Time) error { return errRedisDown }

func (failingMutes) Unmute(context.Context, mute.Key) error { return errRedisDown }

func (failingMutes) IsMuted(context.Context, mute.Key) (bool, error) { return false, errRedisDown }

type fixture struct {
	now time.Time

	meds   *medicines.Service
	scheds *schedules.Service
	svc    *history.Service
	pub    *recordingPublisher

	medicineID string
	morning    string // 08:00
	evening    string // 20:00
}

func newFixture(t *testing.T, opts ...history.Option) *fixture {
	t.Helper()
	f := &fixture{now: wednesday, pub: &recordingPublisher{}}
	clk := clock.Func(func() time.Time { return f.now })

	db := mem.NewDB()
	f.meds = medicines.NewService(mem.NewMedicinesRepo(db)).WithClock(clk)
	f.scheds = schedules.NewService(mem.NewSchedulesRepo(db), f.meds).WithClock(clk)

	base := []history.Option{
		history.WithClock(clk),
		history.WithMuteStore(mutemem.NewStore(clk)),
		history.WithPublisher(f.pub),
	}
	f.svc = history.NewService(mem.NewHistoryStore(db), f.scheds, append(base, opts...)...)

	ctx := context.Background()
	m, err := f.meds.Create(ctx, owner, medicines.CreateInput{
		Name: "Ibuprofeno", Type: "pill", Dosage: "400mg", Stock: 10, MinStock: 2,
	})
	require.NoError(t, err)
	f.medicineID = m.ID

	sc, err := f.scheds.Create(ctx, owner, schedules.CreateInput{
		MedicineID: m.ID,
		Type:       schedules.TypeDaily,
		StartDate:  wednesday.AddDate(0, 0, -14),
		Details:    []schedules.DetailInput{{Time: "20:00"}, {Time: "08:00"}},
	})
	require.NoError(t, err)
	require.Len(t, sc.Details, 2)
	f.morning, f.evening = sc.Details[0].ID, sc.Details[1].ID
	return f
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	m, err := f.meds.Get(context.Background(), owner, f.medicineID)
	require.NoError(t, err)
	return m.Stock
}

func TestMarkAsTaken_CreatesDoneAndDecrementsStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.MsgTaken, res.Message)
	assert.Equal(t, history.OutcomeCreated, res.Outcome)
	assert.Equal(t, history.StatusDone, res.Occurrence.Status)
	require.NotNil(t, res.Occurrence.TimeTaken)
	assert.True(t, res.Occurrence.TimeTaken.Equal(wednesday))
	assert.Equal(t, 9, f.stock(t))

	again, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.OutcomeUnchanged, again.Outcome)
	assert.Equal(t, res.Occurrence.ID, again.Occurrence.ID)
	assert.Equal(t, 9, f.stock(t), "repeated take must not decrement again")

	assert.Equal(t, []events.Type{events.OccurrenceTaken}, f.pub.types())
}

func TestMarkAsTaken_UsesExplicitTimeTaken(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2026, 3, 11, 8, 5, 0, 0, time.UTC)

	res, err := f.svc.MarkAsTaken(context.Background(), owner, f.morning, history.ActionInput{TimeTaken: &at})
	require.NoError(t, err)
	require.NotNil(t, res.Occurrence.TimeTaken)
	assert.True(t, res.Occurrence.TimeTaken.Equal(at))
}

func TestMarkAsTaken_RejectsOtherDays(t *testing.T) {
	f := newFixture(t)
	yesterday := wednesday.AddDate(0, 0, -1)

	_, err := f.svc.MarkAsTaken(context.Background(), owner, f.morning, history.ActionInput{Date: &yesterday})
	require.ErrorIs(t, err, history.ErrNotToday)
	assert.Equal(t, apperr.KindInvalidOperation, apperr.KindOf(err))
	assert.Equal(t, 10, f.stock(t))
}

func TestActions_ForeignDetailIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAsTaken(ctx, "intruder", f.morning, history.ActionInput{})
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)

	_, err = f.svc.Skip(ctx, "intruder", f.morning, history.ActionInput{})
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)

	_, err = f.svc.Undo(ctx, owner, "missing-detail", history.ActionInput{})
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)
}

func TestSkip_MarksMissedAndMutesUntilMidnight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.MsgMuted, res.Message)
	assert.Equal(t, history.StatusMissed, res.Occurrence.Status)
	assert.Nil(t, res.Occurrence.TimeTaken)

	muted, err := f.svc.IsMuted(ctx, owner, f.evening, nil)
	require.NoError(t, err)
	assert.True(t, muted)

	// después de medianoche el mute vence solo
	f.now = time.Date(2026, 3, 12, 0, 0, 1, 0, time.UTC)
	yesterday := wednesday
	muted, err = f.svc.IsMuted(ctx, owner, f.evening, &yesterday)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestSkip_IsNoOpWhenAlreadyMissed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	again, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.OutcomeUnchanged, again.Outcome)
	assert.Equal(t, []events.Type{events.OccurrenceSkipped}, f.pub.types())
}

func TestSkip_RejectsTakenOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)

	_, err = f.svc.Skip(ctx, owner, f.morning, history.ActionInput{})
	require.ErrorIs(t, err, history.ErrAlreadyTaken)

	o, err := f.svc.Occurrence(ctx, owner, f.morning, nil)
	require.NoError(t, err)
	assert.Equal(t, history.StatusDone, o.Status)
	assert.Equal(t, 9, f.stock(t))
}

func TestSkip_WithoutTodayGateAcceptsPastDates(t *testing.T) {
	f := newFixture(t, history.WithPolicy(history.Policy{SkipTodayOnly: false, LookbackDays: 7}))
	ctx := context.Background()
	past := wednesday.AddDate(0, 0, -2)

	res, err := f.svc.Skip(ctx, owner, f.morning, history.ActionInput{Date: &past})
	require.NoError(t, err)
	assert.Equal(t, history.StatusMissed, res.Occurrence.Status)
	assert.True(t, res.Occurrence.Date.Equal(history.CalendarDateOf(past)))

	muted, err := f.svc.IsMuted(ctx, owner, f.morning, &past)
	require.NoError(t, err)
	assert.False(t, muted, "a past day has nothing left to mute")
}

func TestSkip_WithTodayGateRejectsPastDates(t *testing.T) {
	f := newFixture(t)
	past := wednesday.AddDate(0, 0, -2)

	_, err := f.svc.Skip(context.Background(), owner, f.morning, history.ActionInput{Date: &past})
	require.ErrorIs(t, err, history.ErrNotToday)
}

func TestTakeAfterSkip_UnmutesAndDecrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	res, err := f.svc.MarkAsTaken(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.OutcomeUpdated, res.Outcome)
	assert.Equal(t, history.StatusDone, res.Occurrence.Status)
	assert.Equal(t, 9, f.stock(t))

	muted, err := f.svc.IsMuted(ctx, owner, f.evening, nil)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestUndo_RestoresStockAndPicksStatusByScheduledTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{f.morning, f.evening} {
		_, err := f.svc.MarkAsTaken(ctx, owner, id, history.ActionInput{})
		require.NoError(t, err)
	}
	assert.Equal(t, 8, f.stock(t))

	res, err := f.svc.Undo(ctx, owner, f.morning, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.MsgUndone, res.Message)
	assert.Equal(t, history.StatusMissed, res.Occurrence.Status, "08:00 already passed")
	assert.Nil(t, res.Occurrence.TimeTaken)

	res, err = f.svc.Undo(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.StatusPending, res.Occurrence.Status, "20:00 is still ahead")
	assert.Equal(t, 10, f.stock(t))
}

func TestUndo_OfSkipDoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)

	res, err := f.svc.Undo(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.StatusPending, res.Occurrence.Status)
	assert.Equal(t, 10, f.stock(t))

	muted, err := f.svc.IsMuted(ctx, owner, f.evening, nil)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestUndo_WithoutHistoryIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Undo(context.Background(), owner, f.morning, history.ActionInput{})
	require.ErrorIs(t, err, history.ErrNothingToUndo)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Occurrence(context.Background(), owner, f.morning, nil)
	require.ErrorIs(t, err, history.ErrOccurrenceNotFound)
}

func TestMarkAsTaken_ConcurrentCallsDecrementOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	outcomes := make(chan history.Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
			if assert.NoError(t, err) {
				outcomes <- res.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	created := 0
	for o := range outcomes {
		if o == history.OutcomeCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 9, f.stock(t))
}

func TestMarkAndSkip_ConcurrentLeaveOneConsistentRecord(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		ctx := context.Background()

		const n = 8
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{})
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				<-start
				// un skip que llega después de una toma se rechaza
				_, err := f.svc.Skip(ctx, owner, f.morning, history.ActionInput{})
				if err != nil {
					assert.ErrorIs(t, err, history.ErrAlreadyTaken)
				}
			}()
		}
		close(start)
		wg.Wait()

		all, err := f.svc.AllHistory(ctx, owner)
		require.NoError(t, err)
		require.Len(t, all, 1, "round %d", round)

		o := all[0]
		assert.Equal(t, o.Status == history.StatusDone, o.TimeTaken != nil)
		switch o.Status {
		case history.StatusDone:
			assert.Equal(t, 9, f.stock(t))
		case history.StatusMissed:
			assert.Equal(t, 10, f.stock(t))
		default:
			t.Fatalf("round %d: unexpected status %s", round, o.Status)
		}
		// toda toma gana sobre un skip, así que termina en DONE
		assert.Equal(t, history.StatusDone, o.Status)
	}
}

func TestSideEffectFailures_DoNotFailTheAction(t *testing.T) {
	f := newFixture(t, history.WithMuteStore(failingMutes{}))
	f.pub.err = errors.New("broker down")
	ctx := context.Background()

	res, err := f.svc.Skip(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.StatusMissed, res.Occurrence.Status)

	res, err = f.svc.MarkAsTaken(ctx, owner, f.evening, history.ActionInput{})
	require.NoError(t, err)
	assert.Equal(t, history.StatusDone, res.Occurrence.Status)
}

func TestDoneIffTimeTaken_AcrossTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	check := func(o history.Occurrence) {
		t.Helper()
		assert.Equal(t, o.Status == history.StatusDone, o.TimeTaken != nil, "status %s", o.Status)
	}

	steps := []func() (history.ActionResult, error){
		func() (history.ActionResult, error) { return f.svc.Skip(ctx, owner, f.morning, history.ActionInput{}) },
		func() (history.ActionResult, error) { return f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{}) },
		func() (history.ActionResult, error) { return f.svc.Undo(ctx, owner, f.morning, history.ActionInput{}) },
		func() (history.ActionResult, error) { return f.svc.MarkAsTaken(ctx, owner, f.morning, history.ActionInput{}) },
	}
	for _, step := range steps {
		res, err := step()
		require.NoError(t, err)
		check(res.Occurrence)
	}
	assert.Equal(t, 9, f.stock(t))
}

func TestParseTimeTaken(t *testing.T) {
	date := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	got, err := history.ParseTimeTaken("08:30", date)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 11, 8, 30, 0, 0, time.UTC)))

	got, err = history.ParseTimeTaken("2026-03-11T09:15:00-03:00", date)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 11, 12, 15, 0, 0, time.UTC)))

	got, err = history.ParseTimeTaken("", date)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = history.ParseTimeTaken("25:99", date)
	require.ErrorIs(t, err, history.ErrInvalidTime)
}
