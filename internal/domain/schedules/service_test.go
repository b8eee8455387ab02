package schedules_test

import (
	"context"
	"testing"
	"time"

	mem "medcare/internal/adapters/storage/memory"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// miércoles
var now = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

type env struct {
	meds   *medicines.Service
	svc    *schedules.Service
	medID  string
	userID string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := mem.NewDB()
	meds := medicines.NewService(mem.NewMedicinesRepo(db)).WithClock(clock.Fixed(now))
	svc := schedules.NewService(mem.NewSchedulesRepo(db), meds).WithClock(clock.Fixed(now))

	m, err := meds.Create(context.Background(), "u1", medicines.CreateInput{Name: "A", Type: "pill", Dosage: "1", Stock: 5})
	require.NoError(t, err)
	return &env{meds: meds, svc: svc, medID: m.ID, userID: "u1"}
}

func dow(d time.Weekday) *int {
	n := int(d)
	return &n
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.userID, schedules.CreateInput{MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now})
	require.ErrorIs(t, err, schedules.ErrNoDetails)

	_, err = e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeWeekly, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: "MONTHLY", StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "8am"}},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.svc.Create(ctx, "u2", schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}},
	})
	require.ErrorIs(t, err, schedules.ErrMedicineNotFound)
}

func TestCreate_SortsDetailsAndDropsDayOfWeekForDaily(t *testing.T) {
	e := newEnv(t)

	sc, err := e.svc.Create(context.Background(), e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now.Add(5 * time.Hour),
		Details: []schedules.DetailInput{{Time: "21:00"}, {Time: "07:30", DayOfWeek: dow(time.Monday)}},
	})
	require.NoError(t, err)
	require.Len(t, sc.Details, 2)
	assert.Equal(t, "07:30", sc.Details[0].Time.String())
	assert.Nil(t, sc.Details[0].DayOfWeek)
	assert.True(t, sc.StartDate.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestDetailsByDate_RespectsTypeAndStartDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}},
	})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeWeekly, StartDate: now.AddDate(0, 0, -30),
		Details: []schedules.DetailInput{{Time: "09:00", DayOfWeek: dow(time.Friday)}},
	})
	require.NoError(t, err)

	friday := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	got, err := e.svc.DetailsByDate(ctx, e.userID, friday)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	thursday := friday.AddDate(0, 0, -1)
	got, err = e.svc.DetailsByDate(ctx, e.userID, thursday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schedules.TypeDaily, got[0].ScheduleType)

	lastFriday := friday.AddDate(0, 0, -7)
	got, err = e.svc.DetailsByDate(ctx, e.userID, lastFriday)
	require.NoError(t, err)
	require.Len(t, got, 1, "daily schedule starts today")
	assert.Equal(t, schedules.TypeWeekly, got[0].ScheduleType)
}

func TestUpdate_PreservesUnchangedSlots(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sc, err := e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}, {Time: "20:00"}},
	})
	require.NoError(t, err)
	keepID := sc.Details[0].ID
	dropID := sc.Details[1].ID

	up, err := e.svc.Update(ctx, e.userID, sc.ID, schedules.UpdateInput{
		Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}, {Time: "14:00"}},
	})
	require.NoError(t, err)
	require.Len(t, up.Details, 2)
	assert.Equal(t, keepID, up.Details[0].ID)
	assert.Equal(t, "14:00", up.Details[1].Time.String())

	_, err = e.svc.ResolveDetail(ctx, e.userID, dropID)
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)

	got, err := e.svc.Get(ctx, e.userID, sc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Details, 2)
}

func TestUpdateDetail_AndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sc, err := e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeWeekly, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00", DayOfWeek: dow(time.Monday)}},
	})
	require.NoError(t, err)
	id := sc.Details[0].ID

	_, err = e.svc.UpdateDetail(ctx, e.userID, id, schedules.DetailPatch{})
	require.ErrorIs(t, err, schedules.ErrNothingToPatch)

	newTime := "09:15"
	d, err := e.svc.UpdateDetail(ctx, e.userID, id, schedules.DetailPatch{Time: &newTime, DayOfWeek: dow(time.Tuesday)})
	require.NoError(t, err)
	assert.Equal(t, "09:15", d.Time.String())
	require.NotNil(t, d.DayOfWeek)
	assert.Equal(t, int(time.Tuesday), *d.DayOfWeek)

	bad := 9
	_, err = e.svc.UpdateDetail(ctx, e.userID, id, schedules.DetailPatch{DayOfWeek: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.svc.UpdateDetail(ctx, "u2", id, schedules.DetailPatch{Time: &newTime})
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)

	require.NoError(t, e.svc.Delete(ctx, e.userID, sc.ID))
	_, err = e.svc.Get(ctx, e.userID, sc.ID)
	require.ErrorIs(t, err, schedules.ErrNotFound)
	_, err = e.svc.ResolveDetail(ctx, e.userID, id)
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)
}

func TestResolveDetail_InactiveMedicineIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sc, err := e.svc.Create(ctx, e.userID, schedules.CreateInput{
		MedicineID: e.medID, Type: schedules.TypeDaily, StartDate: now,
		Details: []schedules.DetailInput{{Time: "08:00"}},
	})
	require.NoError(t, err)

	v, err := e.svc.ResolveDetail(ctx, e.userID, sc.Details[0].ID)
	require.NoError(t, err)
	assert.Equal(t, e.medID, v.MedicineID)
	assert.Equal(t, e.userID, v.OwnerUserID)

	require.NoError(t, e.meds.Delete(ctx, e.userID, e.medID))
	_, err = e.svc.ResolveDetail(ctx, e.userID, sc.Details[0].ID)
	require.ErrorIs(t, err, schedules.ErrDetailNotFound)
}

func TestDayOf_TruncatesToUTCMidnight(t *testing.T) {
	// 23:30 en UTC-5 ya es el día siguiente en UTC
	lima := time.FixedZone("UTC-5", -5*3600)
	in := time.Date(2026, 3, 10, 23, 30, 0, 0, lima)

	day := schedules.DayOf(in)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), day)
	assert.Equal(t, time.UTC, day.Location())

	at := schedules.TimeOfDay{Hour: 20, Minute: 15}.On(in)
	assert.Equal(t, time.Date(2026, 3, 11, 20, 15, 0, 0, time.UTC), at)
}

func TestCreate_StoresStartDateAsCalendarDay(t *testing.T) {
	e := newEnv(t)
	sc, err := e.svc.Create(context.Background(), e.userID, schedules.CreateInput{
		MedicineID: e.medID,
		Type:       schedules.TypeDaily,
		StartDate:  now,
		Details:    []schedules.DetailInput{{Time: "08:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, schedules.DayOf(now), sc.StartDate)
}
