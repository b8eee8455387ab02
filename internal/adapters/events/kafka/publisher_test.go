package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"medcare/internal/ports/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	flushed bool
	closed  bool
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.flushed = true
	return nil
}

func (f *fakeProducer) Ping(context.Context) error { return f.err }

func (f *fakeProducer) Close() { f.closed = true }

var ev = events.OccurrenceEvent{
	Type:       events.OccurrenceTaken,
	UserID:     "u1",
	DetailID:   "d1",
	MedicineID: "m1",
	Date:       "2026-03-11",
	Status:     "DONE",
	OccurredAt: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
}

func TestPublish_KeysByDetailAndEncodesJSON(t *testing.T) {
	fp := &fakeProducer{}
	p := newPublisher(fp, "", nil, nil)

	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, fp.records, 1)

	rec := fp.records[0]
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, "d1", string(rec.Key))
	assert.Equal(t, "occurrence.taken", headerCarrier{rec: rec}.Get("event-type"))

	var got events.OccurrenceEvent
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, ev, got)
}

func TestPublish_ReportsAsyncFailures(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker unavailable")}
	var failures int
	p := newPublisher(fp, "custom", nil, func(error) { failures++ })

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, 1, failures)
	assert.Equal(t, "custom", fp.records[0].Topic)
}

func TestClose_FlushesFirst(t *testing.T) {
	fp := &fakeProducer{}
	p := newPublisher(fp, "", nil, nil)

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, fp.flushed)
	assert.True(t, fp.closed)
}
