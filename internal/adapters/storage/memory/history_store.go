package memory

import (
	"context"
	"sort"

	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
)

type historyStore struct{ db *DB }

func NewHistoryStore(db *DB) history.Store {
	return &historyStore{db: db}
}

// InTx serializa todas las transacciones bajo el lock global. Si fn falla,
// el journal deshace en orden inverso lo que se escribió.
func (s *historyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx history.Tx) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx := &memTx{db: s.db}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *historyStore) Get(ctx context.Context, key history.Key) (history.Occurrence, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	o, ok := s.db.occurrences[history.KeyOf(key.DetailID, key.Date)]
	if !ok {
		return history.Occurrence{}, history.ErrOccurrenceNotFound
	}
	return o, nil
}

func (s *historyStore) ListByOwner(ctx context.Context, userID string, q history.Query) ([]history.Entry, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]history.Entry, 0)
	for _, o := range s.db.occurrences {
		if !q.Matches(o) {
			continue
		}
		d, ok := s.db.details[o.DetailID]
		if !ok {
			continue
		}
		v, ok := s.db.detailView(d)
		if !ok || v.OwnerUserID != userID {
			continue
		}
		out = append(out, history.Entry{
			Occurrence:    o,
			MedicineID:    v.MedicineID,
			MedicineName:  v.MedicineName,
			ScheduledTime: d.Time,
		})
	}

	sort.Slice(out, func(i, j int) bool { return less(q.Order, out[i], out[j]) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func less(order history.Order, a, b history.Entry) bool {
	switch order {
	case history.OrderDateAsc:
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ScheduledTime != b.ScheduledTime {
			return a.ScheduledTime.Minutes() < b.ScheduledTime.Minutes()
		}
	case history.OrderLastUpdatedDesc:
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
	default:
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.ScheduledTime != b.ScheduledTime {
			return a.ScheduledTime.Minutes() < b.ScheduledTime.Minutes()
		}
	}
	return a.ID < b.ID
}

func (s *historyStore) InsertMissing(ctx context.Context, occs []history.Occurrence) ([]history.Occurrence, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	inserted := make([]history.Occurrence, 0)
	for _, o := range occs {
		k := o.Key()
		if _, exists := s.db.occurrences[k]; exists {
			continue
		}
		if _, ok := s.db.details[o.DetailID]; !ok {
			continue
		}
		o.Date = k.Date
		s.db.occurrences[k] = o
		inserted = append(inserted, o)
	}
	return inserted, nil
}

type memTx struct {
	db      *DB
	journal []func()
}

func (t *memTx) Upsert(ctx context.Context, key history.Key, mutate history.Mutation) (history.UpsertResult, error) {
	key = history.KeyOf(key.DetailID, key.Date)
	if _, ok := t.db.details[key.DetailID]; !ok {
		return history.UpsertResult{}, history.ErrOccurrenceNotFound
	}

	var prev *history.Occurrence
	if cur, ok := t.db.occurrences[key]; ok {
		prev = &cur
	}
	next, res, write, err := history.Resolve(key, prev, mutate)
	if err != nil || !write {
		return res, err
	}

	if prev == nil {
		t.journal = append(t.journal, func() { delete(t.db.occurrences, key) })
	} else {
		old := *prev
		t.journal = append(t.journal, func() { t.db.occurrences[key] = old })
	}
	t.db.occurrences[key] = next
	return res, nil
}

func (t *memTx) AdjustStock(ctx context.Context, medicineID string, delta int) error {
	m, ok := t.db.medicines[medicineID]
	if !ok {
		return medicines.ErrNotFound
	}
	old := m
	t.journal = append(t.journal, func() { t.db.medicines[medicineID] = old })
	m.Stock += delta
	t.db.medicines[medicineID] = m
	return nil
}

func (t *memTx) rollback() {
	for i := len(t.journal) - 1; i >= 0; i-- {
		t.journal[i]()
	}
	t.journal = nil
}
