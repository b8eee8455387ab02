package history

import (
	"context"
	"fmt"
	"time"

	"medcare/internal/platform/apperr"
)

var ErrOccurrenceNotFound = apperr.NotFound("occurrence not found")

// Mutation recibe el registro actual (nil si no existe) y devuelve el nuevo
// estado. Devolver *prev sin cambios deja el upsert en Unchanged.
type Mutation func(prev *Occurrence) (Occurrence, error)

// Tx es la vista transaccional del store. Upsert y AdjustStock dentro del
// mismo InTx se confirman o se descartan juntos.
type Tx interface {
	Upsert(ctx context.Context, key Key, mutate Mutation) (UpsertResult, error)
	AdjustStock(ctx context.Context, medicineID string, delta int) error
}

type Order int

const (
	OrderDateDesc Order = iota
	OrderDateAsc
	OrderLastUpdatedDesc
)

// Query filtra ocurrencias de un usuario. From/To en cero = sin límite.
// Los límites se comparan contra la fecha (día) y son inclusivos.
type Query struct {
	From     time.Time
	To       time.Time
	Statuses []Status
	Order    Order
	Limit    int
}

func (q Query) Matches(o Occurrence) bool {
	if !q.From.IsZero() && o.Date.Before(CalendarDateOf(q.From)) {
		return false
	}
	if !q.To.IsZero() && o.Date.After(q.To) {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Get(ctx context.Context, key Key) (Occurrence, error)
	// ListByOwner recorre Detail -> Schedule -> Medicine -> User, incluyendo
	// medicamentos dados de baja.
	ListByOwner(ctx context.Context, userID string, q Query) ([]Entry, error)
	// InsertMissing inserta solo las ocurrencias sin registro y devuelve
	// las efectivamente insertadas.
	InsertMissing(ctx context.Context, occs []Occurrence) ([]Occurrence, error)
}

// Resolve aplica una Mutation sobre prev y calcula el resultado etiquetado.
// write=false significa que el store no debe escribir nada.
// Lo comparten los adapters para que la semántica del upsert sea una sola.
func Resolve(key Key, prev *Occurrence, mutate Mutation) (next Occurrence, res UpsertResult, write bool, err error) {
	next, err = mutate(prev)
	if err != nil {
		return Occurrence{}, UpsertResult{}, false, err
	}
	next.DetailID = key.DetailID
	next.Date = key.Date
	if prev != nil {
		next.ID = prev.ID
	}
	if !next.consistent() {
		return Occurrence{}, UpsertResult{}, false, fmt.Errorf("history: inconsistent occurrence %s: status %s", key, next.Status)
	}

	switch {
	case prev == nil:
		return next, UpsertResult{Outcome: OutcomeCreated, Current: next}, true, nil
	case next.sameState(*prev):
		st := prev.Status
		return *prev, UpsertResult{Outcome: OutcomeUnchanged, Previous: &st, Current: *prev}, false, nil
	default:
		st := prev.Status
		return next, UpsertResult{Outcome: OutcomeUpdated, Previous: &st, Current: next}, true, nil
	}
}
