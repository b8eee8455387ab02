package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"medcare/internal/domain/schedules"
	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"
	"medcare/internal/platform/logger"
	"medcare/internal/platform/metrics"
	"medcare/internal/ports/events"
	"medcare/internal/ports/mute"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrNotToday      = apperr.InvalidOperation("action only allowed for today")
	ErrAlreadyTaken  = apperr.InvalidOperation("occurrence already taken, undo it first")
	ErrNothingToUndo = apperr.NotFound("no history to undo")
	ErrInvalidTime   = apperr.Validation("time_taken must be RFC3339 or HH:mm")
	errNoMuteStore   = errors.New("history: no mute store configured")
)

const (
	MsgTaken  = "Marked as taken"
	MsgMuted  = "Alarm muted for this occurrence"
	MsgUndone = "Undo successful"
)

// DetailResolver lo implementa schedules.Service.
type DetailResolver interface {
	ResolveDetail(ctx context.Context, userID, detailID string) (schedules.DetailView, error)
	ListOwnedDetails(ctx context.Context, userID string) ([]schedules.DetailView, error)
}

// Policy agrupa las decisiones configurables del motor.
type Policy struct {
	SkipTodayOnly bool
	SweepOnRead   bool
	LookbackDays  int
}

func DefaultPolicy() Policy {
	return Policy{SkipTodayOnly: true, LookbackDays: 7}
}

type Service struct {
	store   Store
	details DetailResolver
	mutes   mute.Store
	events  events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	clock   clock.Clock
	policy  Policy
	tracer  trace.Tracer
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

func WithMuteStore(m mute.Store) Option { return func(s *Service) { s.mutes = m } }

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

func NewService(store Store, details DetailResolver, opts ...Option) *Service {
	s := &Service{
		store:   store,
		details: details,
		events:  events.Nop{},
		log:     zap.NewNop(),
		clock:   clock.System(),
		policy:  DefaultPolicy(),
		tracer:  otel.Tracer("medcare/history"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ActionInput: Date nil = hoy (UTC). TimeTaken solo aplica a MarkAsTaken.
type ActionInput struct {
	Date      *time.Time
	TimeTaken *time.Time
}

type ActionResult struct {
	Message    string
	Occurrence Occurrence
	Outcome    Outcome
}

func (s *Service) MarkAsTaken(ctx context.Context, userID, detailID string, in ActionInput) (res ActionResult, err error) {
	ctx, span := s.start(ctx, "history.MarkAsTaken", detailID)
	defer func() { s.finish(span, "take", res, err) }()

	v, err := s.details.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return ActionResult{}, err
	}
	now := s.clock.Now()
	date, err := s.todayOnly(in.Date, now)
	if err != nil {
		return ActionResult{}, err
	}
	taken := now
	if in.TimeTaken != nil {
		taken = in.TimeTaken.UTC()
	}

	key := KeyOf(v.Detail.ID, date)
	var up UpsertResult
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.Upsert(ctx, key, func(prev *Occurrence) (Occurrence, error) {
			if prev != nil && prev.Status == StatusDone {
				return *prev, nil
			}
			next := fresh(prev, key)
			next.Status = StatusDone
			next.TimeTaken = &taken
			next.LastUpdated = now
			return next, nil
		})
		if err != nil {
			return err
		}
		up = r
		if r.EnteredDone() {
			return tx.AdjustStock(ctx, v.MedicineID, -1)
		}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	if up.EnteredDone() {
		s.metrics.Stock(-1)
	}

	s.unmute(ctx, userID, v, date)
	s.publish(ctx, events.OccurrenceTaken, userID, v, up)
	return ActionResult{Message: MsgTaken, Occurrence: up.Current, Outcome: up.Outcome}, nil
}

func (s *Service) Skip(ctx context.Context, userID, detailID string, in ActionInput) (res ActionResult, err error) {
	ctx, span := s.start(ctx, "history.Skip", detailID)
	defer func() { s.finish(span, "skip", res, err) }()

	v, err := s.details.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return ActionResult{}, err
	}
	now := s.clock.Now()
	var date time.Time
	if s.policy.SkipTodayOnly {
		if date, err = s.todayOnly(in.Date, now); err != nil {
			return ActionResult{}, err
		}
	} else {
		date = dateOrToday(in.Date, now)
	}

	key := KeyOf(v.Detail.ID, date)
	var up UpsertResult
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.Upsert(ctx, key, func(prev *Occurrence) (Occurrence, error) {
			if prev != nil {
				switch prev.Status {
				case StatusDone:
					return Occurrence{}, ErrAlreadyTaken
				case StatusMissed:
					return *prev, nil
				}
			}
			next := fresh(prev, key)
			next.Status = StatusMissed
			next.TimeTaken = nil
			next.LastUpdated = now
			return next, nil
		})
		up = r
		return err
	})
	if err != nil {
		return ActionResult{}, err
	}

	if until := nextMidnight(date); until.After(now) {
		s.mute(ctx, userID, v, date, until)
	}
	s.publish(ctx, events.OccurrenceSkipped, userID, v, up)
	return ActionResult{Message: MsgMuted, Occurrence: up.Current, Outcome: up.Outcome}, nil
}

func (s *Service) Undo(ctx context.Context, userID, detailID string, in ActionInput) (res ActionResult, err error) {
	ctx, span := s.start(ctx, "history.Undo", detailID)
	defer func() { s.finish(span, "undo", res, err) }()

	v, err := s.details.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return ActionResult{}, err
	}
	now := s.clock.Now()
	date, err := s.todayOnly(in.Date, now)
	if err != nil {
		return ActionResult{}, err
	}

	status := StatusPending
	if now.After(ScheduledInstant(date, v.Detail.Time)) {
		status = StatusMissed
	}

	key := KeyOf(v.Detail.ID, date)
	var up UpsertResult
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.Upsert(ctx, key, func(prev *Occurrence) (Occurrence, error) {
			if prev == nil {
				return Occurrence{}, ErrNothingToUndo
			}
			next := *prev
			next.Status = status
			next.TimeTaken = nil
			next.LastUpdated = now
			return next, nil
		})
		if err != nil {
			return err
		}
		up = r
		if r.LeftDone() {
			return tx.AdjustStock(ctx, v.MedicineID, 1)
		}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}
	if up.LeftDone() {
		s.metrics.Stock(1)
	}

	s.unmute(ctx, userID, v, date)
	s.publish(ctx, events.OccurrenceUndone, userID, v, up)
	return ActionResult{Message: MsgUndone, Occurrence: up.Current, Outcome: up.Outcome}, nil
}

// IsMuted informa si la alarma de la ocurrencia está silenciada.
func (s *Service) IsMuted(ctx context.Context, userID, detailID string, date *time.Time) (bool, error) {
	v, err := s.details.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return false, err
	}
	if s.mutes == nil {
		return false, nil
	}
	d := dateOrToday(date, s.clock.Now())
	return s.mutes.IsMuted(ctx, muteKey(userID, v, d))
}

// Occurrence devuelve el registro de una toma en un día; NotFound si no hay.
func (s *Service) Occurrence(ctx context.Context, userID, detailID string, date *time.Time) (Occurrence, error) {
	v, err := s.details.ResolveDetail(ctx, userID, detailID)
	if err != nil {
		return Occurrence{}, err
	}
	return s.store.Get(ctx, KeyOf(v.Detail.ID, dateOrToday(date, s.clock.Now())))
}

// ParseTimeTaken acepta RFC3339 o HH:mm; HH:mm se interpreta en date (UTC).
func ParseTimeTaken(raw string, date time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		u := t.UTC()
		return &u, nil
	}
	tod, err := schedules.ParseTimeOfDay(raw)
	if err != nil {
		return nil, ErrInvalidTime
	}
	t := ScheduledInstant(date, tod)
	return &t, nil
}

func (s *Service) todayOnly(date *time.Time, now time.Time) (time.Time, error) {
	d := dateOrToday(date, now)
	if !IsToday(d, now) {
		return time.Time{}, ErrNotToday
	}
	return d, nil
}

func dateOrToday(date *time.Time, now time.Time) time.Time {
	if date == nil {
		return CalendarDateOf(now)
	}
	return CalendarDateOf(*date)
}

func fresh(prev *Occurrence, key Key) Occurrence {
	if prev != nil {
		return *prev
	}
	return Occurrence{ID: uuid.NewString(), DetailID: key.DetailID, Date: key.Date}
}

func muteKey(userID string, v schedules.DetailView, date time.Time) mute.Key {
	return mute.Key{UserID: userID, DetailID: v.Detail.ID, Date: CalendarDateOf(date)}
}

func (s *Service) mute(ctx context.Context, userID string, v schedules.DetailView, date, until time.Time) {
	if s.mutes == nil {
		s.sideEffectFailed(ctx, "mute", errNoMuteStore)
		return
	}
	if err := s.mutes.Mute(ctx, muteKey(userID, v, date), until); err != nil {
		s.sideEffectFailed(ctx, "mute", err)
	}
}

func (s *Service) unmute(ctx context.Context, userID string, v schedules.DetailView, date time.Time) {
	if s.mutes == nil {
		return
	}
	if err := s.mutes.Unmute(ctx, muteKey(userID, v, date)); err != nil {
		s.sideEffectFailed(ctx, "unmute", err)
	}
}

func (s *Service) publish(ctx context.Context, typ events.Type, userID string, v schedules.DetailView, up UpsertResult) {
	if up.Outcome == OutcomeUnchanged {
		return
	}
	e := eventFor(typ, userID, v.MedicineID, up.Current, s.clock.Now())
	if up.Previous != nil {
		e.PreviousStatus = string(*up.Previous)
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.sideEffectFailed(ctx, "publish", err)
	}
}

func eventFor(typ events.Type, userID, medicineID string, o Occurrence, at time.Time) events.OccurrenceEvent {
	return events.OccurrenceEvent{
		Type:       typ,
		UserID:     userID,
		DetailID:   o.DetailID,
		MedicineID: medicineID,
		Date:       o.Date.Format(DateLayout),
		Status:     string(o.Status),
		OccurredAt: at,
	}
}

func (s *Service) sideEffectFailed(ctx context.Context, kind string, err error) {
	s.metrics.SideEffectFailed(kind)
	s.log.Warn("post-commit side effect failed",
		zap.String("kind", kind),
		zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()),
		zap.Error(err),
	)
}

func (s *Service) start(ctx context.Context, name, detailID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("detail.id", detailID)))
}

func (s *Service) finish(span trace.Span, action string, res ActionResult, err error) {
	defer span.End()
	if err != nil {
		outcome := "error"
		if k := apperr.KindOf(err); k != "" {
			outcome = string(k)
		}
		s.metrics.Action(action, outcome)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	s.metrics.Action(action, string(res.Outcome))
	span.SetAttributes(
		attribute.String("occurrence.status", string(res.Occurrence.Status)),
		attribute.String("occurrence.outcome", string(res.Outcome)),
	)
}
