package router

import (
	"context"
	"net/http"
	"time"

	_ "medcare/docs"
	mutemem "medcare/internal/adapters/mute/memory"
	mem "medcare/internal/adapters/storage/memory"
	pg "medcare/internal/adapters/storage/postgres"
	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/reminders"
	"medcare/internal/domain/schedules"
	"medcare/internal/domain/settings"
	"medcare/internal/middleware"
	"medcare/internal/platform/clock"
	"medcare/internal/platform/httpx"
	"medcare/internal/platform/logger"
	"medcare/internal/platform/metrics"
	"medcare/internal/ports/auth"
	"medcare/internal/ports/events"
	"medcare/internal/ports/mute"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Pinger es cualquier dependencia que /ready tiene que ver viva.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	Pool *pgxpool.Pool

	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Publisher events.Publisher
	Mute      mute.Store // nil => go-cache en proceso
	Clock     clock.Clock
	Policy    *history.Policy // nil => history.DefaultPolicy()

	RateLimitRPS   float64
	RateLimitBurst int

	ServiceName string
	Ready       map[string]Pinger // chequeos extra de /ready (redis, kafka...)
}

func NewRouter(opts Options) http.Handler {
	log := logger.OrNop(opts.Logger)
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	service := opts.ServiceName
	if service == "" {
		service = "medcare"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(service))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Logger(log))
	if opts.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ready", readyHandler(opts.Pool, opts.Ready))
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		medRepo      medicines.Repository
		schedRepo    schedules.Repository
		settingsRepo settings.Repository
		remRepo      reminders.Repository
		histStore    history.Store
	)
	if opts.Pool != nil {
		medRepo = pg.NewMedicinesRepo(opts.Pool)
		schedRepo = pg.NewSchedulesRepo(opts.Pool)
		settingsRepo = pg.NewSettingsRepo(opts.Pool)
		remRepo = pg.NewRemindersRepo(opts.Pool)
		histStore = pg.NewHistoryStore(opts.Pool)
	} else {
		db := mem.NewDB()
		medRepo = mem.NewMedicinesRepo(db)
		schedRepo = mem.NewSchedulesRepo(db)
		settingsRepo = mem.NewSettingsRepo(db)
		remRepo = mem.NewRemindersRepo(db)
		histStore = mem.NewHistoryStore(db)
	}

	muteStore := opts.Mute
	if muteStore == nil {
		muteStore = mutemem.NewStore(clk)
	}
	policy := history.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	// Services por módulo
	medSvc := medicines.NewService(medRepo).WithClock(clk)
	schedSvc := schedules.NewService(schedRepo, medSvc).WithClock(clk)
	settingsSvc := settings.NewService(settingsRepo).WithClock(clk)
	remSvc := reminders.NewService(remRepo, medSvc).WithClock(clk)
	histSvc := history.NewService(histStore, schedSvc,
		history.WithClock(clk),
		history.WithPolicy(policy),
		history.WithMuteStore(muteStore),
		history.WithPublisher(opts.Publisher),
		history.WithMetrics(m),
		history.WithLogger(log),
	)

	// Rutas por módulo, todas detrás de auth
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthContext(opts.AuthVerifier, log))

		medicines.RegisterRoutes(r, medSvc, schedSvc, reminders.MedicineRemindersHandler(remSvc, log), log)
		r.Route("/schedules", func(sr chi.Router) {
			schedules.RegisterRoutes(sr, schedSvc, log)
			history.RegisterOccurrenceRoutes(sr, histSvc, log)
		})
		history.RegisterRoutes(r, histSvc, log)
		settings.RegisterRoutes(r, settingsSvc, log)
		reminders.RegisterRoutes(r, remSvc, log)
	})

	return r
}

func readyHandler(pool *pgxpool.Pool, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		ok := true
		if pool != nil {
			checks["postgres"] = "ok"
			if err := pool.Ping(ctx); err != nil {
				checks["postgres"] = err.Error()
				ok = false
			}
		}
		for name, d := range deps {
			checks[name] = "ok"
			if err := d.Ping(ctx); err != nil {
				checks[name] = err.Error()
				ok = false
			}
		}

		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, map[string]any{"ready": ok, "checks": checks})
	}
}
