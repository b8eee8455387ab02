// @title           medcare API
// @version         1.0
// @description     Medication adherence backend: medicines, schedules, intake history and compliance.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medcare/internal/adapters/auth/jwt"
	"medcare/internal/adapters/auth/remote"
	"medcare/internal/adapters/events/kafka"
	muteredis "medcare/internal/adapters/mute/redis"
	pg "medcare/internal/adapters/storage/postgres"
	"medcare/internal/config"
	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/logger"
	"medcare/internal/platform/metrics"
	"medcare/internal/platform/sandbox"
	"medcare/internal/platform/tracing"
	"medcare/internal/ports/auth"
	"medcare/internal/ports/events"
	"medcare/internal/router"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medcare",
		Short: "Medication adherence API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, App: cfg.AppName})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  cfg.AppName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	m := metrics.New()
	opts := router.Options{
		Logger:         log,
		Metrics:        m,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		ServiceName:    cfg.AppName,
		Policy:         policyFrom(cfg),
		Ready:          map[string]router.Pinger{},
	}

	opts.AuthVerifier, err = verifierFrom(cfg)
	if err != nil {
		return err
	}

	if cfg.DatabaseDSN != "" {
		pool, err := openAndMigrate(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts.Pool = pool
	} else {
		log.Warn("DB_DSN not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		rs, err := muteredis.Open(ctx, muteredis.Config{URL: cfg.RedisURL}, log)
		if err != nil {
			return err
		}
		defer func() { _ = rs.Close() }()
		opts.Mute = rs
		opts.Ready["redis"] = rs
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, log,
			func(error) { m.SideEffectFailed("publish") })
		if err != nil {
			return err
		}
		defer func() {
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = pub.Close(fctx)
		}()
		opts.Publisher = pub
		opts.Ready["kafka"] = pub
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("auth_mode", cfg.AuthMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-quit:
	}

	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := tp.Shutdown(sctx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := pg.NewMigrator(pool, pg.Migrations()).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := pg.NewMigrator(pool, pg.Migrations()).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})
	return cmd
}

// sweep inserta los MISSED vencidos de un usuario. Pensado para cron cuando
// MISSED_SWEEP_ON_READ está apagado.
func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Record missed occurrences for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			if userID == "" {
				return errors.New("--user is required")
			}
			cfg, pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, App: cfg.AppName})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			medSvc := medicines.NewService(pg.NewMedicinesRepo(pool))
			schedSvc := schedules.NewService(pg.NewSchedulesRepo(pool), medSvc)
			histSvc := history.NewService(pg.NewHistoryStore(pool), schedSvc,
				history.WithPolicy(*policyFrom(cfg)),
				history.WithPublisher(events.Nop{}),
				history.WithLogger(log),
			)

			n, err := histSvc.Sweep(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %d missed occurrence(s).\n", n)
			return nil
		},
	}
	cmd.Flags().String("user", "", "User id to sweep")
	return cmd
}

// seed carga datos de demo para un usuario: medicamentos, horarios diarios
// y los últimos días de historial.
func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo medicines, schedules and history for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			if userID == "" {
				return errors.New("--user is required")
			}
			days, _ := cmd.Flags().GetInt("days")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, App: cfg.AppName})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			medSvc := medicines.NewService(pg.NewMedicinesRepo(pool))
			schedSvc := schedules.NewService(pg.NewSchedulesRepo(pool), medSvc)

			sc := sandbox.DefaultConfig()
			sc.Days, sc.Seed = days, seed
			sum, err := sandbox.Seed(cmd.Context(), sandbox.Deps{
				Medicines:      medSvc,
				Schedules:      schedSvc,
				History:        pg.NewHistoryStore(pool),
				HistoryOptions: []history.Option{history.WithLogger(log)},
			}, userID, time.Now().UTC(), sc)
			if err != nil {
				return err
			}
			log.Info("seed done",
				zap.String("user_id", userID),
				zap.Int("medicines", sum.Medicines),
				zap.Int("schedules", sum.Schedules),
				zap.Int("taken", sum.Taken),
				zap.Int("skipped", sum.Skipped),
			)
			return nil
		},
	}
	cmd.Flags().String("user", "", "User id that owns the demo data")
	cmd.Flags().Int("days", sandbox.DefaultConfig().Days, "Days of history before today")
	cmd.Flags().Int64("seed", time.Now().UnixNano(), "Random seed for the taken/missed mix")
	return cmd
}

// token emite un JWT de prueba con AUTH_JWT_SECRET.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			v, err := jwt.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
			if err != nil {
				return err
			}
			tok, err := v.Mint(userID, ttl, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().String("user", "", "Subject (user id)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseDSN == "" {
		return nil, nil, errors.New("DB_DSN is required")
	}
	pool, err := pg.Open(ctx, cfg.DatabaseDSN, pg.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func openAndMigrate(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pg.Open(ctx, cfg.DatabaseDSN, pg.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, err
	}
	n, err := pg.NewMigrator(pool, pg.Migrations()).Up(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("database ready", zap.Int("migrations_applied", n))
	return pool, nil
}

func verifierFrom(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case "jwt":
		return jwt.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
	case "remote":
		return remote.NewVerifier(remote.Config{
			BaseURL: cfg.AuthRemoteURL,
			APIKey:  cfg.AuthRemoteAPIKey,
			Timeout: cfg.AuthRemoteTimeout,
		})
	default:
		// modo dev: X-Debug-User-ID
		return nil, nil
	}
}

func policyFrom(cfg *config.Config) *history.Policy {
	return &history.Policy{
		SkipTodayOnly: cfg.SkipTodayOnly,
		SweepOnRead:   cfg.MissedSweepOnRead,
		LookbackDays:  cfg.SweepLookbackDays,
	}
}
