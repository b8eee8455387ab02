// Package sandbox genera datos de demo para un usuario: medicamentos, horarios
// diarios y una semana de historial. Todo pasa por los servicios de dominio,
// así que el stock y los estados quedan igual que con uso real.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"medcare/internal/domain/history"
	"medcare/internal/domain/medicines"
	"medcare/internal/domain/schedules"
	"medcare/internal/platform/clock"
)

type Config struct {
	// Days de historial antes de hoy. Hoy queda sin registrar (PENDING).
	Days int
	// Seed hace reproducible el reparto DONE/MISSED.
	Seed int64
	// TakeRates por día, del más viejo al más reciente; se repite el último.
	TakeRates []float64
}

func DefaultConfig() Config {
	return Config{Days: 6, Seed: 1, TakeRates: []float64{0.8, 0.7}}
}

type Deps struct {
	Medicines *medicines.Service
	Schedules *schedules.Service
	History   history.Store
	// HistoryOptions se aplican a cada servicio de historial (logger, métricas).
	HistoryOptions []history.Option
}

type Summary struct {
	Medicines int
	Schedules int
	Details   int
	Taken     int
	Skipped   int
}

type demoMedicine struct {
	in    medicines.CreateInput
	times []string
}

var demo = []demoMedicine{
	{medicines.CreateInput{Name: "Aspirin", Type: "Tablet", Dosage: "500mg", Stock: 30, MinStock: 5, Notes: "After meal"}, []string{"08:00", "20:00"}},
	{medicines.CreateInput{Name: "Paracetamol", Type: "Tablet", Dosage: "500mg", Stock: 20, MinStock: 5, Notes: "Pain relief"}, []string{"09:00", "21:00"}},
	{medicines.CreateInput{Name: "Amoxicillin", Type: "Capsule", Dosage: "250mg", Stock: 14, MinStock: 3, Notes: "Antibiotic"}, []string{"07:30", "19:30"}},
	{medicines.CreateInput{Name: "Vitamin C", Type: "Tablet", Dosage: "1000mg", Stock: 60, MinStock: 10, Notes: "Immune support"}, []string{"08:30"}},
	{medicines.CreateInput{Name: "Metformin", Type: "Tablet", Dosage: "850mg", Stock: 3, MinStock: 10, Notes: "Low stock"}, nil},
}

// Seed crea los datos de demo para userID tomando now como "hoy".
func Seed(ctx context.Context, deps Deps, userID string, now time.Time, cfg Config) (Summary, error) {
	if cfg.Days < 0 {
		return Summary{}, fmt.Errorf("sandbox: negative days %d", cfg.Days)
	}
	if len(cfg.TakeRates) == 0 {
		cfg.TakeRates = DefaultConfig().TakeRates
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	today := history.CalendarDateOf(now)
	start := today.AddDate(0, 0, -cfg.Days)

	var sum Summary
	var details []schedules.Detail
	for _, dm := range demo {
		m, err := deps.Medicines.Create(ctx, userID, dm.in)
		if err != nil {
			return sum, fmt.Errorf("sandbox: medicine %s: %w", dm.in.Name, err)
		}
		sum.Medicines++
		if len(dm.times) == 0 {
			continue
		}

		in := schedules.CreateInput{MedicineID: m.ID, Type: schedules.TypeDaily, StartDate: start}
		for _, t := range dm.times {
			in.Details = append(in.Details, schedules.DetailInput{Time: t})
		}
		sc, err := deps.Schedules.Create(ctx, userID, in)
		if err != nil {
			return sum, fmt.Errorf("sandbox: schedule %s: %w", dm.in.Name, err)
		}
		sum.Schedules++
		sum.Details += len(sc.Details)
		details = append(details, sc.Details...)
	}

	for i := 0; i < cfg.Days; i++ {
		day := start.AddDate(0, 0, i)
		rate := cfg.TakeRates[min(i, len(cfg.TakeRates)-1)]
		for _, d := range details {
			// el engine solo acepta acciones del día: se le da un reloj
			// parado en la toma (con hasta 45 min de demora).
			at := d.Time.On(day).Add(time.Duration(rng.Intn(45)) * time.Minute)
			opts := append(append([]history.Option{}, deps.HistoryOptions...), history.WithClock(clock.Fixed(at)))
			svc := history.NewService(deps.History, deps.Schedules, opts...)

			if rng.Float64() < rate {
				if _, err := svc.MarkAsTaken(ctx, userID, d.ID, history.ActionInput{}); err != nil {
					return sum, fmt.Errorf("sandbox: take %s on %s: %w", d.ID, day.Format(history.DateLayout), err)
				}
				sum.Taken++
				continue
			}
			if _, err := svc.Skip(ctx, userID, d.ID, history.ActionInput{}); err != nil {
				return sum, fmt.Errorf("sandbox: skip %s on %s: %w", d.ID, day.Format(history.DateLayout), err)
			}
			sum.Skipped++
		}
	}
	return sum, nil
}
