package schedules

import "context"

type Repository interface {
	// CreateSchedule guarda el horario y sus detalles juntos.
	CreateSchedule(ctx context.Context, s Schedule) error
	// GetSchedule trae el horario con sus detalles ordenados por hora.
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedulesByMedicine(ctx context.Context, medicineID string) ([]Schedule, error)
	// UpdateSchedule actualiza cabecera, agrega y borra detalles en una transacción.
	UpdateSchedule(ctx context.Context, s Schedule, add []Detail, removeIDs []string) error
	DeleteSchedule(ctx context.Context, id string) error

	AddDetails(ctx context.Context, details []Detail) error
	UpdateDetail(ctx context.Context, d Detail) error
	DeleteDetail(ctx context.Context, id string) error

	GetDetailView(ctx context.Context, detailID string) (DetailView, error)
	// ListDetailViewsByOwner solo incluye medicamentos activos, ordenado por hora.
	ListDetailViewsByOwner(ctx context.Context, userID string) ([]DetailView, error)
}
