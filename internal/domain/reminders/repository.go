package reminders

import "context"

type Repository interface {
	Create(ctx context.Context, r Reminder) error
	Update(ctx context.Context, r Reminder) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Reminder, error)

	ListByMedicine(ctx context.Context, medicineID string) ([]Reminder, error)
	// ListByOwner solo incluye medicamentos activos; orden por Time asc.
	ListByOwner(ctx context.Context, userID string) ([]Reminder, error)
}
