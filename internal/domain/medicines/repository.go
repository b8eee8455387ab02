package medicines

import "context"

type Repository interface {
	Create(ctx context.Context, m Medicine) error
	Update(ctx context.Context, m Medicine) error
	// GetByID devuelve también inactivos; el service decide.
	GetByID(ctx context.Context, id string) (Medicine, error)
	ListActiveByUser(ctx context.Context, userID string) ([]Medicine, error)
}
