package settings

import "context"

type Repository interface {
	// Get devuelve ErrNotFound si el usuario todavía no tiene settings.
	Get(ctx context.Context, userID string) (Settings, error)
	// Save inserta o reemplaza.
	Save(ctx context.Context, s Settings) error
	// CreateIfAbsent inserta s solo si no existe y devuelve lo almacenado.
	CreateIfAbsent(ctx context.Context, s Settings) (Settings, error)
}
