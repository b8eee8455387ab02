package medicines

import "context"

// OwnerOf expone el userID dueño de un medicamento activo.
// Schedules y reminders lo consumen por interfaz para no importar este paquete.
func (s *Service) OwnerOf(ctx context.Context, medicineID string) (string, error) {
	m, err := s.repo.GetByID(ctx, medicineID)
	if err != nil {
		return "", err
	}
	if !m.Active {
		return "", ErrNotFound
	}
	return m.UserID, nil
}
