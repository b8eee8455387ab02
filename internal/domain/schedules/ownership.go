package schedules

import (
	"context"
	"strings"
)

// ResolveDetail recorre Detail -> Schedule -> Medicine -> User.
// Un detalle ajeno, o de un medicamento dado de baja, es NotFound.
func (s *Service) ResolveDetail(ctx context.Context, userID, detailID string) (DetailView, error) {
	detailID = strings.TrimSpace(detailID)
	if detailID == "" || strings.TrimSpace(userID) == "" {
		return DetailView{}, ErrDetailNotFound
	}
	v, err := s.repo.GetDetailView(ctx, detailID)
	if err != nil {
		return DetailView{}, err
	}
	if !v.MedicineActive || v.OwnerUserID != userID {
		return DetailView{}, ErrDetailNotFound
	}
	return v, nil
}

// ListOwnedDetails es el inventario de tomas que usa el barrido de MISSED.
func (s *Service) ListOwnedDetails(ctx context.Context, userID string) ([]DetailView, error) {
	return s.repo.ListDetailViewsByOwner(ctx, userID)
}
