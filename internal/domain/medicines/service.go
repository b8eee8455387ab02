package medicines

import (
	"context"
	"strings"

	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = apperr.NotFound("medicine not found")
	ErrNothingToPatch = apperr.Validation("no fields to update")
)

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		clock: clock.System(),
	}
}

// WithClock se usa en tests y en el router cuando se inyecta reloj.
func (s *Service) WithClock(c clock.Clock) *Service {
	if c != nil {
		s.clock = c
	}
	return s
}

type CreateInput struct {
	Name     string
	Type     string
	Dosage   string
	Stock    int
	MinStock int
	Notes    string
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name     *string
	Type     *string
	Dosage   *string
	Stock    *int
	MinStock *int
	Notes    *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Type == nil && in.Dosage == nil &&
		in.Stock == nil && in.MinStock == nil && in.Notes == nil
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Medicine, error) {
	if strings.TrimSpace(userID) == "" {
		return Medicine{}, apperr.ErrUnauthorized
	}
	if err := validateFields(in.Name, in.Type, in.Dosage, in.Stock, in.MinStock); err != nil {
		return Medicine{}, err
	}

	now := s.clock.Now()
	m := Medicine{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Type:      strings.TrimSpace(in.Type),
		Dosage:    strings.TrimSpace(in.Dosage),
		Stock:     in.Stock,
		MinStock:  in.MinStock,
		Notes:     strings.TrimSpace(in.Notes),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// Get devuelve el medicamento si es del usuario y está activo.
// Ownership ajeno también es NotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (Medicine, error) {
	m, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Medicine{}, err
	}
	if !m.Active || m.UserID != userID {
		return Medicine{}, ErrNotFound
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Medicine, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Medicine, error) {
	if in.empty() {
		return Medicine{}, ErrNothingToPatch
	}

	m, err := s.Get(ctx, userID, id)
	if err != nil {
		return Medicine{}, err
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		m.Type = strings.TrimSpace(*in.Type)
	}
	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Stock != nil {
		m.Stock = *in.Stock
	}
	if in.MinStock != nil {
		m.MinStock = *in.MinStock
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}

	// El stock puede haber quedado negativo por tomas sin inventario:
	// solo se validan los números que vienen en el patch.
	stock, minStock := 0, 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	if in.MinStock != nil {
		minStock = *in.MinStock
	}
	if err := validateFields(m.Name, m.Type, m.Dosage, stock, minStock); err != nil {
		return Medicine{}, err
	}

	m.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// Delete es soft delete: los horarios y el historial quedan, pero el
// medicamento deja de ser visible y de resolver ownership.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	m, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	m.Active = false
	m.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, m)
}

func (s *Service) LowStock(ctx context.Context, userID string) ([]LowStockItem, error) {
	all, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]LowStockItem, 0)
	for _, m := range all {
		if !m.IsLow() {
			continue
		}
		out = append(out, LowStockItem{Medicine: m, Status: m.StockStatus()})
	}
	return out, nil
}

func validateFields(name, typ, dosage string, stock, minStock int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.Validation("name can not be empty")
	case strings.TrimSpace(typ) == "":
		return apperr.Validation("type can not be empty")
	case strings.TrimSpace(dosage) == "":
		return apperr.Validation("dosage can not be empty")
	case stock < 0:
		return apperr.Validation("stock must be >= 0")
	case minStock < 0:
		return apperr.Validation("min_stock must be >= 0")
	}
	return nil
}
