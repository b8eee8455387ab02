package medicines

import (
	"context"
	"net/http"
	"time"

	"medcare/internal/domain/schedules"
	"medcare/internal/middleware"
	"medcare/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ScheduleLister resuelve ?include=schedules. Lo implementa schedules.Service.
type ScheduleLister interface {
	ListByMedicine(ctx context.Context, userID, medicineID string) ([]schedules.Schedule, error)
}

// RegisterRoutes monta /medicines. reminders puede ser nil.
func RegisterRoutes(r chi.Router, svc *Service, scheds ScheduleLister, reminders http.HandlerFunc, log *zap.Logger) {
	r.Route("/medicines", func(mr chi.Router) {
		mr.Get("/", listMedicinesHandler(svc, scheds, log))
		mr.Post("/", createMedicineHandler(svc, log))
		mr.Get("/low-stock", lowStockHandler(svc, log))

		mr.Get("/{medicineID}", getMedicineHandler(svc, scheds, log))
		mr.Patch("/{medicineID}", updateMedicineHandler(svc, log))
		mr.Delete("/{medicineID}", deleteMedicineHandler(svc, log))
		if reminders != nil {
			mr.Get("/{medicineID}/reminders", reminders)
		}
	})
}

type createMedicineRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,max=100"`
	Dosage   string `json:"dosage" validate:"required,max=100"`
	Stock    int    `json:"stock" validate:"min=0"`
	MinStock int    `json:"min_stock" validate:"min=0"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// Punteros para PATCH real: nil = no tocar.
type updateMedicineRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Type     *string `json:"type" validate:"omitempty,max=100"`
	Dosage   *string `json:"dosage" validate:"omitempty,max=100"`
	Stock    *int    `json:"stock" validate:"omitempty,min=0"`
	MinStock *int    `json:"min_stock" validate:"omitempty,min=0"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

type medicineResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Type      string                  `json:"type"`
	Dosage    string                  `json:"dosage"`
	Stock     int                     `json:"stock"`
	MinStock  int                     `json:"min_stock"`
	Notes     string                  `json:"notes"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Schedules []schedules.ScheduleDTO `json:"schedules,omitempty"`
}

type lowStockResponse struct {
	medicineResponse
	StockStatus StockStatus `json:"stock_status"`
}

// listMedicinesHandler godoc
// @Summary  List active medicines
// @Tags     medicines
// @Produce  json
// @Param    include query string false "schedules"
// @Success  200 {array} medicineResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Router   /medicines [get]
func listMedicinesHandler(svc *Service, scheds ScheduleLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		items, err := svc.List(r.Context(), userID)
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		include := wantsSchedules(r)
		out := make([]medicineResponse, 0, len(items))
		for _, m := range items {
			resp := toMedicineResponse(m)
			if include {
				if resp.Schedules, err = loadSchedules(r.Context(), scheds, userID, m.ID); err != nil {
					httpx.WriteError(w, r, log, err)
					return
				}
			}
			out = append(out, resp)
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// createMedicineHandler godoc
// @Summary  Register a medicine
// @Tags     medicines
// @Accept   json
// @Produce  json
// @Param    body body createMedicineRequest true "Medicine"
// @Success  201 {object} medicineResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /medicines [post]
func createMedicineHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		var req createMedicineRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		m, err := svc.Create(r.Context(), userID, CreateInput{
			Name:     req.Name,
			Type:     req.Type,
			Dosage:   req.Dosage,
			Stock:    req.Stock,
			MinStock: req.MinStock,
			Notes:    req.Notes,
		})
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

// getMedicineHandler godoc
// @Summary  Get a medicine
// @Tags     medicines
// @Produce  json
// @Param    medicineID path  string true  "Medicine ID"
// @Param    include    query string false "schedules"
// @Success  200 {object} medicineResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /medicines/{medicineID} [get]
func getMedicineHandler(svc *Service, scheds ScheduleLister, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		m, err := svc.Get(r.Context(), userID, chi.URLParam(r, "medicineID"))
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		resp := toMedicineResponse(m)
		if wantsSchedules(r) {
			if resp.Schedules, err = loadSchedules(r.Context(), scheds, userID, m.ID); err != nil {
				httpx.WriteError(w, r, log, err)
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

// updateMedicineHandler godoc
// @Summary  Partially update a medicine
// @Tags     medicines
// @Accept   json
// @Produce  json
// @Param    medicineID path string                true "Medicine ID"
// @Param    body       body updateMedicineRequest true "Fields to update"
// @Success  200 {object} medicineResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /medicines/{medicineID} [patch]
func updateMedicineHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		var req updateMedicineRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		m, err := svc.Update(r.Context(), userID, chi.URLParam(r, "medicineID"), UpdateInput{
			Name:     req.Name,
			Type:     req.Type,
			Dosage:   req.Dosage,
			Stock:    req.Stock,
			MinStock: req.MinStock,
			Notes:    req.Notes,
		})
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

// deleteMedicineHandler godoc
// @Summary  Deactivate a medicine (soft delete)
// @Tags     medicines
// @Produce  json
// @Param    medicineID path string true "Medicine ID"
// @Success  200 {object} httpx.MessageResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /medicines/{medicineID} [delete]
func deleteMedicineHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "medicineID")); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, httpx.MessageResponse{Message: "Medicine deleted"})
	}
}

// lowStockHandler godoc
// @Summary  Medicines at or below their minimum stock
// @Tags     medicines
// @Produce  json
// @Success  200 {array} lowStockResponse
// @Router   /medicines/low-stock [get]
func lowStockHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		items, err := svc.LowStock(r.Context(), userID)
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		out := make([]lowStockResponse, 0, len(items))
		for _, it := range items {
			out = append(out, lowStockResponse{medicineResponse: toMedicineResponse(it.Medicine), StockStatus: it.Status})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func wantsSchedules(r *http.Request) bool {
	return r.URL.Query().Get("include") == "schedules"
}

func loadSchedules(ctx context.Context, scheds ScheduleLister, userID, medicineID string) ([]schedules.ScheduleDTO, error) {
	if scheds == nil {
		return nil, nil
	}
	items, err := scheds.ListByMedicine(ctx, userID, medicineID)
	if err != nil {
		return nil, err
	}
	out := make([]schedules.ScheduleDTO, 0, len(items))
	for _, sc := range items {
		out = append(out, schedules.ToScheduleDTO(sc))
	}
	return out, nil
}

func toMedicineResponse(m Medicine) medicineResponse {
	return medicineResponse{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Dosage:    m.Dosage,
		Stock:     m.Stock,
		MinStock:  m.MinStock,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
