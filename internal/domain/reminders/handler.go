package reminders

import (
	"net/http"
	"time"

	"medcare/internal/middleware"
	"medcare/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Route("/reminders", func(rr chi.Router) {
		rr.Get("/", listRemindersHandler(svc, log))
		rr.Post("/", createReminderHandler(svc, log))
		rr.Get("/upcoming", upcomingRemindersHandler(svc, log))
		rr.Get("/{reminderID}", getReminderHandler(svc, log))
		rr.Patch("/{reminderID}", updateReminderHandler(svc, log))
		rr.Delete("/{reminderID}", deleteReminderHandler(svc, log))
	})
}

// MedicineRemindersHandler se monta en /medicines/{medicineID}/reminders.
func MedicineRemindersHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		items, err := svc.ListByMedicine(r.Context(), userID, chi.URLParam(r, "medicineID"))
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReminderResponses(items))
	}
}

type createReminderRequest struct {
	MedicineID string    `json:"medicine_id" validate:"required"`
	Time       time.Time `json:"time" validate:"required"`
}

type updateReminderRequest struct {
	Time   *time.Time `json:"time"`
	Status *Status    `json:"status" validate:"omitempty,oneof=PENDING DONE MISSED"`
}

type reminderResponse struct {
	ID         string    `json:"id"`
	MedicineID string    `json:"medicine_id"`
	Time       time.Time `json:"time"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// listRemindersHandler godoc
// @Summary  List reminders ordered by time
// @Tags     reminders
// @Produce  json
// @Success  200 {array} reminderResponse
// @Router   /reminders [get]
func listRemindersHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
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
		httpx.WriteJSON(w, http.StatusOK, toReminderResponses(items))
	}
}

// upcomingRemindersHandler godoc
// @Summary  Pending reminders from now on
// @Tags     reminders
// @Produce  json
// @Success  200 {array} reminderResponse
// @Router   /reminders/upcoming [get]
func upcomingRemindersHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		items, err := svc.Upcoming(r.Context(), userID)
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReminderResponses(items))
	}
}

// createReminderHandler godoc
// @Summary  Create a reminder in the future
// @Tags     reminders
// @Accept   json
// @Produce  json
// @Param    body body createReminderRequest true "Reminder"
// @Success  201 {object} reminderResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /reminders [post]
func createReminderHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		var req createReminderRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		rem, err := svc.Create(r.Context(), userID, CreateInput{MedicineID: req.MedicineID, Time: req.Time})
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toReminderResponse(rem))
	}
}

// getReminderHandler godoc
// @Summary  Get a reminder
// @Tags     reminders
// @Produce  json
// @Param    reminderID path string true "Reminder ID"
// @Success  200 {object} reminderResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /reminders/{reminderID} [get]
func getReminderHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		rem, err := svc.Get(r.Context(), userID, chi.URLParam(r, "reminderID"))
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReminderResponse(rem))
	}
}

// updateReminderHandler godoc
// @Summary  Update reminder time or status
// @Tags     reminders
// @Accept   json
// @Produce  json
// @Param    reminderID path string                true "Reminder ID"
// @Param    body       body updateReminderRequest true "Fields to update"
// @Success  200 {object} reminderResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /reminders/{reminderID} [patch]
func updateReminderHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		var req updateReminderRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		rem, err := svc.Update(r.Context(), userID, chi.URLParam(r, "reminderID"), UpdateInput{Time: req.Time, Status: req.Status})
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReminderResponse(rem))
	}
}

// deleteReminderHandler godoc
// @Summary  Delete a reminder
// @Tags     reminders
// @Produce  json
// @Param    reminderID path string true "Reminder ID"
// @Success  200 {object} httpx.MessageResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /reminders/{reminderID} [delete]
func deleteReminderHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "reminderID")); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, httpx.MessageResponse{Message: "Reminder deleted"})
	}
}

func toReminderResponse(r Reminder) reminderResponse {
	return reminderResponse{
		ID:         r.ID,
		MedicineID: r.MedicineID,
		Time:       r.Time,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toReminderResponses(items []Reminder) []reminderResponse {
	out := make([]reminderResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toReminderResponse(r))
	}
	return out
}

