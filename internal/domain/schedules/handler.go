package schedules

import (
	"net/http"
	"time"

	"medcare/internal/middleware"
	"medcare/internal/platform/apperr"
	"medcare/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRoutes monta las rutas sobre el subrouter de /schedules.
func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	h := handler{svc: svc, log: log}

	r.Get("/", h.listDetails)
	r.Post("/", h.create)
	r.Get("/by-date", h.byDate)

	r.Patch("/details/{detailID}", h.updateDetail)
	r.Delete("/details/{detailID}", h.deleteDetail)

	r.Get("/{scheduleID}", h.get)
	r.Put("/{scheduleID}", h.update)
	r.Delete("/{scheduleID}", h.delete)
	r.Post("/{scheduleID}/details", h.addDetails)
}

type handler struct {
	svc *Service
	log *zap.Logger
}

type detailRequest struct {
	Time      string `json:"time" validate:"required,hhmm"`
	DayOfWeek *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
}

type createScheduleRequest struct {
	MedicineID   string          `json:"medicine_id" validate:"required"`
	ScheduleType Type            `json:"schedule_type" validate:"required,oneof=DAILY WEEKLY"`
	StartDate    string          `json:"start_date" validate:"required,isodate"`
	Details      []detailRequest `json:"details" validate:"required,min=1,dive"`
}

type updateScheduleRequest struct {
	ScheduleType Type            `json:"schedule_type" validate:"required,oneof=DAILY WEEKLY"`
	StartDate    string          `json:"start_date" validate:"required,isodate"`
	Details      []detailRequest `json:"details" validate:"required,min=1,dive"`
}

type addDetailsRequest struct {
	Details []detailRequest `json:"details" validate:"required,min=1,dive"`
}

type patchDetailRequest struct {
	Time      *string `json:"time" validate:"omitempty,hhmm"`
	DayOfWeek *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
}

// DetailDTO es la forma pública de un Detail.
type DetailDTO struct {
	ID         string `json:"id"`
	ScheduleID string `json:"schedule_id"`
	Time       string `json:"time"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"`
}

// ScheduleDTO también lo usa medicines para ?include=schedules.
type ScheduleDTO struct {
	ID           string      `json:"id"`
	MedicineID   string      `json:"medicine_id"`
	ScheduleType Type        `json:"schedule_type"`
	StartDate    string      `json:"start_date"`
	Details      []DetailDTO `json:"details"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type detailViewResponse struct {
	DetailDTO
	ScheduleType Type   `json:"schedule_type"`
	StartDate    string `json:"start_date"`
	MedicineID   string `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
}

// listDetails godoc
// @Summary  All schedule details of the user, ordered by time
// @Tags     schedules
// @Produce  json
// @Success  200 {array} detailViewResponse
// @Router   /schedules [get]
func (h handler) listDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	items, err := h.svc.ListDetails(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDetailViewResponses(items))
}

// byDate godoc
// @Summary  Schedule details that apply on a date
// @Tags     schedules
// @Produce  json
// @Param    date query string true "YYYY-MM-DD"
// @Success  200 {array} detailViewResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /schedules/by-date [get]
func (h handler) byDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	date, err := httpx.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	if date == nil {
		httpx.WriteError(w, r, h.log, apperr.Validation("date is required"))
		return
	}
	items, err := h.svc.DetailsByDate(r.Context(), userID, *date)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDetailViewResponses(items))
}

// create godoc
// @Summary  Create a schedule with its details
// @Tags     schedules
// @Accept   json
// @Produce  json
// @Param    body body createScheduleRequest true "Schedule"
// @Success  201 {object} ScheduleDTO
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules [post]
func (h handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req createScheduleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	start, err := httpx.ParseDate(req.StartDate)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sc, err := h.svc.Create(r.Context(), userID, CreateInput{
		MedicineID: req.MedicineID,
		Type:       req.ScheduleType,
		StartDate:  *start,
		Details:    toDetailInputs(req.Details),
	})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ToScheduleDTO(sc))
}

// get godoc
// @Summary  Get a schedule with its details
// @Tags     schedules
// @Produce  json
// @Param    scheduleID path string true "Schedule ID"
// @Success  200 {object} ScheduleDTO
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/{scheduleID} [get]
func (h handler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	sc, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "scheduleID"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToScheduleDTO(sc))
}

// update godoc
// @Summary  Replace a schedule (unchanged time slots keep their history)
// @Tags     schedules
// @Accept   json
// @Produce  json
// @Param    scheduleID path string                true "Schedule ID"
// @Param    body       body updateScheduleRequest true "Schedule"
// @Success  200 {object} ScheduleDTO
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/{scheduleID} [put]
func (h handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req updateScheduleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	start, err := httpx.ParseDate(req.StartDate)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	sc, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "scheduleID"), UpdateInput{
		Type:      req.ScheduleType,
		StartDate: *start,
		Details:   toDetailInputs(req.Details),
	})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ToScheduleDTO(sc))
}

// delete godoc
// @Summary  Delete a schedule and its history
// @Tags     schedules
// @Produce  json
// @Param    scheduleID path string true "Schedule ID"
// @Success  200 {object} httpx.MessageResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/{scheduleID} [delete]
func (h handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "scheduleID")); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.MessageResponse{Message: "Schedule deleted"})
}

// addDetails godoc
// @Summary  Add details to a schedule
// @Tags     schedules
// @Accept   json
// @Produce  json
// @Param    scheduleID path string            true "Schedule ID"
// @Param    body       body addDetailsRequest true "Details"
// @Success  201 {array} DetailDTO
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/{scheduleID}/details [post]
func (h handler) addDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req addDetailsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	details, err := h.svc.AddDetails(r.Context(), userID, chi.URLParam(r, "scheduleID"), toDetailInputs(req.Details))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	out := make([]DetailDTO, 0, len(details))
	for _, d := range details {
		out = append(out, toDetailDTO(d))
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

// updateDetail godoc
// @Summary  Update time or day of a schedule detail
// @Tags     schedules
// @Accept   json
// @Produce  json
// @Param    detailID path string             true "Schedule detail ID"
// @Param    body     body patchDetailRequest true "Fields to update"
// @Success  200 {object} DetailDTO
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID} [patch]
func (h handler) updateDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req patchDetailRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	d, err := h.svc.UpdateDetail(r.Context(), userID, chi.URLParam(r, "detailID"), DetailPatch{Time: req.Time, DayOfWeek: req.DayOfWeek})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDetailDTO(d))
}

// deleteDetail godoc
// @Summary  Delete a schedule detail and its history
// @Tags     schedules
// @Produce  json
// @Param    detailID path string true "Schedule detail ID"
// @Success  200 {object} httpx.MessageResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID} [delete]
func (h handler) deleteDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	if err := h.svc.DeleteDetail(r.Context(), userID, chi.URLParam(r, "detailID")); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.MessageResponse{Message: "Schedule detail deleted"})
}

func toDetailInputs(in []detailRequest) []DetailInput {
	out := make([]DetailInput, 0, len(in))
	for _, d := range in {
		out = append(out, DetailInput{Time: d.Time, DayOfWeek: d.DayOfWeek})
	}
	return out
}

func toDetailDTO(d Detail) DetailDTO {
	return DetailDTO{
		ID:         d.ID,
		ScheduleID: d.ScheduleID,
		Time:       d.Time.String(),
		DayOfWeek:  d.DayOfWeek,
	}
}

func ToScheduleDTO(s Schedule) ScheduleDTO {
	details := make([]DetailDTO, 0, len(s.Details))
	for _, d := range s.Details {
		details = append(details, toDetailDTO(d))
	}
	return ScheduleDTO{
		ID:           s.ID,
		MedicineID:   s.MedicineID,
		ScheduleType: s.Type,
		StartDate:    s.StartDate.Format(httpx.DateLayout),
		Details:      details,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func toDetailViewResponses(items []DetailView) []detailViewResponse {
	out := make([]detailViewResponse, 0, len(items))
	for _, v := range items {
		out = append(out, detailViewResponse{
			DetailDTO:    toDetailDTO(v.Detail),
			ScheduleType: v.ScheduleType,
			StartDate:    v.StartDate.Format(httpx.DateLayout),
			MedicineID:   v.MedicineID,
			MedicineName: v.MedicineName,
		})
	}
	return out
}
