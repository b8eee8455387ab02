package settings

import (
	"net/http"
	"time"

	"medcare/internal/middleware"
	"medcare/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	r.Get("/settings", getSettingsHandler(svc, log))
	r.Patch("/settings", updateSettingsHandler(svc, log))
}

type settingsResponse struct {
	UserID            string    `json:"user_id"`
	AlarmSound        string    `json:"alarm_sound"`
	NotificationSound string    `json:"notification_sound"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type updateSettingsRequest struct {
	AlarmSound        *string `json:"alarm_sound" validate:"omitempty,max=100"`
	NotificationSound *string `json:"notification_sound" validate:"omitempty,max=100"`
}

// getSettingsHandler godoc
// @Summary  Get user settings (created with defaults on first access)
// @Tags     settings
// @Produce  json
// @Success  200 {object} settingsResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Router   /settings [get]
func getSettingsHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		st, err := svc.Get(r.Context(), userID)
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(st))
	}
}

// updateSettingsHandler godoc
// @Summary  Update alarm / notification sounds
// @Tags     settings
// @Accept   json
// @Produce  json
// @Param    body body updateSettingsRequest true "Fields to update"
// @Success  200 {object} settingsResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /settings [patch]
func updateSettingsHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			httpx.Unauthorized(w)
			return
		}
		var req updateSettingsRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		st, err := svc.Update(r.Context(), userID, UpdateInput{
			AlarmSound:        req.AlarmSound,
			NotificationSound: req.NotificationSound,
		})
		if err != nil {
			httpx.WriteError(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(st))
	}
}

func toSettingsResponse(s Settings) settingsResponse {
	return settingsResponse{
		UserID:            s.UserID,
		AlarmSound:        s.AlarmSound,
		NotificationSound: s.NotificationSound,
		UpdatedAt:         s.UpdatedAt,
	}
}
