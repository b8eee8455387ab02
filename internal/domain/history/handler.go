package history

import (
	"context"
	"net/http"
	"time"

	"medcare/internal/middleware"
	"medcare/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRoutes monta las lecturas de /history.
func RegisterRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	h := handler{svc: svc, log: log}
	r.Route("/history", func(hr chi.Router) {
		hr.Get("/", h.all)
		hr.Get("/weekly", h.weekly)
		hr.Get("/weekly/compliance", h.weeklyCompliance)
		hr.Get("/weekly/missed-count", h.weeklyMissed)
		hr.Get("/recent", h.recent)
	})
}

// RegisterOccurrenceRoutes monta las acciones sobre una toma. r es el
// subrouter de /schedules.
func RegisterOccurrenceRoutes(r chi.Router, svc *Service, log *zap.Logger) {
	h := handler{svc: svc, log: log}
	r.Post("/details/{detailID}/take", h.take)
	r.Post("/details/{detailID}/skip", h.skip)
	r.Post("/details/{detailID}/undo", h.undo)
	r.Get("/details/{detailID}/muted", h.muted)
	r.Get("/details/{detailID}/occurrence", h.occurrence)
}

type handler struct {
	svc *Service
	log *zap.Logger
}

type takeRequest struct {
	Date      string `json:"date" validate:"omitempty,isodate"`
	TimeTaken string `json:"time_taken"` // RFC3339 o HH:mm
}

type dateRequest struct {
	Date string `json:"date" validate:"omitempty,isodate"`
}

type occurrenceResponse struct {
	ID          string     `json:"id"`
	DetailID    string     `json:"detail_id"`
	Date        string     `json:"date"`
	Status      Status     `json:"status"`
	TimeTaken   *time.Time `json:"time_taken"`
	LastUpdated time.Time  `json:"last_updated"`
}

type actionResponse struct {
	Message    string             `json:"message"`
	Outcome    Outcome            `json:"outcome"`
	Occurrence occurrenceResponse `json:"occurrence"`
}

type entryResponse struct {
	occurrenceResponse
	MedicineID    string `json:"medicine_id"`
	MedicineName  string `json:"medicine_name"`
	ScheduledTime string `json:"scheduled_time"`
}

type snapshotResponse struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
	ComplianceRate float64 `json:"compliance_rate"`
}

type weeklyResponse struct {
	WeekStart string           `json:"week_start"`
	WeekEnd   string           `json:"week_end"`
	Summary   snapshotResponse `json:"summary"`
	Items     []entryResponse  `json:"items"`
}

type complianceResponse struct {
	ComplianceRate float64 `json:"compliance_rate"`
}

type missedCountResponse struct {
	MissedCount int `json:"missed_count"`
}

type mutedResponse struct {
	DetailID string `json:"detail_id"`
	Date     string `json:"date"`
	Muted    bool   `json:"muted"`
}

// take godoc
// @Summary  Mark an occurrence as taken
// @Tags     occurrences
// @Accept   json
// @Produce  json
// @Param    detailID path string      true  "Schedule detail ID"
// @Param    body     body takeRequest false "Date (today only) and time taken"
// @Success  200 {object} actionResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID}/take [post]
func (h handler) take(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req takeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	date, err := httpx.ParseDate(req.Date)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	on := h.svc.clock.Now()
	if date != nil {
		on = *date
	}
	taken, err := ParseTimeTaken(req.TimeTaken, on)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}

	res, err := h.svc.MarkAsTaken(r.Context(), userID, chi.URLParam(r, "detailID"), ActionInput{Date: date, TimeTaken: taken})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toActionResponse(res))
}

// skip godoc
// @Summary  Skip an occurrence and mute its alarm
// @Tags     occurrences
// @Accept   json
// @Produce  json
// @Param    detailID path string      true  "Schedule detail ID"
// @Param    body     body dateRequest false "Occurrence date"
// @Success  200 {object} actionResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID}/skip [post]
func (h handler) skip(w http.ResponseWriter, r *http.Request) {
	h.dateAction(w, r, h.svc.Skip)
}

// undo godoc
// @Summary  Undo today's action on an occurrence
// @Tags     occurrences
// @Accept   json
// @Produce  json
// @Param    detailID path string      true  "Schedule detail ID"
// @Param    body     body dateRequest false "Occurrence date (today only)"
// @Success  200 {object} actionResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID}/undo [post]
func (h handler) undo(w http.ResponseWriter, r *http.Request) {
	h.dateAction(w, r, h.svc.Undo)
}

type dateActionFunc func(ctx context.Context, userID, detailID string, in ActionInput) (ActionResult, error)

func (h handler) dateAction(w http.ResponseWriter, r *http.Request, do dateActionFunc) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	var req dateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	date, err := httpx.ParseDate(req.Date)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	res, err := do(r.Context(), userID, chi.URLParam(r, "detailID"), ActionInput{Date: date})
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toActionResponse(res))
}

// muted godoc
// @Summary  Whether the occurrence alarm is muted
// @Tags     occurrences
// @Produce  json
// @Param    detailID path  string true  "Schedule detail ID"
// @Param    date     query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} mutedResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID}/muted [get]
func (h handler) muted(w http.ResponseWriter, r *http.Request) {
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
	detailID := chi.URLParam(r, "detailID")
	muted, err := h.svc.IsMuted(r.Context(), userID, detailID, date)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	day := dateOrToday(date, h.svc.clock.Now())
	httpx.WriteJSON(w, http.StatusOK, mutedResponse{DetailID: detailID, Date: day.Format(DateLayout), Muted: muted})
}

// occurrence godoc
// @Summary  Occurrence record of a detail on a day
// @Tags     occurrences
// @Produce  json
// @Param    detailID path  string true  "Schedule detail ID"
// @Param    date     query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} occurrenceResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /schedules/details/{detailID}/occurrence [get]
func (h handler) occurrence(w http.ResponseWriter, r *http.Request) {
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
	o, err := h.svc.Occurrence(r.Context(), userID, chi.URLParam(r, "detailID"), date)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOccurrenceResponse(o))
}

// all godoc
// @Summary  Full history, newest date first
// @Tags     history
// @Produce  json
// @Success  200 {array} entryResponse
// @Router   /history [get]
func (h handler) all(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	items, err := h.svc.AllHistory(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEntryResponses(items))
}

// weekly godoc
// @Summary  Current week occurrences with summary
// @Tags     history
// @Produce  json
// @Success  200 {object} weeklyResponse
// @Router   /history/weekly [get]
func (h handler) weekly(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	items, err := h.svc.WeeklyComplianceList(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	start, end := WeekRange(h.svc.clock.Now())
	snap := Summarize(items)
	httpx.WriteJSON(w, http.StatusOK, weeklyResponse{
		WeekStart: start.Format(DateLayout),
		WeekEnd:   end.Format(DateLayout),
		Summary:   toSnapshotResponse(snap),
		Items:     toEntryResponses(items),
	})
}

// weeklyCompliance godoc
// @Summary  Current week compliance rate (0-100, 2 decimals)
// @Tags     history
// @Produce  json
// @Success  200 {object} complianceResponse
// @Router   /history/weekly/compliance [get]
func (h handler) weeklyCompliance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	rate, err := h.svc.WeeklyComplianceRate(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, complianceResponse{ComplianceRate: rate})
}

// weeklyMissed godoc
// @Summary  Current week missed count
// @Tags     history
// @Produce  json
// @Success  200 {object} missedCountResponse
// @Router   /history/weekly/missed-count [get]
func (h handler) weeklyMissed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	n, err := h.svc.WeeklyMissedCount(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, missedCountResponse{MissedCount: n})
}

// recent godoc
// @Summary  Recent DONE/MISSED activity
// @Tags     history
// @Produce  json
// @Param    limit query int false "Max items (default 5)"
// @Success  200 {array} entryResponse
// @Router   /history/recent [get]
func (h handler) recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Unauthorized(w)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", DefaultRecentLimit)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	items, err := h.svc.RecentActivity(r.Context(), userID, limit)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEntryResponses(items))
}

func toOccurrenceResponse(o Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:          o.ID,
		DetailID:    o.DetailID,
		Date:        o.Date.Format(DateLayout),
		Status:      o.Status,
		TimeTaken:   o.TimeTaken,
		LastUpdated: o.LastUpdated,
	}
}

func toActionResponse(res ActionResult) actionResponse {
	return actionResponse{
		Message:    res.Message,
		Outcome:    res.Outcome,
		Occurrence: toOccurrenceResponse(res.Occurrence),
	}
}

func toEntryResponses(items []Entry) []entryResponse {
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, entryResponse{
			occurrenceResponse: toOccurrenceResponse(e.Occurrence),
			MedicineID:         e.MedicineID,
			MedicineName:       e.MedicineName,
			ScheduledTime:      e.ScheduledTime.String(),
		})
	}
	return out
}

func toSnapshotResponse(s ComplianceSnapshot) snapshotResponse {
	return snapshotResponse{
		Total:          s.Total,
		Completed:      s.Completed,
		Missed:         s.Missed,
		ComplianceRate: s.ComplianceRate,
	}
}
