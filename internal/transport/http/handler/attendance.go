package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldforce-api/internal/application/attendance"
	"github.com/fieldforce-api/internal/domain"
	"github.com/fieldforce-api/internal/pkg/businesstime"
	"github.com/fieldforce-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// AttendanceHandler exposes the clock-in/out endpoints.
type AttendanceHandler struct {
	svc  attendance.Service
	zone businesstime.Zone
}

func NewAttendanceHandler(svc attendance.Service, zone businesstime.Zone) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, zone: zone}
}

// ClockRequest is the body of clock-in and clock-out. ClientTime is a
// wall-clock string already expressed in business time.
type ClockRequest struct {
	UserID     string `json:"userId" validate:"required"`
	ClientTime string `json:"clientTime" validate:"required"`
}

// SessionView is the wire shape of a session row.
type SessionView struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
	SessionStart string `json:"session_start"`
	SessionEnd   string `json:"session_end,omitempty"`
	Duration     int    `json:"duration"`
	Timezone     string `json:"timezone"`
	BusinessDay  string `json:"business_day"`
}

func (h *AttendanceHandler) toView(s *domain.LoginSession) SessionView {
	v := SessionView{
		ID:           s.ID,
		UserID:       s.UserID,
		Status:       s.Status,
		SessionStart: h.zone.FormatClientTime(s.SessionStart),
		Duration:     s.Duration,
		Timezone:     s.Timezone,
		BusinessDay:  s.BusinessDay,
	}
	if s.SessionEnd != nil {
		v.SessionEnd = h.zone.FormatClientTime(*s.SessionEnd)
	}
	return v
}

func (h *AttendanceHandler) decodeClockRequest(w http.ResponseWriter, r *http.Request) (*ClockRequest, bool) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClockRequest(w, r)
	if !ok {
		return
	}
	clientTime, err := h.zone.ParseClientTime(req.ClientTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "clientTime must be formatted as YYYY-MM-DD HH:MM:SS")
		return
	}
	res, err := h.svc.ClockIn(r.Context(), req.UserID, clientTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, res.Message, map[string]interface{}{
		"session_id":    res.SessionID,
		"session_start": h.zone.FormatClientTime(res.SessionStart),
		"continued":     res.Continued,
	})
}

func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClockRequest(w, r)
	if !ok {
		return
	}
	clientTime, err := h.zone.ParseClientTime(req.ClientTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "clientTime must be formatted as YYYY-MM-DD HH:MM:SS")
		return
	}
	res, err := h.svc.ClockOut(r.Context(), req.UserID, clientTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, "clocked out", map[string]interface{}{
		"session_id":       res.SessionID,
		"session_end":      h.zone.FormatClientTime(res.SessionEnd),
		"duration_minutes": res.Duration,
		"capped":           res.Capped,
	})
}

func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	res, err := h.svc.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !res.ClockedIn {
		writeData(w, "not clocked in", map[string]interface{}{"clocked_in": false})
		return
	}
	writeData(w, "clocked in", map[string]interface{}{
		"clocked_in":            true,
		"session_id":            res.SessionID,
		"session_start":         h.zone.FormatClientTime(res.SessionStart),
		"live_duration_minutes": res.LiveDuration,
	})
}

func (h *AttendanceHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	res, err := h.svc.GetUserSessions(r.Context(), userID, attendance.SessionQuery{
		Period:    q.Get("period"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]SessionView, 0, len(res.Sessions))
	for i := range res.Sessions {
		views = append(views, h.toView(&res.Sessions[i]))
	}
	writeData(w, "", map[string]interface{}{
		"period":    res.Period,
		"start_day": res.StartDay,
		"end_day":   res.EndDay,
		"sessions":  views,
		"stats":     res.Stats,
	})
}

func (h *AttendanceHandler) TriggerAutoClockout(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, "auto-clockout completed", map[string]interface{}{
		"closed": res.Closed,
		"failed": res.Failed,
	})
}

func (h *AttendanceHandler) ActiveSessionsCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountOpen(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, "", map[string]interface{}{"count": n})
}

func (h *AttendanceHandler) ForceClockout(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	closed, err := h.svc.ForceClockout(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, "sessions force-closed", map[string]interface{}{"closed": closed})
}
