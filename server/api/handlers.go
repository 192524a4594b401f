package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/scheduler"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RoomEvents interface {
	HandleEvent(ctx context.Context, roomID string, ev app.Event) (app.Outcome, error)
	UniquePosters(ctx context.Context, roomID string, now time.Time) (int, error)
}

type Handler struct {
	scheduler *scheduler.Orchestrator
	rooms     RoomEvents
	db        Pinger
}

func NewHandler(orchestrator *scheduler.Orchestrator, rooms RoomEvents, db Pinger) *Handler {
	return &Handler{scheduler: orchestrator, rooms: rooms, db: db}
}

func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

type healthResponse struct {
	scheduler.HealthStatus
	Database string `json:"database"`
}

// Health reports 503 when the scheduler is stopped or the database does not
// answer.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{HealthStatus: h.scheduler.HealthStatus(), Database: "pass"}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Database = "fail"
			status = http.StatusServiceUnavailable
		}
	}
	if !resp.Running {
		status = http.StatusServiceUnavailable
	}

	h.JSON(w, status, resp)
}

func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	summary, err := h.scheduler.RunNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrJobRunning):
		h.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduler.ErrJobDisabled):
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, scheduler.ErrStopping):
		h.Error(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		h.JSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error(), "summary": summary})
	default:
		h.JSON(w, http.StatusOK, summary)
	}
}

type roomEventRequest struct {
	Type        string `json:"type"`
	UserID      string `json:"user_id"`
	ModeratorID string `json:"moderator_id"`
}

type roomEventResponse struct {
	RoomID  string `json:"room_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Members int    `json:"members"`
}

func (h *Handler) RoomEvent(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req roomEventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typ, err := app.ParseEventType(req.Type)
	if err != nil {
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.rooms.HandleEvent(r.Context(), roomID, app.Event{
		Type:        typ,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
	})
	switch {
	case errors.Is(err, app.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNoTransition), errors.Is(err, app.ErrConflict):
		h.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		h.Error(w, http.StatusInternalServerError, err.Error())
	default:
		h.JSON(w, http.StatusOK, roomEventResponse{
			RoomID:  roomID,
			From:    string(out.From),
			To:      string(out.To),
			Members: out.Context.MemberCount,
		})
	}
}

type roomActivityResponse struct {
	RoomID        string    `json:"room_id"`
	UniquePosters int       `json:"unique_posters"`
	At            time.Time `json:"at"`
}

func (h *Handler) RoomActivity(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	now := time.Now().UTC()

	n, err := h.rooms.UniquePosters(r.Context(), roomID, now)
	switch {
	case errors.Is(err, app.ErrNotFound):
		h.Error(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.Error(w, http.StatusInternalServerError, err.Error())
	default:
		h.JSON(w, http.StatusOK, roomActivityResponse{RoomID: roomID, UniquePosters: n, At: now})
	}
}
