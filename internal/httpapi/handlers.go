package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/omarshaarawi/draftboard/internal/models"
	"github.com/omarshaarawi/draftboard/internal/service"
)

type Handler struct {
	draftService *service.DraftService
}

func NewHandler(draftService *service.DraftService) *Handler {
	return &Handler{draftService: draftService}
}

// meta describes the snapshot a response was built from.
type meta struct {
	SnapshotID string    `json:"snapshotId"`
	FetchedAt  time.Time `json:"fetchedAt"`
	AgeSeconds float64   `json:"ageSeconds"`
	Stale      bool      `json:"stale"`
	Error      string    `json:"error,omitempty"`
	Incomplete bool      `json:"incomplete"`
}

func (h *Handler) meta(view service.View) meta {
	m := meta{
		SnapshotID: view.Snapshot.ID,
		FetchedAt:  view.Snapshot.FetchedAt,
		AgeSeconds: h.draftService.Age(view.Snapshot).Seconds(),
		Stale:      view.Stale,
		Incomplete: len(view.Snapshot.Failed) > 0,
	}
	if view.Err != nil {
		m.Error = view.Err.Error()
	}
	return m
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if f := h.draftService.LastFailure(); f != nil {
		body["lastFailure"] = f.Err.Error()
		body["lastFailureAt"] = f.At
	}
	respondJSON(w, http.StatusOK, body)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.draftService.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "leaderboard unavailable", err)
		return
	}
	h.respondLeaderboard(w, view)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.draftService.Refresh(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "refresh failed", err)
		return
	}
	h.respondLeaderboard(w, view)
}

func (h *Handler) respondLeaderboard(w http.ResponseWriter, view service.View) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"meta":        h.meta(view),
		"leaderboard": view.Snapshot.Leaderboard.Rows,
		"people":      view.Snapshot.Leaderboard.Details,
	})
}

func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["person"]

	detail, row, view, err := h.draftService.Person(r.Context(), query)
	if errors.Is(err, service.ErrUnknownPerson) {
		respondError(w, http.StatusNotFound, "unknown drafter", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "leaderboard unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"meta":   h.meta(view),
		"rank":   row.Rank,
		"person": detail,
	})
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	view, err := h.draftService.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "standings unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"meta":      h.meta(view),
		"standings": view.Snapshot.Standings,
	})
}

func (h *Handler) GetIssues(w http.ResponseWriter, r *http.Request) {
	view, err := h.draftService.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "data quality report unavailable", err)
		return
	}

	unmatched := view.Snapshot.Unmatched
	if unmatched == nil {
		unmatched = []models.UnmatchedTeam{}
	}
	failed := view.Snapshot.Failed
	if failed == nil {
		failed = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"meta":      h.meta(view),
		"unmatched": unmatched,
		"skipped":   view.Snapshot.Skipped,
		"failed":    failed,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
