package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vodeneev/ncaafbet/internal/pkg/cache"
	"github.com/Vodeneev/ncaafbet/internal/pkg/models"
	"github.com/Vodeneev/ncaafbet/internal/pkg/performance"
	"github.com/Vodeneev/ncaafbet/internal/pkg/validation"
)

const (
	defaultDays = 7
	maxDays     = 30
	maxBodySize = 1 << 16
)

type handler struct {
	svc     Service
	tracker *performance.Tracker
}

// GamelinesResponse is the body of GET /ncaaf/gamelines.
type GamelinesResponse struct {
	Gamelines   models.Snapshot `json:"gamelines"`
	LastUpdated string          `json:"last_updated"`
	GameCount   int             `json:"game_count"`
}

func newGamelinesResponse(e cache.Entry) GamelinesResponse {
	snap := e.Snapshot
	if snap == nil {
		snap = models.Snapshot{}
	}
	return GamelinesResponse{
		Gamelines:   snap,
		LastUpdated: e.CapturedAt.UTC().Format(time.RFC3339),
		GameCount:   snap.Count(),
	}
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GetMetrics())
}

// GET /ncaaf/gamelines?cache=true|false
func (h *handler) handleGamelines(w http.ResponseWriter, r *http.Request) {
	useCache := true
	if v := r.URL.Query().Get("cache"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid cache parameter %q", v))
			return
		}
		useCache = b
	}

	entry, err := h.svc.Acquire(r.Context(), useCache)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGamelinesResponse(entry))
}

// POST /ncaaf/refresh
func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Refresh(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGamelinesResponse(entry))
}

// GET /ncaaf/gamelines/stored?source=
func (h *handler) handleStoredGamelines(w http.ResponseWriter, r *http.Request) {
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	lines, err := h.svc.ReadGamelines(r.Context(), source)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if lines == nil {
		lines = []models.Gameline{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gamelines": lines, "count": len(lines)})
}

// POST /ncaaf/gamelines/{source} with a JSON object or form fields.
func (h *handler) handleUpsertGameline(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	fields, err := readFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.UpsertGameline(r.Context(), source, fields)
	switch {
	case errors.Is(err, validation.ErrInvalidGameline):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "source": source})
}

// GET /ncaaf/schedule?days=7
func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	games, err := h.svc.GetSchedule(r.Context(), days)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if games == nil {
		games = []models.ScheduledGame{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "count": len(games), "days": days})
}

// GET /ncaaf/events/tbd?days=7
func (h *handler) handleTBDEvents(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	events, err := h.svc.GetUpcomingTBDEvents(r.Context(), days)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events), "days": days})
}

func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 || days > maxDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxDays))
		return 0, false
	}
	return days, true
}

// readFields flattens a JSON object or a form into string fields.
func readFields(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case nil:
			case string:
				fields[k] = val
			case json.Number:
				fields[k] = val.String()
			default:
				fields[k] = fmt.Sprint(val)
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	return fields, nil
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
