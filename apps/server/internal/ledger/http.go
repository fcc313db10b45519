package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cribbage-lite/replay"

	"go.uber.org/zap"
)

const maxReplayBody = 1 << 20

type HTTPHandler struct {
	ledger Service
	logger *zap.Logger
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

func NewHTTPHandler(ledgerService Service, logger *zap.Logger) *HTTPHandler {
	if ledgerService == nil {
		ledgerService = NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		ledger: ledgerService,
		logger: logger,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games/recent", h.handleRecent)
	mux.HandleFunc("/api/games/", h.handleGames)
	mux.HandleFunc("/api/replay", h.handleReplay)
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.ListRecent(ctx, q.Get("player"), limit)
	if err != nil {
		h.logger.Warn("query recent games failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query recent games failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

// handleGames serves /api/games/{id}/events.
func (h *HTTPHandler) handleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/games/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "events" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	gameID := strings.TrimSpace(parts[0])
	if gameID == "" {
		writeError(w, http.StatusBadRequest, "missing game id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	events, err := h.ledger.GetGameEvents(ctx, gameID, r.URL.Query().Get("viewer"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		h.logger.Warn("query game events failed", zap.String("game", gameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query game events failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": gameID,
		"events":  events,
	})
}

// handleReplay runs a script through a fresh game and returns the tape.
func (h *HTTPHandler) handleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var script replay.Script
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReplayBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&script); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tape, err := replay.GenerateTape(script)
	if err != nil {
		var rerr *replay.ReplayError
		if errors.As(err, &rerr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: rerr.Reason, Detail: rerr})
			return
		}
		writeError(w, http.StatusInternalServerError, "generate tape failed")
		return
	}
	writeJSON(w, http.StatusOK, tape)
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 20
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
