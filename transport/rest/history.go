package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

type matchHistory interface {
	ListByRoomID(ctx context.Context, roomID string, limit int) ([]*entity.MatchRecord, error)
}

type HistoryResponse struct {
	GameID  string                `json:"gameId"`
	Matches []*entity.MatchRecord `json:"matches"`
}

type historyHandler struct {
	logger  *slog.Logger
	history matchHistory
	limit   int
}

// NewHistoryHandler - serves GET /history/{roomId}. A nil history answers 503.
func NewHistoryHandler(logger *slog.Logger, history matchHistory, limit int) http.Handler {
	return &historyHandler{
		logger:  logger.With("component", "history"),
		history: history,
		limit:   limit,
	}
}

func (that *historyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	if that.history == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "match history is disabled")
		return
	}

	roomID := r.PathValue("roomId")

	limit := that.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = min(n, that.limit)
	}

	matches, err := that.history.ListByRoomID(r.Context(), roomID, limit)
	if err != nil {
		log.Error("failed to list match history", "roomID", roomID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load match history")
		return
	}

	if matches == nil {
		matches = []*entity.MatchRecord{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{GameID: roomID, Matches: matches})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
