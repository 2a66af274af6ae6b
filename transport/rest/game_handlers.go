package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/transport/view"
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error)
	Click(ctx context.Context, playerID string, pos entity.Position) (*entity.Game, error)
	Undo(ctx context.Context, playerID string) (*entity.Game, error)
	Redo(ctx context.Context, playerID string) (*entity.Game, error)
	Reset(ctx context.Context, playerID string) (*entity.Game, error)
	Leaderboard(ctx context.Context, limit int) ([]*entity.Result, error)
	Layout() *entity.Layout
}

type GameHandlers struct {
	logger *slog.Logger
	games  gameUseCase
}

type errorResponse struct {
	Error string     `json:"error"`
	Game  *view.Game `json:"game,omitempty"`
}

func NewGameHandlers(logger *slog.Logger, games gameUseCase) *GameHandlers {
	return &GameHandlers{
		logger: logger,
		games:  games,
	}
}

func (that *GameHandlers) Layout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, that.games.Layout())
}

func (that *GameHandlers) Game(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetOrCreateGame(r.Context(), playerFromContext(r.Context()))
	that.respond(w, "Game", game, err)
}

func (that *GameHandlers) Click(w http.ResponseWriter, r *http.Request) {
	var pos entity.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	game, err := that.games.Click(r.Context(), playerFromContext(r.Context()), pos)
	that.respond(w, "Click", game, err)
}

func (that *GameHandlers) Undo(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.Undo(r.Context(), playerFromContext(r.Context()))
	that.respond(w, "Undo", game, err)
}

func (that *GameHandlers) Redo(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.Redo(r.Context(), playerFromContext(r.Context()))
	that.respond(w, "Redo", game, err)
}

func (that *GameHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.Reset(r.Context(), playerFromContext(r.Context()))
	that.respond(w, "Reset", game, err)
}

func (that *GameHandlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}

		limit = parsed
	}

	results, err := that.games.Leaderboard(r.Context(), limit)
	if err != nil {
		that.logger.Error("failed to get leaderboard", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (that *GameHandlers) respond(w http.ResponseWriter, method string, game *entity.Game, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, view.NewGame(game))
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("game action failed", "method", method, "error", err)
		writeJSON(w, status, errorResponse{Error: view.ErrorMessage(err)})
		return
	}

	writeJSON(w, status, errorResponse{Error: view.ErrorMessage(err), Game: view.NewGame(game)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrInvalidCell):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrGameFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
