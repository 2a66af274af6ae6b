package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/internal/marble"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
	Leaderboard(ctx context.Context, limit int) ([]*entity.Result, error)
}

// GameManager loads a player's saved game, runs one action through the rules and saves the result.
// Actions for the same player are serialised.
// Elapsed time is read from clock, so it does not depend on who is watching the game.
type GameManager struct {
	logger     *slog.Logger
	clock      clock.Clock
	playerRepo playerRepo
	gameRepo   gameRepo
	resultRepo resultRepo
	layout     *entity.Layout

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGameManager(
	logger *slog.Logger,
	clk clock.Clock,
	playerRepo playerRepo,
	gameRepo gameRepo,
	resultRepo resultRepo,
	layout *entity.Layout,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),
		clock:  clk,

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		resultRepo: resultRepo,
		layout:     layout,

		locks: make(map[string]*sync.Mutex),
	}
}

// Layout is the board descriptor new games are created from.
func (that *GameManager) Layout() *entity.Layout {
	return that.layout
}

// GetOrCreatePlayer returns the stored player, creating one when the id is empty or unknown.
func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		return that.createPlayer(ctx, uuid.NewString())
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return that.createPlayer(ctx, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// GetOrCreateGame restores the player's saved game or starts a new one.
func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	var game *entity.Game

	err := that.withGame(ctx, playerID, func(ctx context.Context, _ *entity.Player, existing *entity.Game) error {
		game = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return game, nil
}

// Click applies a board click. An invalid move is saved (the selection is cleared) and returned as ErrInvalidMove.
func (that *GameManager) Click(ctx context.Context, playerID string, pos entity.Position) (*entity.Game, error) {
	var game *entity.Game

	err := that.withGame(ctx, playerID, func(ctx context.Context, player *entity.Player, existing *entity.Game) error {
		game = existing
		wasOngoing := game.IsOngoing()

		clickErr := marble.Click(game, pos)
		if clickErr != nil && !errors.Is(clickErr, apperror.ErrInvalidMove) {
			return clickErr
		}

		if err := that.updateGame(ctx, game); err != nil {
			return err
		}

		if wasOngoing && game.IsFinished() {
			that.recordResult(ctx, player, game)
		}

		return clickErr
	})

	return game, err
}

func (that *GameManager) Undo(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.apply(ctx, playerID, marble.Undo)
}

func (that *GameManager) Redo(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.apply(ctx, playerID, marble.Redo)
}

func (that *GameManager) Reset(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.apply(ctx, playerID, func(game *entity.Game) error {
		marble.Reset(game)
		return nil
	})
}

// Tick brings the game's elapsed time up to date and reports whether its clock is running.
// Nothing is saved: the stored start time already determines the elapsed time.
func (that *GameManager) Tick(ctx context.Context, playerID string) (*entity.Game, bool, error) {
	var (
		game    *entity.Game
		running bool
	)

	err := that.withGame(ctx, playerID, func(_ context.Context, _ *entity.Player, existing *entity.Game) error {
		game = existing
		running = marble.Tick(game, that.clock.Now())

		return nil
	})

	return game, running, err
}

func (that *GameManager) Leaderboard(ctx context.Context, limit int) ([]*entity.Result, error) {
	results, err := that.resultRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return results, nil
}

// apply runs a reducer that either fails without touching the game or succeeds and must be saved.
func (that *GameManager) apply(ctx context.Context, playerID string, action func(*entity.Game) error) (*entity.Game, error) {
	var game *entity.Game

	err := that.withGame(ctx, playerID, func(ctx context.Context, _ *entity.Player, existing *entity.Game) error {
		game = existing

		if err := action(game); err != nil {
			return err
		}

		return that.updateGame(ctx, game)
	})

	return game, err
}

// withGame resolves the player, holds its lock and hands fn the player's current game.
func (that *GameManager) withGame(ctx context.Context, playerID string, fn func(context.Context, *entity.Player, *entity.Game) error) error {
	player, err := that.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed get player by id: %w", err)
	}

	unlock := that.lock(player.ID)
	defer unlock()

	game, err := that.loadGame(ctx, player)
	if err != nil {
		return err
	}

	game.SyncClock(that.clock.Now())

	return fn(ctx, player, game)
}

// loadGame restores the saved slot. A missing or corrupt save is replaced with a fresh game.
func (that *GameManager) loadGame(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	log := that.logger.With("method", "loadGame", "player", player.ID)

	if player.GameID != "" {
		game, err := that.gameRepo.GetByID(ctx, player.GameID)
		if err == nil {
			err = checkStatus(game)
		}

		switch {
		case err == nil:
			return game, nil
		case errors.Is(err, apperror.ErrCorruptSnapshot):
			log.Warn("ignoring corrupt saved game", "game", player.GameID, "error", err)

			if err = that.gameRepo.DeleteByID(ctx, player.GameID); err != nil {
				log.Error("failed to delete corrupt game", "game", player.GameID, "error", err)
			}
		case errors.Is(err, apperror.ErrNotFound):
			log.Info("saved game not found", "game", player.GameID)
		default:
			return nil, fmt.Errorf("failed to get game: %w", err)
		}
	}

	return that.createGame(ctx, player)
}

// checkStatus rejects a saved game whose status disagrees with its own board.
func checkStatus(game *entity.Game) error {
	if status := marble.Evaluate(game.Board(), game.Layout.Win); status != game.Status {
		return fmt.Errorf("%w: saved status %q, board is %q", apperror.ErrCorruptSnapshot, game.Status, status)
	}

	return nil
}

func (that *GameManager) createGame(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	game := entity.NewGame(uuid.NewString(), that.layout)

	if err := that.updateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	player.GameID = game.ID
	if err := that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	that.logger.Info("game created", "player", player.ID, "game", game.ID)

	return game, nil
}

func (that *GameManager) createPlayer(ctx context.Context, id string) (*entity.Player, error) {
	player := &entity.Player{
		ID: id,
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	game.SyncClock(that.clock.Now())

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// recordResult stores a finished game for the leaderboard. Failures are only logged.
func (that *GameManager) recordResult(ctx context.Context, player *entity.Player, game *entity.Game) {
	log := that.logger.With("method", "recordResult")

	result := &entity.Result{
		PlayerID:  player.ID,
		GameID:    game.ID,
		Layout:    game.Layout.Name,
		Status:    game.Status,
		Remaining: game.Board().MarbleCount(),
		Moves:     game.Moves(),
		Elapsed:   game.Elapsed,
	}

	if err := that.resultRepo.Save(ctx, result); err != nil {
		log.Error("failed to save result", "game", game.ID, "error", err)
		return
	}

	log.Info("game finished", "game", game.ID, "status", game.Status, "remaining", result.Remaining)
}

func (that *GameManager) lock(playerID string) func() {
	that.mu.Lock()
	playerLock, ok := that.locks[playerID]
	if !ok {
		playerLock = &sync.Mutex{}
		that.locks[playerID] = playerLock
	}
	that.mu.Unlock()

	playerLock.Lock()

	return playerLock.Unlock
}
