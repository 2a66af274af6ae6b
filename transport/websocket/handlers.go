package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
	"github.com/rocketscienceinc/marble-board/transport/view"
)

var errPlayerRequired = errors.New("player is required")

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return conn.send(msg.Action, ResponsePayload{Error: "Player is required"})
	}

	player, err := that.games.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return conn.send(msg.Action, ResponsePayload{Error: "failed to create a new player"})
	}

	bindPlayer(conn, player.ID)

	game, err := that.games.GetOrCreateGame(ctx, player.ID)
	if err != nil {
		log.Error("failed to get game", "player", player.ID, "error", err)
		return conn.send(msg.Action, ResponsePayload{Player: player, Error: "failed to get the game"})
	}

	that.syncTimer(ctx, conn, game)

	log.Info("successfully connected player", "player", player.ID, "game", game.ID)

	return conn.send(msg.Action, ResponsePayload{Player: &entity.Player{ID: player.ID, GameID: game.ID}, Game: view.NewGame(game)})
}

func (that *Server) handleClick(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payloadReq.Cell == nil {
		return conn.send(msg.Action, ResponsePayload{Error: "Cell is required"})
	}

	return that.runAction(ctx, msg, conn, func(ctx context.Context, playerID string) (*entity.Game, error) {
		return that.games.Click(ctx, playerID, *payloadReq.Cell)
	})
}

func (that *Server) handleUndo(ctx context.Context, msg *Message, conn *connection) error {
	return that.runAction(ctx, msg, conn, that.games.Undo)
}

func (that *Server) handleRedo(ctx context.Context, msg *Message, conn *connection) error {
	return that.runAction(ctx, msg, conn, that.games.Redo)
}

func (that *Server) handleReset(ctx context.Context, msg *Message, conn *connection) error {
	return that.runAction(ctx, msg, conn, that.games.Reset)
}

// runAction applies a game action for the connected player and replies with the resulting game.
// Rule errors go back to the client next to the unchanged game.
func (that *Server) runAction(
	ctx context.Context,
	msg *Message,
	conn *connection,
	action func(ctx context.Context, playerID string) (*entity.Game, error),
) error {
	log := that.logger.With("method", "runAction", "action", msg.Action)

	playerID, err := that.playerFor(msg, conn)
	if err != nil {
		return conn.send(msg.Action, ResponsePayload{Error: "Player is required"})
	}

	game, err := action(ctx, playerID)

	switch {
	case err == nil:
	case isRuleError(err):
		log.Debug("action rejected", "player", playerID, "error", err)
	default:
		log.Error("failed to apply action", "player", playerID, "error", err)
		return conn.send(msg.Action, ResponsePayload{Error: view.ErrorMessage(err)})
	}

	that.syncTimer(ctx, conn, game)

	payload := ResponsePayload{Game: view.NewGame(game)}
	if err != nil {
		payload.Error = view.ErrorMessage(err)
	}

	return conn.send(msg.Action, payload)
}

// syncTimer runs the connection's timer exactly while the game clock is running.
// The timer only pushes updates; elapsed time comes from the game's start time.
func (that *Server) syncTimer(ctx context.Context, conn *connection, game *entity.Game) {
	if game == nil || !game.Started || !game.IsOngoing() {
		conn.timer.Stop()
		return
	}

	if conn.timer.Running() {
		return
	}

	playerID := conn.player()

	conn.timer.Start(ctx, func() bool {
		return that.tick(ctx, conn, playerID)
	})
}

// tick pushes the player's current elapsed time. Returning false ends the run.
func (that *Server) tick(ctx context.Context, conn *connection, playerID string) bool {
	log := that.logger.With("method", "tick", "player", playerID)

	game, running, err := that.games.Tick(ctx, playerID)
	if err != nil {
		log.Error("failed to tick game", "error", err)
		return false
	}

	if !running {
		return false
	}

	if err = conn.send(actionTick, ResponsePayload{Game: view.NewGame(game)}); err != nil {
		log.Debug("failed to push tick", "error", err)
		return false
	}

	return true
}

func (that *Server) playerFor(msg *Message, conn *connection) (string, error) {
	payloadReq, err := decodePayload(msg)
	if err == nil && payloadReq.Player != nil && payloadReq.Player.ID != "" {
		bindPlayer(conn, payloadReq.Player.ID)
	}

	if playerID := conn.player(); playerID != "" {
		return playerID, nil
	}

	return "", errPlayerRequired
}

// bindPlayer switches the connection to playerID. The timer belongs to the previous player, so it stops.
func bindPlayer(conn *connection, playerID string) {
	if conn.player() != playerID {
		conn.timer.Stop()
	}

	conn.setPlayer(playerID)
}

func decodePayload(msg *Message) (*RequestPayload, error) {
	var payloadReq RequestPayload

	if len(msg.Payload) == 0 {
		return &payloadReq, nil
	}

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payloadReq, nil
}

func isRuleError(err error) bool {
	return errors.Is(err, apperror.ErrInvalidMove) ||
		errors.Is(err, apperror.ErrInvalidCell) ||
		errors.Is(err, apperror.ErrGameFinished)
}
