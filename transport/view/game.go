// Package view holds the JSON shapes both transports send to clients.
package view

import (
	"errors"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
)

type Game struct {
	ID         string            `json:"id"`
	Board      entity.Board      `json:"board"`
	Step       int               `json:"step"`
	Moves      int               `json:"moves"`
	Status     entity.Status     `json:"status"`
	Selected   *entity.Position  `json:"selected"`
	Highlights []entity.Position `json:"highlights"`
	Started    bool              `json:"started"`
	Elapsed    int               `json:"elapsed"`
	Remaining  int               `json:"remaining"`
	CanUndo    bool              `json:"canUndo"`
	CanRedo    bool              `json:"canRedo"`
}

// NewGame renders game for a client. A nil game renders as nil.
func NewGame(game *entity.Game) *Game {
	if game == nil {
		return nil
	}

	board := game.Board()

	highlights := game.Highlights
	if highlights == nil {
		highlights = []entity.Position{}
	}

	return &Game{
		ID:         game.ID,
		Board:      board,
		Step:       game.History.Step(),
		Moves:      game.Moves(),
		Status:     game.Status,
		Selected:   game.Selected,
		Highlights: highlights,
		Started:    game.Started,
		Elapsed:    game.Elapsed,
		Remaining:  board.MarbleCount(),
		CanUndo:    game.CanUndo(),
		CanRedo:    game.CanRedo(),
	}
}

// ErrorMessage is the short client-facing text for an action error.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidMove):
		return "Invalid move"
	case errors.Is(err, apperror.ErrInvalidCell):
		return "Invalid cell"
	case errors.Is(err, apperror.ErrGameFinished):
		return "Game is finished"
	default:
		return "Internal Server Error"
	}
}
