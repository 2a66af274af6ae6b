package marble

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
)

// Click feeds one board click into the selection state machine.
//
// With nothing selected, clicking a marble selects it. With a marble selected, any click
// attempts the jump and clears the selection whether or not the jump was legal.
func Click(game *entity.Game, pos entity.Position) error {
	if err := game.ConfirmOngoingState(); err != nil {
		return err
	}

	board := game.Board()
	if !board.Contains(pos) {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidCell, pos)
	}

	if !game.Started {
		game.Started = true
		game.StartedAt = nil
		game.Elapsed = 0
	}

	if game.Selected == nil {
		if board.At(pos) == entity.CellMarble {
			selected := pos
			game.Selected = &selected
			game.Highlights = LegalDestinations(board, pos)
		}

		return nil
	}

	src := *game.Selected
	game.ClearSelection()

	next, err := MakeMove(board, src, pos)
	if err != nil {
		return err
	}

	game.History.Record(next)
	updateGameStatus(game)

	return nil
}

// Undo steps the board back once. It is a no-op at the first step.
func Undo(game *entity.Game) error {
	if err := game.ConfirmOngoingState(); err != nil {
		return err
	}

	game.ClearSelection()

	if _, ok := game.History.Undo(); ok {
		updateGameStatus(game)
	}

	return nil
}

// Redo steps the board forward once. It is a no-op at the last step.
func Redo(game *entity.Game) error {
	if err := game.ConfirmOngoingState(); err != nil {
		return err
	}

	game.ClearSelection()

	if _, ok := game.History.Redo(); ok {
		updateGameStatus(game)
	}

	return nil
}

// Reset returns the game to its layout's starting board with the timer stopped.
func Reset(game *entity.Game) {
	game.History.Reset(game.Layout.NewBoard())
	game.ClearSelection()
	game.Status = entity.StatusOngoing
	game.Started = false
	game.StartedAt = nil
	game.Elapsed = 0
}

// Tick brings Elapsed up to now and reports whether the game clock is running.
func Tick(game *entity.Game, now time.Time) bool {
	game.SyncClock(now)

	return game.Started && game.IsOngoing()
}

// updateGameStatus re-evaluates the current board; a finished game stops its timer.
func updateGameStatus(game *entity.Game) {
	game.Status = Evaluate(game.Board(), game.Layout.Win)
	if game.IsFinished() {
		game.Started = false
		game.StartedAt = nil
	}
}
