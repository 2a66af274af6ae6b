package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/history"
)

type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusBlocked Status = "blocked"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is the whole state of one solitaire session: board timeline, selection, status and timer.
type Game struct {
	ID         string                  `json:"id"`
	Layout     *Layout                 `json:"layout"`
	History    *history.History[Board] `json:"history"`
	Selected   *Position               `json:"selected,omitempty"`
	Highlights []Position              `json:"highlights,omitempty"`
	Status     Status                  `json:"status"`
	Started    bool                    `json:"started"`
	StartedAt  *time.Time              `json:"started_at,omitempty"`
	Elapsed    int                     `json:"elapsed"`
}

func NewGame(id string, layout *Layout) *Game {
	return &Game{
		ID:      id,
		Layout:  layout,
		History: history.New(layout.NewBoard()),
		Status:  StatusOngoing,
	}
}

// Board is the snapshot currently shown, always History.Current().
func (that *Game) Board() Board {
	return that.History.Current()
}

// Moves equals the history step.
func (that *Game) Moves() int {
	return that.History.Step()
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusBlocked
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWon() bool {
	return that.Status == StatusWon
}

func (that *Game) ConfirmOngoingState() error {
	switch that.Status {
	case StatusOngoing:
		return nil
	case StatusWon, StatusBlocked:
		return apperror.ErrGameFinished
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) ClearSelection() {
	that.Selected = nil
	that.Highlights = nil
}

// SyncClock folds the time since StartedAt into Elapsed while the clock runs.
// A running clock without StartedAt is anchored so that Elapsed is kept; a stopped clock drops StartedAt.
func (that *Game) SyncClock(now time.Time) {
	if !that.Started || !that.IsOngoing() {
		that.StartedAt = nil
		return
	}

	if that.StartedAt == nil {
		startedAt := now.Add(-time.Duration(that.Elapsed) * time.Second)
		that.StartedAt = &startedAt

		return
	}

	if elapsed := int(now.Sub(*that.StartedAt) / time.Second); elapsed > that.Elapsed {
		that.Elapsed = elapsed
	}
}

// CanUndo is false at step 0 and whenever the game is over.
func (that *Game) CanUndo() bool {
	return that.IsOngoing() && that.History.CanUndo()
}

// CanRedo is false at the last step and whenever the game is over.
func (that *Game) CanRedo() bool {
	return that.IsOngoing() && that.History.CanRedo()
}

// Validate checks a restored game against its own layout.
func (that *Game) Validate() error {
	if that.Layout == nil || that.History == nil {
		return fmt.Errorf("%w: missing layout or history", apperror.ErrCorruptSnapshot)
	}

	if err := that.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrCorruptSnapshot, err)
	}

	if err := that.History.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrCorruptSnapshot, err)
	}

	shape := that.Layout.NewBoard()
	for i, snapshot := range that.History.Snapshots() {
		if !shape.SameShape(snapshot) {
			return fmt.Errorf("%w: snapshot %d does not match layout %q", apperror.ErrCorruptSnapshot, i, that.Layout.Name)
		}
	}

	switch that.Status {
	case StatusOngoing, StatusWon, StatusBlocked:
	default:
		return fmt.Errorf("%w: %w: %q", apperror.ErrCorruptSnapshot, ErrUnknownGameStatus, that.Status)
	}

	if that.Selected != nil && that.Board().At(*that.Selected) != CellMarble {
		return fmt.Errorf("%w: selection %s is not a marble", apperror.ErrCorruptSnapshot, *that.Selected)
	}

	if that.Elapsed < 0 {
		return fmt.Errorf("%w: negative elapsed time", apperror.ErrCorruptSnapshot)
	}

	return nil
}
