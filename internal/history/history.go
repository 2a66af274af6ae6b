// Package history keeps a linear undo/redo timeline of immutable snapshots.
//
// Recording a snapshot while positioned in the past discards everything after the
// current step, so the timeline never branches.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidHistory = errors.New("invalid history")

// History is a sequence of snapshots with a cursor. The zero value is empty and must be Reset before use.
type History[S any] struct {
	snapshots []S
	step      int
}

// New starts a timeline holding only the initial snapshot.
func New[S any](initial S) *History[S] {
	return &History[S]{
		snapshots: []S{initial},
		step:      0,
	}
}

// Record truncates the timeline after the current step, appends snapshot and moves onto it.
func (that *History[S]) Record(snapshot S) {
	that.snapshots = append(that.snapshots[:that.step+1:that.step+1], snapshot)
	that.step++
}

// Undo moves one step back. It reports false and leaves the cursor alone at step 0.
func (that *History[S]) Undo() (S, bool) {
	if that.step == 0 {
		var zero S
		return zero, false
	}

	that.step--

	return that.snapshots[that.step], true
}

// Redo moves one step forward. It reports false and leaves the cursor alone at the last step.
func (that *History[S]) Redo() (S, bool) {
	if that.step >= len(that.snapshots)-1 {
		var zero S
		return zero, false
	}

	that.step++

	return that.snapshots[that.step], true
}

// Reset replaces the timeline with a single initial snapshot.
func (that *History[S]) Reset(initial S) {
	that.snapshots = []S{initial}
	that.step = 0
}

// Current returns the snapshot at the cursor.
func (that *History[S]) Current() S {
	return that.snapshots[that.step]
}

// Step is the cursor index; it doubles as the move counter.
func (that *History[S]) Step() int {
	return that.step
}

func (that *History[S]) Len() int {
	return len(that.snapshots)
}

func (that *History[S]) CanUndo() bool {
	return that.step > 0
}

func (that *History[S]) CanRedo() bool {
	return that.step < len(that.snapshots)-1
}

// Snapshots returns the recorded timeline. The slice must not be modified.
func (that *History[S]) Snapshots() []S {
	return that.snapshots
}

// Validate checks the cursor invariant 0 <= step < len.
func (that *History[S]) Validate() error {
	if len(that.snapshots) == 0 {
		return fmt.Errorf("%w: no snapshots", ErrInvalidHistory)
	}

	if that.step < 0 || that.step >= len(that.snapshots) {
		return fmt.Errorf("%w: step %d out of range [0,%d)", ErrInvalidHistory, that.step, len(that.snapshots))
	}

	return nil
}

type wireHistory[S any] struct {
	Snapshots []S `json:"snapshots"`
	Step      int `json:"step"`
}

func (that *History[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireHistory[S]{
		Snapshots: that.snapshots,
		Step:      that.step,
	})
}

// UnmarshalJSON restores a timeline and rejects one that breaks the cursor invariant.
func (that *History[S]) UnmarshalJSON(data []byte) error {
	var wire wireHistory[S]
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHistory, err)
	}

	restored := History[S]{snapshots: wire.Snapshots, step: wire.Step}
	if err := restored.Validate(); err != nil {
		return err
	}

	*that = restored

	return nil
}
