package apperror

import "errors"

var (
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidCell     = errors.New("invalid cell position")
	ErrGameFinished    = errors.New("game is already finished")
	ErrCorruptSnapshot = errors.New("saved game is corrupt")
	ErrNotFound        = errors.New("not found")
)
