package board

import "errors"

var (
	// ErrInvalidColumn is returned when an operation references a column that is not on the board.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrTaskNotFound is returned when an operation references a task that is not on the board.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyContent is returned when a task would be left with blank display text.
	ErrEmptyContent = errors.New("task content is empty")
	// ErrInvalidQuadrant is returned for a quadrant outside the four known values.
	ErrInvalidQuadrant = errors.New("invalid quadrant")
	// ErrNoState is returned by a Slot that holds no board record.
	ErrNoState = errors.New("no board state stored")
	// ErrNoColumns is returned when a board would be left without a usable column.
	ErrNoColumns = errors.New("board has no columns")
)

// IsValidation reports whether err is a local validation failure rather than
// an infrastructure error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidColumn) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrInvalidQuadrant)
}
