package repository

import "errors"

var (
	// ErrElementNotFound is returned when a fixed selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
	// ErrScrollNotConverged is returned when the page height never settles within the
	// configured number of scroll iterations.
	ErrScrollNotConverged = errors.New("scroll did not converge")
	// ErrInvalidIdentifier is returned for table or column names that are not plain
	// SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)
