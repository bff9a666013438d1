package track

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when an argument is outside its
	// declared range. Nothing has been placed when it is returned.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerateGeometry is returned when a computed segment would have
	// zero extent.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrWorldMutation wraps errors reported by the world or cursor.
	ErrWorldMutation = errors.New("world mutation failed")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return invalidf("%s=%d outside [%d,%d]", name, v, lo, hi)
	}
	return nil
}

func checkMin(name string, v, lo int) error {
	if v < lo {
		return invalidf("%s=%d must be >= %d", name, v, lo)
	}
	return nil
}

func mutation(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrWorldMutation, what, err)
}
