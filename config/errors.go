package config

import (
	"errors"
	"fmt"
)

// ErrNoExports is returned when running a configuration that does not
// declare any export destination.
var ErrNoExports = errors.New("must define at least one export")

// PathError indicates a referenced path that does not exist or could
// not be canonicalized.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad path %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("bad path %q", e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ArityError indicates a logical combinator constructed with fewer
// than two operands.
type ArityError struct {
	Kind  string
	Count int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s statement must have at least 2 conditions, got %d", e.Kind, e.Count)
}
