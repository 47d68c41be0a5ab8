package dag

import (
	"errors"
	"strings"
)

// ErrCycleFound is matched by every *CycleError through errors.Is.
var ErrCycleFound = errors.New("cycle detected")

// CycleError reports a dependency cycle. Path is a deterministic witness
// that starts and ends with the same task id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Path) == 0 {
		return ErrCycleFound.Error()
	}
	return ErrCycleFound.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrCycleFound }
