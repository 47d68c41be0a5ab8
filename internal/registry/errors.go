package registry

import "fmt"

// TransformError reports a failed stage of a group's chain. It is recovered
// as a task failure and never crashes the process.
type TransformError struct {
	Group string
	Stage string
	Cause error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("group %q: stage %q: %v", e.Group, e.Stage, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// FailedStage returns the name of the stage that failed.
func (e *TransformError) FailedStage() string { return e.Stage }
