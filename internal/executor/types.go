package executor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the outcome of a task in one run.
type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Skipped   Status = "skipped"
)

// ChangeSet is the set of absolute paths reported in one debounce window.
type ChangeSet map[string]struct{}

// NewChangeSet builds a change set from paths.
func NewChangeSet(paths ...string) ChangeSet {
	cs := make(ChangeSet, len(paths))
	for _, p := range paths {
		cs.Add(p)
	}
	return cs
}

// Add inserts a path.
func (cs ChangeSet) Add(p string) { cs[p] = struct{}{} }

// Paths returns the sorted paths.
func (cs ChangeSet) Paths() []string {
	out := make([]string, 0, len(cs))
	for p := range cs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RunResult is the outcome of one task.
type RunResult struct {
	Task   string
	Status Status
	// Reason explains why the task ran or was skipped.
	Reason   string
	Err      error
	Duration time.Duration
	Outputs  []string
}

// BuildReport aggregates the results of one run, in declaration order.
type BuildReport struct {
	Results  []RunResult
	Started  time.Time
	Duration time.Duration
}

// Result returns the result of the named task.
func (r *BuildReport) Result(id string) (RunResult, bool) {
	for _, res := range r.Results {
		if res.Task == id {
			return res, true
		}
	}
	return RunResult{}, false
}

// Count returns the number of tasks with the given status.
func (r *BuildReport) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any task failed.
func (r *BuildReport) Failed() bool {
	return r.Count(Failed) > 0
}

// Ran returns the results of the tasks that were invoked or that failed
// because of an upstream task.
func (r *BuildReport) Ran() []RunResult {
	var out []RunResult
	for _, res := range r.Results {
		if res.Status != Skipped {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of the failed tasks that were actually invoked.
// Upstream failures are left out since they repeat a root cause.
func (r *BuildReport) Err() error {
	var errs []error
	for _, res := range r.Results {
		var up *UpstreamFailure
		if res.Status == Failed && res.Err != nil && !errors.As(res.Err, &up) {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Summary is a one-line description used in logs.
func (r *BuildReport) Summary() string {
	parts := []string{
		fmt.Sprintf("%d succeeded", r.Count(Succeeded)),
		fmt.Sprintf("%d skipped", r.Count(Skipped)),
		fmt.Sprintf("%d failed", r.Count(Failed)),
	}
	return strings.Join(parts, ", ")
}

// UpstreamFailure marks a task that was not invoked because a task it
// depends on failed.
type UpstreamFailure struct {
	Task     string
	Upstream string
}

func (e *UpstreamFailure) Error() string {
	return fmt.Sprintf("task %q not run: upstream %q failed", e.Task, e.Upstream)
}
