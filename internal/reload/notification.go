package reload

import (
	"github.com/vk/themegrid/internal/executor"
)

// Notification is the message sent for every task that ran in a cycle.
type Notification struct {
	Group  string   `json:"group"`
	Status string   `json:"status"`
	Errors []string `json:"errors"`
}

// Failed reports whether the task failed.
func (n Notification) Failed() bool {
	return n.Status == string(executor.Failed)
}

// Summary describes a whole cycle.
type Summary struct {
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Changed   []string `json:"changed"`
}

// FromReport builds the notifications of a report, in declaration order.
// Skipped tasks did not run and produce none.
func FromReport(report *executor.BuildReport) []Notification {
	var out []Notification
	for _, res := range report.Ran() {
		n := Notification{Group: res.Task, Status: string(res.Status), Errors: []string{}}
		if res.Err != nil {
			n.Errors = append(n.Errors, res.Err.Error())
		}
		out = append(out, n)
	}
	return out
}

// SummaryOf builds the summary of a report and the changed paths that
// triggered it.
func SummaryOf(report *executor.BuildReport, changed []string) Summary {
	if changed == nil {
		changed = []string{}
	}
	return Summary{
		Succeeded: report.Count(executor.Succeeded),
		Skipped:   report.Count(executor.Skipped),
		Failed:    report.Count(executor.Failed),
		Changed:   changed,
	}
}
