package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/vk/themegrid/internal/app"
	"github.com/vk/themegrid/internal/executor"
)

// Test for: Fan-in synchronization waits for all parallel groups.
func TestDagConcurrency_FanInSynchronization(t *testing.T) {
	// --- Arrange ---
	pipeline := `
		pipeline {
			concurrency = 4
		}
		group "A" {
			sources    = ["src/a/*.txt"]
			dest       = "out/a"
			transforms = ["sleep"]
		}
		group "B" {
			sources    = ["src/b/*.txt"]
			dest       = "out/b"
			transforms = ["sleep"]
		}
		group "C" {
			sources    = ["src/c/*.txt"]
			dest       = "out/c"
			transforms = ["sleep"]
		}
		group "D" {
			sources    = ["src/d/*.txt"]
			dest       = "out/d"
			transforms = ["sleep"]
			depends_on = ["A", "B", "C"]
		}
	`
	sleeper := newSleeper(50 * time.Millisecond)
	testApp, _, _ := app.SetupAppTest(t, pipeline, sources, sleeper)

	// --- Act ---
	report, err := testApp.Build(context.Background(), app.BuildOptions{})
	if err != nil {
		t.Fatalf("Build() returned an unexpected error: %v", err)
	}

	// --- Assert ---
	if got := report.Count(executor.Succeeded); got != 4 {
		t.Fatalf("expected 4 succeeded groups, got %d (%s)", got, report.Summary())
	}
	records := sleeper.records()
	latestPrereqEndTime := records["A"].End
	for _, id := range []string{"B", "C"} {
		if records[id].End.After(latestPrereqEndTime) {
			latestPrereqEndTime = records[id].End
		}
	}
	if records["D"].Start.Before(latestPrereqEndTime) {
		t.Errorf("fan-in synchronization failed: group D started before all prerequisites were complete")
	}
}
