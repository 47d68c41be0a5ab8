package integration_tests

import (
	"context"
	"sync"
	"time"

	"github.com/vk/themegrid/internal/app"
	"github.com/vk/themegrid/internal/registry"
)

// mockSleeperModule registers a "sleep" transform that records when each
// group's chain ran.
type mockSleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]*app.ExecutionRecord
	sleepDuration  time.Duration
}

func newSleeper(d time.Duration) *mockSleeperModule {
	return &mockSleeperModule{executionTimes: make(map[string]*app.ExecutionRecord), sleepDuration: d}
}

func (m *mockSleeperModule) Register(r *registry.Registry) {
	r.RegisterTransform("sleep", func(ctx context.Context, b *registry.Batch) (*registry.Batch, error) {
		start := time.Now()
		select {
		case <-time.After(m.sleepDuration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		m.mu.Lock()
		m.executionTimes[b.Group] = &app.ExecutionRecord{Start: start, End: time.Now()}
		m.mu.Unlock()
		return b, nil
	})
}

func (m *mockSleeperModule) records() map[string]*app.ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*app.ExecutionRecord, len(m.executionTimes))
	for k, v := range m.executionTimes {
		out[k] = v
	}
	return out
}

// sources gives every group one input file so its chain runs.
var sources = map[string]string{
	"src/a/x.txt": "a",
	"src/b/x.txt": "b",
	"src/c/x.txt": "c",
	"src/d/x.txt": "d",
}
