package executor

import (
	"sync"
	"sync/atomic"

	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/fingerprint"
)

// node is the per-run execution state of a task.
type node struct {
	task *dag.Task
	// stale is decided before the pool starts and never changes afterwards.
	stale  bool
	reason string
	// fp is the fingerprint computed while planning.
	fp fingerprint.Fingerprint
	// seedOutputs are the destination artifacts a fresh process compared
	// against; they become the record when the task is skipped.
	seedOutputs []string
	seeded      bool

	deps       []*node
	dependents []*node

	// depCount is an atomic counter for unmet dependencies.
	depCount atomic.Int32
	// state is the node's current status, managed atomically.
	state atomic.Value
	// doneOnce ensures a node is finished (run, skipped or failed) exactly once.
	doneOnce sync.Once

	result RunResult
}

func newNode(t *dag.Task) *node {
	n := &node{task: t}
	n.state.Store(Pending)
	n.result = RunResult{Task: t.ID, Status: Pending}
	return n
}

func (n *node) setState(s Status) { n.state.Store(s) }

func (n *node) getState() Status { return n.state.Load().(Status) }
