package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty TaskGraph.
func New() *TaskGraph {
	return &TaskGraph{
		tasks: make(map[string]*Task),
	}
}

// AddTask adds a task to the graph. Adding an id twice is an error.
func (g *TaskGraph) AddTask(t *Task) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.tasks[t.ID]; ok {
		return fmt.Errorf("duplicate task: %s", t.ID)
	}
	t.deps = make(map[string]*Task)
	t.dependents = make(map[string]*Task)
	g.tasks[t.ID] = t

	idx := sort.Search(len(g.ordered), func(i int) bool { return g.ordered[i].Order > t.Order })
	g.ordered = append(g.ordered, nil)
	copy(g.ordered[idx+1:], g.ordered[idx:])
	g.ordered[idx] = t
	return nil
}

// AddEdge creates a directed edge from the `fromID` task to the `toID` task.
// This signifies that `toID` has a dependency on `fromID`. An error is
// returned if either task does not exist or if the edge would create a
// self-reference.
func (g *TaskGraph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, ok := g.tasks[fromID]
	if !ok {
		return fmt.Errorf("source task not found: %s", fromID)
	}
	to, ok := g.tasks[toID]
	if !ok {
		return fmt.Errorf("destination task not found: %s", toID)
	}

	to.deps[fromID] = from
	from.dependents[toID] = to
	return nil
}

// Task returns the task with the given id.
func (g *TaskGraph) Task(id string) (*Task, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	t, ok := g.tasks[id]
	return t, ok
}

// Len returns the number of tasks.
func (g *TaskGraph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.tasks)
}

// Tasks returns every task in declaration order.
func (g *TaskGraph) Tasks() []*Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]*Task(nil), g.ordered...)
}

// Dependencies returns the tasks the given task depends on, in declaration order.
func (g *TaskGraph) Dependencies(id string) ([]*Task, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	t, ok := g.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return sortedTasks(t.deps), nil
}

// Dependents returns the tasks that depend on the given task, in declaration order.
func (g *TaskGraph) Dependents(id string) ([]*Task, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	t, ok := g.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return sortedTasks(t.dependents), nil
}

// Downstream returns every transitive dependent of the given tasks, not
// including the tasks themselves, in declaration order.
func (g *TaskGraph) Downstream(ids ...string) []*Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	seen := make(map[string]*Task)
	var visit func(t *Task)
	visit = func(t *Task) {
		for id, d := range t.dependents {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = d
			visit(d)
		}
	}
	for _, id := range ids {
		if t, ok := g.tasks[id]; ok {
			visit(t)
		}
	}
	for _, id := range ids {
		delete(seen, id)
	}
	return sortedTasks(seen)
}

// Affected returns the tasks having at least one of the paths as an input,
// in declaration order.
func (g *TaskGraph) Affected(paths []string) []*Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []*Task
	for _, t := range g.ordered {
		for _, p := range paths {
			if t.Matches(p) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// reaches reports whether `to` is reachable from `from`. The caller must
// hold the lock.
func (g *TaskGraph) reaches(from, to *Task) bool {
	seen := make(map[string]bool)
	stack := []*Task{from}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t == to {
			return true
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		for _, d := range t.dependents {
			stack = append(stack, d)
		}
	}
	return false
}

func sortedTasks(m map[string]*Task) []*Task {
	out := make([]*Task, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
