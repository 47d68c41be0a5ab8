package dag

import "container/heap"

// taskMinHeap orders ready tasks by declaration order.
type taskMinHeap []*Task

func (h taskMinHeap) Len() int           { return len(h) }
func (h taskMinHeap) Less(i, j int) bool { return h[i].Order < h[j].Order }
func (h taskMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskMinHeap) Push(x any)        { *h = append(*h, x.(*Task)) }
func (h *taskMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalOrder returns every task such that each one comes after all of
// its dependencies. Among tasks with no ordering constraint, declaration
// order wins. It returns a *CycleError if the graph is not acyclic.
func (g *TaskGraph) TopologicalOrder() ([]*Task, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indeg := make(map[string]int, len(g.tasks))
	ready := &taskMinHeap{}
	heap.Init(ready)
	for _, t := range g.ordered {
		indeg[t.ID] = len(t.deps)
		if indeg[t.ID] == 0 {
			heap.Push(ready, t)
		}
	}

	out := make([]*Task, 0, len(g.tasks))
	for ready.Len() > 0 {
		t := heap.Pop(ready).(*Task)
		out = append(out, t)
		for _, d := range t.dependents {
			indeg[d.ID]--
			if indeg[d.ID] == 0 {
				heap.Push(ready, d)
			}
		}
	}

	if len(out) == len(g.tasks) {
		return out, nil
	}
	return nil, &CycleError{Path: g.findCycleDeterministic()}
}

// findCycleDeterministic performs a DFS in declaration order to extract one
// cycle path. It does not attempt to list all cycles; it returns a single
// stable witness. The caller must hold the lock.
func (g *TaskGraph) findCycleDeterministic() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.tasks))
	parent := make(map[string]*Task, len(g.tasks))
	var cycle []*Task

	var dfs func(u *Task) bool
	dfs = func(u *Task) bool {
		color[u.ID] = gray
		for _, v := range sortedTasks(u.dependents) {
			switch color[v.ID] {
			case white:
				parent[v.ID] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v. Walk parents from u back to v.
				cycle = append(cycle, v)
				for cur := u; cur != nil && cur != v; cur = parent[cur.ID] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u.ID] = black
		return false
	}

	for _, t := range g.ordered {
		if color[t.ID] != white {
			continue
		}
		if dfs(t) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, cycle[i].ID)
	}
	return out
}

// Roots returns the tasks without dependencies, in declaration order.
func (g *TaskGraph) Roots() []*Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []*Task
	for _, t := range g.ordered {
		if len(t.deps) == 0 {
			out = append(out, t)
		}
	}
	return out
}
