package dag

import (
	"github.com/vk/themegrid/internal/config"
)

// Subgraph returns a graph holding only the named tasks and the edges
// between them. It backs targeted runs such as `themegrid styles`, which
// rebuild one group without touching its neighbours.
func (g *TaskGraph) Subgraph(ids ...string) (*TaskGraph, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := g.tasks[id]; !ok {
			return nil, &config.ConfigError{Group: id, Err: config.ErrUnknownGroup}
		}
		keep[id] = true
	}

	sub := New()
	for _, t := range g.ordered {
		if !keep[t.ID] {
			continue
		}
		cp := *t
		if err := sub.AddTask(&cp); err != nil {
			return nil, err
		}
	}
	for _, t := range g.ordered {
		if !keep[t.ID] {
			continue
		}
		for depID := range t.deps {
			if keep[depID] {
				if err := sub.AddEdge(depID, t.ID); err != nil {
					return nil, err
				}
			}
		}
	}
	return sub, nil
}
