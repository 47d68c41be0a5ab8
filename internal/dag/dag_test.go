package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(tasks []*Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func newGraph(t *testing.T, names ...string) *TaskGraph {
	t.Helper()
	g := New()
	for i, n := range names {
		require.NoError(t, g.AddTask(&Task{ID: n, Order: i}))
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.tasks)
	assert.Empty(t, g.tasks)
	assert.Equal(t, 0, g.Len())
}

func TestAddTask(t *testing.T) {
	g := New()

	require.NoError(t, g.AddTask(&Task{ID: "b", Order: 1}))
	require.NoError(t, g.AddTask(&Task{ID: "a", Order: 0}))
	assert.Equal(t, []string{"a", "b"}, ids(g.Tasks()))

	err := g.AddTask(&Task{ID: "a", Order: 2})
	assert.ErrorContains(t, err, "duplicate task")
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := newGraph(t, "a", "b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(deps))

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(dependents))
	})

	t.Run("error cases", func(t *testing.T) {
		g := newGraph(t, "a", "b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source task not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination task not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Dependencies("dne")
		assert.Error(t, err)
		_, err = g.Dependents("dne")
		assert.Error(t, err)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("declaration order breaks ties", func(t *testing.T) {
		g := newGraph(t, "styles", "scripts", "html", "images")
		require.NoError(t, g.AddEdge("images", "html"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"styles", "scripts", "images", "html"}, ids(order))
	})

	t.Run("cycle yields a witness", func(t *testing.T) {
		g := newGraph(t, "a", "b", "c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))

		_, err := g.TopologicalOrder()

		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.ErrorIs(t, err, ErrCycleFound)
		assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Path)
		assert.Contains(t, err.Error(), "a -> b -> c -> a")
	})
}

func TestDownstream(t *testing.T) {
	g := newGraph(t, "a", "b", "c", "d")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	assert.Equal(t, []string{"b", "c"}, ids(g.Downstream("a")))
	assert.Empty(t, g.Downstream("d"))
	assert.Equal(t, []string{"c"}, ids(g.Downstream("a", "b")))
}

func TestRoots(t *testing.T) {
	g := newGraph(t, "a", "b", "c")
	require.NoError(t, g.AddEdge("a", "c"))

	assert.Equal(t, []string{"a", "b"}, ids(g.Roots()))
}

func TestSubgraph(t *testing.T) {
	g := newGraph(t, "a", "b", "c")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	sub, err := g.Subgraph("c", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(sub.Tasks()))

	deps, err := sub.Dependencies("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(deps))
	deps, err = sub.Dependencies("b")
	require.NoError(t, err)
	assert.Empty(t, deps)

	// The original graph is untouched.
	deps, err = g.Dependencies("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(deps))

	_, err = g.Subgraph("nope")
	assert.Error(t, err)
}
