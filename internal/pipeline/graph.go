package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Graph errors.
var (
	ErrDuplicateNode = errors.New("duplicate node")
	ErrUnknownDep    = errors.New("unknown dependency")
	ErrCycle         = errors.New("dependency cycle")
)

// NodeFunc is the work of one node.
type NodeFunc func(ctx context.Context) error

// Node is a named unit of work that may start once all of Deps finished.
type Node struct {
	Name string
	Deps []string
	Run  NodeFunc
}

// Graph is a dependency DAG of nodes. Nodes are scheduled in insertion order
// among those that are ready.
type Graph struct {
	nodes []*Node
	index map[string]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Add appends a node. Dependencies may be added later; Validate checks them.
func (g *Graph) Add(name string, deps []string, run NodeFunc) error {
	if _, ok := g.index[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, &Node{Name: name, Deps: deps, Run: run})
	return nil
}

// Names returns node names in insertion order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.Name
	}
	return names
}

// Validate checks that every dependency exists and that the graph is
// acyclic.
func (g *Graph) Validate() error {
	indeg := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		for _, d := range n.Deps {
			if _, ok := g.index[d]; !ok {
				return fmt.Errorf("%w: %s needs %s", ErrUnknownDep, n.Name, d)
			}
		}
		indeg[i] = len(n.Deps)
	}
	dependents := g.dependents()
	var queue []int
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	seen := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		seen++
		for _, j := range dependents[i] {
			if indeg[j]--; indeg[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if seen != len(g.nodes) {
		return ErrCycle
	}
	return nil
}

func (g *Graph) dependents() [][]int {
	out := make([][]int, len(g.nodes))
	for i, n := range g.nodes {
		for _, d := range n.Deps {
			j := g.index[d]
			out[j] = append(out[j], i)
		}
	}
	return out
}

// NodeState is the outcome of one node in an execution.
type NodeState string

// Node states.
const (
	StateSucceeded NodeState = "succeeded"
	StateFailed    NodeState = "failed"
	StateSkipped   NodeState = "skipped"
)

// Execution records the outcome of every node of one Execute call.
type Execution struct {
	States map[string]NodeState
	// Order lists nodes in the order they finished.
	Order []string
}

// Hook wraps every node run, e.g. to add a span or time it.
type Hook func(ctx context.Context, node string, run NodeFunc) error

type finished struct {
	node int
	err  error
}

// Execute runs the graph on at most workers concurrent nodes. A node starts
// only after all its dependencies succeeded. Once a node fails or ctx is
// done no further node starts; nodes already running finish. The returned
// error is the failure of the earliest-inserted failed node, or ctx.Err().
func (g *Graph) Execute(ctx context.Context, workers int, hook Hook) (*Execution, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = len(g.nodes)
	}
	if hook == nil {
		hook = func(ctx context.Context, _ string, run NodeFunc) error { return run(ctx) }
	}

	exec := &Execution{States: make(map[string]NodeState, len(g.nodes))}
	pending := make([]int, len(g.nodes))
	var ready []int
	for i, n := range g.nodes {
		pending[i] = len(n.Deps)
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}
	dependents := g.dependents()
	done := make(chan finished)
	failures := make(map[int]error)
	running := 0
	stopped := false

	for {
		for !stopped && running < workers && len(ready) > 0 {
			if ctx.Err() != nil {
				stopped = true
				break
			}
			i := ready[0]
			ready = ready[1:]
			running++
			node := g.nodes[i]
			go func() {
				done <- finished{node: i, err: hook(ctx, node.Name, node.Run)}
			}()
		}
		if running == 0 {
			break
		}

		f := <-done
		running--
		name := g.nodes[f.node].Name
		exec.Order = append(exec.Order, name)
		if f.err != nil {
			exec.States[name] = StateFailed
			failures[f.node] = f.err
			stopped = true
			continue
		}
		exec.States[name] = StateSucceeded
		for _, j := range dependents[f.node] {
			if pending[j]--; pending[j] == 0 {
				ready = append(ready, j)
			}
		}
		sort.Ints(ready)
	}

	for _, n := range g.nodes {
		if _, ok := exec.States[n.Name]; !ok {
			exec.States[n.Name] = StateSkipped
		}
	}
	if len(failures) > 0 {
		first := len(g.nodes)
		for i := range failures {
			first = min(first, i)
		}
		return exec, fmt.Errorf("%s: %w", g.nodes[first].Name, failures[first])
	}
	if err := ctx.Err(); err != nil && len(exec.Order) < len(g.nodes) {
		return exec, err
	}
	return exec, nil
}
