package nnet

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// nodeGraph builds the directed node graph induced by the layer edges.
// In-place layers (input node equal to output node) contribute no edge;
// they transform a node's contents without moving data between nodes.
func (g *Graph) nodeGraph() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for n := int32(0); n < g.Param.NumNodes; n++ {
		dg.AddNode(simple.Node(n))
	}
	for _, l := range g.Layers {
		for _, a := range l.In {
			for _, b := range l.Out {
				if a == b {
					continue
				}
				dg.SetEdge(dg.NewEdge(simple.Node(a), simple.Node(b)))
			}
		}
	}
	return dg
}

// CheckTopology diagnoses the node graph of the structure: the layer edges
// must not form a cycle and every node must be reachable from the input
// node 0. Hand-written configurations get these wrong often enough that a
// compile-time diagnosis beats a silent dead subgraph at training time.
func (g *Graph) CheckTopology() error {
	if g.Param.NumNodes == 0 {
		return nil
	}
	dg := g.nodeGraph()
	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("%w: layer edges form a cycle: %v", ErrMalformed, err)
	}
	seen := make(map[int64]bool, g.Param.NumNodes)
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) { seen[n.ID()] = true },
	}
	bfs.Walk(dg, simple.Node(0), nil)
	for n := int64(0); n < int64(g.Param.NumNodes); n++ {
		if !seen[n] {
			return fmt.Errorf("%w: node %d is not reachable from the input node", ErrMalformed, n)
		}
	}
	return nil
}

// TopoOrder returns the node indices in a topological order of the layer
// edges, for tooling that walks the network input to output.
func (g *Graph) TopoOrder() ([]int32, error) {
	sorted, err := topo.Sort(g.nodeGraph())
	if err != nil {
		return nil, fmt.Errorf("%w: layer edges form a cycle: %v", ErrMalformed, err)
	}
	order := make([]int32, len(sorted))
	for i, n := range sorted {
		order[i] = int32(n.ID())
	}
	return order, nil
}
