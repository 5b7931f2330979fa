// Package nnet compiles ordered textual directives into a validated graph
// of computation layers over numbered data nodes, and persists that graph's
// structure in a compact binary form.
//
// A Compiler starts as an empty draft. The first Configure call (or a
// LoadStructure) finalizes the structure exactly once; after that the
// topology is immutable and further Configure calls may only replay it
// verbatim while adjusting training configuration.
package nnet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/taposh/cxxnet/layer"
)

// NetParam is the fixed-size header of a persisted network structure. Its
// byte layout, reserved words included, is written to model files verbatim
// and must round-trip exactly.
type NetParam struct {
	NumNodes  int32
	NumLayers int32
	// InputShape holds channel, height, width of one input example; the
	// batch dimension is excluded.
	InputShape [3]uint32
	// InitEnd is nonzero once the structure is finalized.
	InitEnd int32
	// Reserved extends the record without breaking old readers.
	Reserved [32]int32
}

// Finalized reports whether the network structure is fixed.
func (p *NetParam) Finalized() bool { return p.InitEnd != 0 }

// NoPrimary marks a layer that owns its own parameters.
const NoPrimary int32 = -1

// LayerRecord describes one layer of the structure. The record's position
// in Graph.Layers is the layer's identity. In and Out currently hold one
// node index each; multi-input fan-in is deferred.
type LayerRecord struct {
	Kind layer.Kind
	// Primary is the index of the layer this one shares parameters with.
	// It is meaningful only when Kind is the shared kind.
	Primary int32
	In      []int32
	Out     []int32
}

// Equal reports structural equality: kind, primary index and both node
// index sequences element-wise.
func (l LayerRecord) Equal(o LayerRecord) bool {
	return l.Kind == o.Kind && l.Primary == o.Primary &&
		slices.Equal(l.In, o.In) && slices.Equal(l.Out, o.Out)
}

// Graph is the persisted part of a network configuration: the parameter
// header plus one record per layer in index order. Nodes have no records of
// their own; a node exists because some layer references its index.
type Graph struct {
	Param  NetParam
	Layers []LayerRecord
}

// finalize derives NumNodes from the node indices the layers reference,
// fixes the layer count and marks the structure immutable. It is the single
// draft-to-finalized transition.
func (g *Graph) finalize() {
	g.Param.NumNodes = 0
	g.Param.NumLayers = int32(len(g.Layers))
	for _, l := range g.Layers {
		for _, n := range l.In {
			g.Param.NumNodes = max(g.Param.NumNodes, n+1)
		}
		for _, n := range l.Out {
			g.Param.NumNodes = max(g.Param.NumNodes, n+1)
		}
	}
	g.Param.InitEnd = 1
}

// Summary renders the structure as a small human-readable table.
func (g *Graph) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nodes=%d layers=%d input_shape=%d,%d,%d\n",
		g.Param.NumNodes, g.Param.NumLayers,
		g.Param.InputShape[0], g.Param.InputShape[1], g.Param.InputShape[2])
	for i, l := range g.Layers {
		fmt.Fprintf(&b, "  %3d  %-12s %s -> %s", i, l.Kind, joinIndices(l.In), joinIndices(l.Out))
		if l.Primary != NoPrimary {
			fmt.Fprintf(&b, "  shares layer %d", l.Primary)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func joinIndices(xs []int32) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
