package nnet

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/taposh/cxxnet/layer"
)

// Resolver maps layer-type names to kinds. The layer package provides the
// standard vocabulary; tests may substitute their own.
type Resolver interface {
	Resolve(name string) (layer.Kind, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(name string) (layer.Kind, error)

func (f ResolverFunc) Resolve(name string) (layer.Kind, error) { return f(name) }

// Compiler turns an ordered directive list into a validated layer graph.
// It co-owns the persisted Graph and the transient training Overlay and
// never conflates them: SaveStructure and LoadStructure touch only the
// Graph, Configure rebuilds the Overlay on every call.
//
// A Compiler is not safe for concurrent use; callers that share one across
// goroutines must serialize Configure, SaveStructure and LoadStructure
// externally.
type Compiler struct {
	Graph   Graph
	Overlay Overlay

	resolver Resolver
}

// New returns an empty draft compiler using the standard layer vocabulary.
func New() *Compiler {
	return NewWithResolver(ResolverFunc(layer.Resolve))
}

// NewWithResolver returns an empty draft compiler with a custom layer-type
// resolver.
func NewWithResolver(r Resolver) *Compiler {
	return &Compiler{
		Overlay:  Overlay{UpdaterType: DefaultUpdater, tags: tagTable{}},
		resolver: r,
	}
}

// scanMode tracks where plain settings belong while scanning directives.
type scanMode int

const (
	// modeFree: before any netconfig block; settings are network-wide
	// defaults.
	modeFree scanMode = iota
	// modeNetBlock: after "netconfig = start" but before the first edge
	// directive.
	modeNetBlock
	// modeAfterLayer: at least one edge directive has been seen; settings
	// attach to the most recent layer.
	modeAfterLayer
)

// scanState is the fold accumulator threaded through Configure. The
// directive stream is order-dependent and all of that order dependence
// lives here: the settings mode, the current top node that anchors relative
// edges, and the index of the next layer.
type scanState struct {
	mode    scanMode
	topNode int32
	cursor  int
}

// Configure processes the full directive list in order, exactly once.
//
// On a draft compiler the edge directives define the structure, which is
// finalized when the scan completes. On a finalized compiler every edge
// directive must replay the fixed structure verbatim and only the training
// overlay changes. Errors wrap ErrMalformed or ErrMismatch and abort the
// call immediately; the overlay may be left partially rebuilt, the
// structure is never partially changed.
func (c *Compiler) Configure(directives []Directive) error {
	c.Overlay.reset(len(c.Graph.Layers))
	st := scanState{}
	for _, d := range directives {
		next, err := c.step(st, d)
		if err != nil {
			return err
		}
		st = next
	}
	if !c.Graph.Param.Finalized() {
		c.Graph.finalize()
		klog.V(1).Infof("nnet: structure finalized with %d layers over %d nodes",
			c.Graph.Param.NumLayers, c.Graph.Param.NumNodes)
	}
	return nil
}

// step applies one directive to the compiler and returns the advanced scan
// state.
func (c *Compiler) step(st scanState, d Directive) (scanState, error) {
	switch {
	case !c.Graph.Param.Finalized() && d.Key == "input_shape":
		shape, err := parseInputShape(d.Value)
		if err != nil {
			return st, err
		}
		c.Graph.Param.InputShape = shape
		return st, nil
	case d.Key == "updater":
		// Allowed whether or not the structure is fixed.
		c.Overlay.UpdaterType = d.Value
		return st, nil
	case d.Key == "netconfig":
		switch d.Value {
		case "start":
			st.mode = modeNetBlock
		case "end":
			st.mode = modeAfterLayer
		default:
			return st, fmt.Errorf("%w: netconfig must be \"start\" or \"end\", got %q", ErrMalformed, d.Value)
		}
		return st, nil
	case isEdgeKey(d.Key):
		return c.stepEdge(st, d)
	default:
		return st, c.stepSetting(st, d)
	}
}

// stepEdge handles one layer edge directive: append on a draft, validate on
// a finalized structure.
func (c *Compiler) stepEdge(st scanState, d Directive) (scanState, error) {
	rec, err := c.layerInfo(d.Key, d.Value, st.topNode, st.cursor)
	if err != nil {
		return st, err
	}
	st.mode = modeAfterLayer
	if !c.Graph.Param.Finalized() {
		if len(c.Graph.Layers) != st.cursor {
			// The scan appends layers in lockstep with the cursor; getting
			// here means the compiler was reused after a failed Configure.
			panic("nnet: layer list out of step with configuration scan")
		}
		c.Graph.Layers = append(c.Graph.Layers, rec)
		c.Overlay.PerLayer = append(c.Overlay.PerLayer, nil)
	} else {
		if st.cursor >= len(c.Graph.Layers) {
			return st, fmt.Errorf("%w: directive %q declares layer %d but the structure is fixed at %d layers",
				ErrMismatch, d.Key, st.cursor, len(c.Graph.Layers))
		}
		if !rec.Equal(c.Graph.Layers[st.cursor]) {
			return st, fmt.Errorf("%w: directive %q = %q disagrees with layer %d of the fixed structure",
				ErrMismatch, d.Key, d.Value, st.cursor)
		}
	}
	if len(rec.Out) != 0 {
		st.topNode = rec.Out[0]
	}
	klog.V(2).Infof("nnet: layer %d: %s %s -> %s", st.cursor, rec.Kind, joinIndices(rec.In), joinIndices(rec.Out))
	st.cursor++
	return st, nil
}

// stepSetting routes a plain (key, value) setting to the network-wide
// defaults or to the most recently declared layer.
func (c *Compiler) stepSetting(st scanState, d Directive) error {
	if st.mode == modeFree || st.cursor == 0 {
		c.Overlay.Defaults = append(c.Overlay.Defaults, d)
		return nil
	}
	last := st.cursor - 1
	if c.Graph.Layers[last].Kind.IsShared() {
		return fmt.Errorf("%w: setting %q: layer %d is shared, set parameters on its primary layer instead",
			ErrMalformed, d.Key, last)
	}
	c.Overlay.PerLayer[last] = append(c.Overlay.PerLayer[last], d)
	return nil
}
