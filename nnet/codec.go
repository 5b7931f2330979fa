package nnet

import (
	"fmt"
	"io"

	"github.com/taposh/cxxnet/layer"
	"github.com/taposh/cxxnet/stream"
)

// maxLayers bounds the layer count accepted from a model stream. Real
// networks run to thousands of layers at most; a count anywhere near this
// bound is corruption, and allocating records for it before reading them
// would turn a bad header into an out-of-memory abort.
const maxLayers = 1 << 20

// SaveStructure writes the persisted structure: the NetParam record
// verbatim, then for each layer its primary index, kind and the two node
// index sequences. Training configuration is never written.
//
// An inconsistent layer count is a programming fault, not an input error,
// and panics.
func (c *Compiler) SaveStructure(w io.Writer) error {
	if int(c.Graph.Param.NumLayers) != len(c.Graph.Layers) {
		panic(fmt.Sprintf("nnet: model inconsistent, %d layer records for a %d layer structure",
			len(c.Graph.Layers), c.Graph.Param.NumLayers))
	}
	bw := stream.NewBinaryWriter(w)
	if err := bw.WriteRecord(&c.Graph.Param); err != nil {
		return fmt.Errorf("write net parameters: %w", err)
	}
	for i := range c.Graph.Layers {
		l := &c.Graph.Layers[i]
		if err := bw.WriteRecord(l.Primary); err != nil {
			return fmt.Errorf("write layer %d: %w", i, err)
		}
		if err := bw.WriteRecord(int32(l.Kind)); err != nil {
			return fmt.Errorf("write layer %d: %w", i, err)
		}
		if err := bw.WriteInt32s(l.In); err != nil {
			return fmt.Errorf("write layer %d: %w", i, err)
		}
		if err := bw.WriteInt32s(l.Out); err != nil {
			return fmt.Errorf("write layer %d: %w", i, err)
		}
	}
	return nil
}

// LoadStructure replaces the compiler's structure with one read from r and
// clears the training overlay; layer tags must be redeclared by the next
// Configure call before any shared layer references them.
//
// The structure is only replaced after the whole stream has been read: a
// truncated or malformed stream (error wrapping ErrTruncated) leaves the
// compiler unchanged.
func (c *Compiler) LoadStructure(r io.Reader) error {
	br := stream.NewBinaryReader(r)
	var param NetParam
	if err := br.ReadRecord(&param); err != nil {
		return fmt.Errorf("read net parameters: %w", err)
	}
	if param.NumLayers < 0 || param.NumLayers > maxLayers {
		return fmt.Errorf("%w: layer count %d out of range", ErrMalformed, param.NumLayers)
	}
	layers := make([]LayerRecord, param.NumLayers)
	for i := range layers {
		var primary, kind int32
		if err := br.ReadRecord(&primary); err != nil {
			return fmt.Errorf("read layer %d: %w", i, err)
		}
		if err := br.ReadRecord(&kind); err != nil {
			return fmt.Errorf("read layer %d: %w", i, err)
		}
		in, err := br.ReadInt32s()
		if err != nil {
			return fmt.Errorf("read layer %d input nodes: %w", i, err)
		}
		out, err := br.ReadInt32s()
		if err != nil {
			return fmt.Errorf("read layer %d output nodes: %w", i, err)
		}
		layers[i] = LayerRecord{
			Kind:    layer.Kind(kind),
			Primary: primary,
			In:      in,
			Out:     out,
		}
	}
	c.Graph.Param = param
	c.Graph.Layers = layers
	c.Overlay.Defaults = nil
	c.Overlay.PerLayer = make([][]Directive, param.NumLayers)
	c.Overlay.tags = tagTable{}
	return nil
}
