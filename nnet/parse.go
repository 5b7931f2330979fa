package nnet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// edgeKeyPrefix selects the edge-directive branch of the grammar. Any key
// starting with it must parse fully; a near miss is an error, not a setting.
const edgeKeyPrefix = "layer["

func isEdgeKey(key string) bool { return strings.HasPrefix(key, edgeKeyPrefix) }

// parseEdgeKey parses "layer[A->B]" (explicit input and output node) or
// "layer[+N]" (input is the current top node, output N above it). topNode
// anchors the relative form.
func parseEdgeKey(key string, topNode int32) (in, out int32, err error) {
	if !strings.HasSuffix(key, "]") {
		return 0, 0, fmt.Errorf("%w: invalid layer directive %q", ErrMalformed, key)
	}
	body := key[len(edgeKeyPrefix) : len(key)-1]
	if rest, ok := strings.CutPrefix(body, "+"); ok {
		step, err := parseNodeIndex(rest)
		if err != nil || step > math.MaxInt32-topNode {
			return 0, 0, fmt.Errorf("%w: invalid layer directive %q", ErrMalformed, key)
		}
		return topNode, topNode + step, nil
	}
	a, b, ok := strings.Cut(body, "->")
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid layer directive %q", ErrMalformed, key)
	}
	in, errA := parseNodeIndex(a)
	out, errB := parseNodeIndex(b)
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("%w: invalid layer directive %q", ErrMalformed, key)
	}
	return in, out, nil
}

// parseNodeIndex accepts plain decimal digits; node indices are always
// non-negative.
func parseNodeIndex(s string) (int32, error) {
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// parseEdgeValue splits an edge directive's value into a layer-type name
// and an optional symbolic tag ("type" or "type:tag").
func parseEdgeValue(value string) (name, tag string, err error) {
	name, tag, tagged := strings.Cut(value, ":")
	if tagged && (name == "" || tag == "") {
		return "", "", fmt.Errorf("%w: invalid layer value %q, want \"type\" or \"type:tag\"", ErrMalformed, value)
	}
	return name, tag, nil
}

// parseInputShape parses "z,y,x" as channel, height and width of one input
// example.
func parseInputShape(value string) ([3]uint32, error) {
	var shape [3]uint32
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return shape, fmt.Errorf("%w: input_shape must be three comma-separated integers, for example 1,1,200 (got %q)", ErrMalformed, value)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return shape, fmt.Errorf("%w: input_shape must be three comma-separated integers, for example 1,1,200 (got %q)", ErrMalformed, value)
		}
		shape[i] = uint32(n)
	}
	return shape, nil
}

// layerInfo parses one edge directive into a LayerRecord at layer position
// index, resolving the type name and maintaining the tag table.
func (c *Compiler) layerInfo(key, value string, topNode int32, index int) (LayerRecord, error) {
	in, out, err := parseEdgeKey(key, topNode)
	if err != nil {
		return LayerRecord{}, err
	}
	name, tag, err := parseEdgeValue(value)
	if err != nil {
		return LayerRecord{}, err
	}
	kind, err := c.resolver.Resolve(name)
	if err != nil {
		return LayerRecord{}, fmt.Errorf("%w: layer %q: %v", ErrMalformed, key, err)
	}
	rec := LayerRecord{
		Kind:    kind,
		Primary: NoPrimary,
		In:      []int32{in},
		Out:     []int32{out},
	}
	if kind.IsShared() {
		if tag == "" {
			return LayerRecord{}, fmt.Errorf("%w: shared layer %q must name the tag of the layer to share with", ErrMalformed, key)
		}
		primary, err := c.Overlay.tags.resolve(tag)
		if err != nil {
			return LayerRecord{}, err
		}
		rec.Primary = int32(primary)
	} else if tag != "" {
		// Tags are optional on non-shared layers; an untagged layer simply
		// cannot be shared from.
		if err := c.Overlay.tags.define(tag, index); err != nil {
			return LayerRecord{}, err
		}
	}
	return rec, nil
}
