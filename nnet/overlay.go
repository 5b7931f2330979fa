package nnet

import "fmt"

// Directive is one ordered (key, value) configuration pair. The surrounding
// system may source directives from any textual format; Configure only cares
// about their order and the grammar of the keys and values.
type Directive struct {
	Key   string
	Value string
}

// Overlay holds the training-time configuration that accompanies a Graph
// but is never persisted with it. Configure rebuilds it on every call; the
// structure's lifecycle is independent.
type Overlay struct {
	// UpdaterType names the parameter update rule.
	UpdaterType string
	// Defaults are settings not attached to any particular layer.
	Defaults []Directive
	// PerLayer holds the extra settings of each layer, by layer index.
	PerLayer [][]Directive

	tags tagTable
}

// DefaultUpdater is the updater used when the configuration names none.
const DefaultUpdater = "sgd"

// reset clears the per-call state: the settings bags and the tag table.
// UpdaterType keeps its last value so a replayed configuration without an
// updater directive does not lose it.
func (o *Overlay) reset(numLayers int) {
	o.Defaults = o.Defaults[:0]
	if len(o.PerLayer) < numLayers {
		o.PerLayer = make([][]Directive, numLayers)
	}
	for i := range o.PerLayer {
		o.PerLayer[i] = o.PerLayer[i][:0]
	}
	o.tags = tagTable{}
}

// tagTable maps symbolic layer tags to layer indices. A single linear scan
// of the configuration inserts and resolves in textual order, so a tag must
// be defined before any shared layer references it; later directives can
// never retroactively validate earlier ones.
type tagTable map[string]int

func (t tagTable) define(tag string, index int) error {
	if _, dup := t[tag]; dup {
		return fmt.Errorf("%w: layer tag %q is already defined", ErrMalformed, tag)
	}
	t[tag] = index
	return nil
}

func (t tagTable) resolve(tag string) (int, error) {
	i, ok := t[tag]
	if !ok {
		return 0, fmt.Errorf("%w: shared layer tag %q is not defined before use", ErrMalformed, tag)
	}
	return i, nil
}
