// Package layer defines the vocabulary of layer kinds understood by the
// network configuration compiler and resolves type names to kinds.
package layer

import "fmt"

// Kind identifies a layer type. The numeric values are written into saved
// model structures and must never be renumbered.
type Kind int32

const (
	FullConnect     Kind = 0
	Softmax         Kind = 1
	RectifiedLinear Kind = 2
	Sigmoid         Kind = 3
	Tanh            Kind = 4
	Softplus        Kind = 5
	Flatten         Kind = 6
	Dropout         Kind = 7
	DropConn        Kind = 8
	Conv            Kind = 9
	MaxPooling      Kind = 10
	SumPooling      Kind = 11
	AvgPooling      Kind = 12
	LRN             Kind = 13
	Bias            Kind = 14
	// Shared marks a layer that reuses the parameters of a previously
	// declared primary layer instead of owning its own.
	Shared Kind = 15
)

var kindByName = map[string]Kind{
	"fullc":       FullConnect,
	"softmax":     Softmax,
	"relu":        RectifiedLinear,
	"sigmoid":     Sigmoid,
	"tanh":        Tanh,
	"softplus":    Softplus,
	"flatten":     Flatten,
	"dropout":     Dropout,
	"dropconn":    DropConn,
	"conv":        Conv,
	"max_pooling": MaxPooling,
	"sum_pooling": SumPooling,
	"avg_pooling": AvgPooling,
	"lrn":         LRN,
	"bias":        Bias,
	"share":       Shared,
}

var nameByKind = func() map[Kind]string {
	m := make(map[Kind]string, len(kindByName))
	for name, k := range kindByName {
		m[k] = name
	}
	return m
}()

// Resolve maps a layer-type name to its kind.
func Resolve(name string) (Kind, error) {
	k, ok := kindByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown layer type %q", name)
	}
	return k, nil
}

// IsShared reports whether the kind denotes a parameter-sharing layer.
func (k Kind) IsShared() bool { return k == Shared }

func (k Kind) String() string {
	if name, ok := nameByKind[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int32(k))
}
