package nnet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taposh/cxxnet/layer"
)

func d(key, value string) Directive { return Directive{Key: key, Value: value} }

// mlpDirectives is a small but complete configuration exercising defaults,
// the netconfig block, per-layer settings and in-place activations.
func mlpDirectives() []Directive {
	return []Directive{
		d("input_shape", "1,1,784"),
		d("batch_size", "100"),
		d("updater", "adam"),
		d("netconfig", "start"),
		d("layer[0->1]", "fullc:fc1"),
		d("nhidden", "128"),
		d("layer[1->1]", "relu"),
		d("layer[1->2]", "fullc"),
		d("nhidden", "10"),
		d("layer[2->2]", "softmax"),
		d("netconfig", "end"),
	}
}

func TestConfigureBuildsStructure(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	require.True(t, nc.Graph.Param.Finalized())
	assert.Equal(t, int32(4), nc.Graph.Param.NumLayers)
	assert.Equal(t, int32(3), nc.Graph.Param.NumNodes)
	assert.Equal(t, [3]uint32{1, 1, 784}, nc.Graph.Param.InputShape)
	require.Len(t, nc.Graph.Layers, 4)

	assert.Equal(t, LayerRecord{Kind: layer.FullConnect, Primary: NoPrimary, In: []int32{0}, Out: []int32{1}}, nc.Graph.Layers[0])
	assert.Equal(t, LayerRecord{Kind: layer.RectifiedLinear, Primary: NoPrimary, In: []int32{1}, Out: []int32{1}}, nc.Graph.Layers[1])
	assert.Equal(t, LayerRecord{Kind: layer.FullConnect, Primary: NoPrimary, In: []int32{1}, Out: []int32{2}}, nc.Graph.Layers[2])
	assert.Equal(t, LayerRecord{Kind: layer.Softmax, Primary: NoPrimary, In: []int32{2}, Out: []int32{2}}, nc.Graph.Layers[3])
}

func TestConfigureRoutesSettings(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	assert.Equal(t, "adam", nc.Overlay.UpdaterType)
	assert.Equal(t, []Directive{d("batch_size", "100")}, nc.Overlay.Defaults)
	require.Len(t, nc.Overlay.PerLayer, 4)
	assert.Equal(t, []Directive{d("nhidden", "128")}, nc.Overlay.PerLayer[0])
	assert.Empty(t, nc.Overlay.PerLayer[1])
	assert.Equal(t, []Directive{d("nhidden", "10")}, nc.Overlay.PerLayer[2])
	assert.Empty(t, nc.Overlay.PerLayer[3])
}

func TestUpdaterDefault(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{d("layer[0->1]", "fullc")}))
	assert.Equal(t, DefaultUpdater, nc.Overlay.UpdaterType)
}

func TestSettingsBeforeNetBlockAreDefaults(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{
		d("eta", "0.1"),
		d("netconfig", "start"),
		d("momentum", "0.9"), // inside the block but before any layer
		d("layer[0->1]", "fullc"),
	}))
	assert.Equal(t, []Directive{d("eta", "0.1"), d("momentum", "0.9")}, nc.Overlay.Defaults)
}

func TestRelativeAddressing(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{
		d("layer[0->2]", "fullc"),
		d("layer[+1]", "fullc"), // top node is 2, so 2->3
		d("layer[+0]", "relu"),  // in-place on node 3
	}))
	assert.Equal(t, []int32{2}, nc.Graph.Layers[1].In)
	assert.Equal(t, []int32{3}, nc.Graph.Layers[1].Out)
	assert.Equal(t, []int32{3}, nc.Graph.Layers[2].In)
	assert.Equal(t, []int32{3}, nc.Graph.Layers[2].Out)
	assert.Equal(t, int32(4), nc.Graph.Param.NumNodes)
}

func TestNodeCountDerivation(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{
		d("layer[0->1]", "conv"),
		d("layer[1->2]", "relu"),
	}))
	assert.Equal(t, int32(3), nc.Graph.Param.NumNodes)
}

func TestSharedLayerResolvesTag(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{
		d("layer[0->1]", "fullc:enc"),
		d("layer[1->2]", "relu"),
		d("layer[2->3]", "share:enc"),
	}))
	assert.Equal(t, int32(0), nc.Graph.Layers[2].Primary)
	assert.Equal(t, layer.Shared, nc.Graph.Layers[2].Kind)
	assert.Equal(t, NoPrimary, nc.Graph.Layers[0].Primary)
}

func TestSharedLayerForwardReference(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{
		d("layer[0->1]", "share:later"),
		d("layer[1->2]", "fullc:later"),
	})
	require.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "later")
}

func TestSharedLayerMissingTag(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{d("layer[0->1]", "share")})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDuplicateTag(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{
		d("layer[0->1]", "fullc:w"),
		d("layer[1->2]", "fullc:w"),
	})
	require.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "already defined")
}

func TestUntaggedLayersDoNotCollide(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure([]Directive{
		d("layer[0->1]", "fullc"),
		d("layer[1->2]", "fullc"),
	}))
}

func TestSharedLayerRejectsSettings(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{
		d("layer[0->1]", "fullc:w"),
		d("layer[1->2]", "share:w"),
		d("nhidden", "64"),
	})
	require.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "primary")
}

func TestUnknownLayerType(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{d("layer[0->1]", "deconv")})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestMalformedEdgeKeyIsFatal(t *testing.T) {
	nc := New()
	// A key starting with "layer[" must parse as an edge, never fall back
	// to being a plain setting.
	err := nc.Configure([]Directive{d("layer[0=>1]", "fullc")})
	require.ErrorIs(t, err, ErrMalformed)
	assert.Empty(t, nc.Overlay.Defaults)
}

func TestBadNetconfigValue(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{d("netconfig", "begin")})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestMalformedInputShape(t *testing.T) {
	nc := New()
	err := nc.Configure([]Directive{d("input_shape", "1,28")})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestSequentialAppendInvariant(t *testing.T) {
	nc := New()
	const n = 5
	var ds []Directive
	for i := 0; i < n; i++ {
		ds = append(ds, d(fmt.Sprintf("layer[%d->%d]", i, i+1), "fullc"))
	}
	require.NoError(t, nc.Configure(ds))
	require.Len(t, nc.Graph.Layers, n)
	for i, l := range nc.Graph.Layers {
		assert.Equal(t, NoPrimary, l.Primary, "layer %d", i)
	}
	assert.Equal(t, int32(n+1), nc.Graph.Param.NumNodes)
}

func TestReconfigureReplaysStructure(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	// Same structure again, different training settings.
	ds := mlpDirectives()
	ds[2] = d("updater", "sgd")
	require.NoError(t, nc.Configure(ds))
	assert.Equal(t, "sgd", nc.Overlay.UpdaterType)
	assert.Equal(t, int32(4), nc.Graph.Param.NumLayers)
}

func TestReplayMismatchEdge(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	ds := mlpDirectives()
	ds[4] = d("layer[0->2]", "fullc:fc1") // first edge differs
	err := nc.Configure(ds)
	require.ErrorIs(t, err, ErrMismatch)
}

func TestReplayMismatchKind(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	ds := mlpDirectives()
	ds[6] = d("layer[1->1]", "sigmoid")
	require.ErrorIs(t, nc.Configure(ds), ErrMismatch)
}

func TestReplayExtraLayer(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	ds := append(mlpDirectives(), d("layer[2->3]", "fullc"))
	err := nc.Configure(ds)
	require.ErrorIs(t, err, ErrMismatch)
	assert.ErrorContains(t, err, "fixed at 4 layers")
}

func TestInputShapeIgnoredOnceFinalized(t *testing.T) {
	nc := New()
	require.NoError(t, nc.Configure(mlpDirectives()))

	ds := mlpDirectives()
	ds[0] = d("input_shape", "3,32,32")
	require.NoError(t, nc.Configure(ds))
	assert.Equal(t, [3]uint32{1, 1, 784}, nc.Graph.Param.InputShape)
}

func TestCustomResolver(t *testing.T) {
	calls := 0
	r := ResolverFunc(func(name string) (layer.Kind, error) {
		calls++
		if name != "mystery" {
			return 0, fmt.Errorf("unknown layer type %q", name)
		}
		return layer.Kind(42), nil
	})
	nc := NewWithResolver(r)
	require.NoError(t, nc.Configure([]Directive{d("layer[0->1]", "mystery")}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, layer.Kind(42), nc.Graph.Layers[0].Kind)
}
