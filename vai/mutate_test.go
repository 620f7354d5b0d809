package vai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changedLayers(a, b []Matrix) []int {
	var changed []int
	for i := range a {
		if !a[i].Equal(b[i]) {
			changed = append(changed, i)
		}
	}
	return changed
}

func TestCreateVariantLeavesSourceUntouched(t *testing.T) {
	net := NewFixedDeterministic[deepShape](5).CreateVariant(10)
	before := net.Layers()
	variant := net.CreateVariant(10)
	assert.True(t, layersEqual(before, net.Layers()))
	assert.Len(t, changedLayers(before, variant.Layers()), 4)
}

func TestCreateVariantZeroIntensity(t *testing.T) {
	net := NewDynamicDeterministic(2, 3, 5, 5, 2).CreateVariant(30)
	same := net.CreateVariant(0)
	require.True(t, layersEqual(net.Layers(), same.Layers()))

	for _, input := range [][]float32{{1, 2, 3}, {-1, 0, 0.5}, {100, -50, 7}} {
		want, err := net.Process(input)
		require.NoError(t, err)
		got, err := same.Process(input)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-6)
	}
}

func TestMutationIsSeedDeterministic(t *testing.T) {
	a := NewFixedDeterministic[deepShape](42)
	b := NewFixedDeterministic[deepShape](42)
	assert.True(t, layersEqual(a.CreateVariant(1).Layers(), b.CreateVariant(1).Layers()))
	assert.True(t, layersEqual(a.CreateLayerVariant(1).Layers(), b.CreateLayerVariant(1).Layers()))

	c := NewFixedDeterministic[deepShape](43)
	assert.False(t, layersEqual(a.CreateVariant(1).Layers(), c.CreateVariant(1).Layers()))
}

func TestRepeatedMutationNeverRepeatsNoise(t *testing.T) {
	net := NewDynamicDeterministic(3, 2, 4, 1)
	first := net.CreateVariant(1)
	second := net.CreateVariant(1)
	assert.Len(t, changedLayers(first.Layers(), second.Layers()), 2)
}

func TestCloneDivergesAfterMutation(t *testing.T) {
	source := NewDynamicDeterministic(3, 2, 4, 1)
	// The variant starts from the generator state source had before the draw,
	// so it replays the same noise once; source has moved on.
	variant := source.CreateVariant(1)
	replay := variant.CreateVariant(1)
	next := source.CreateVariant(1)

	delta := func(from, to []Matrix) []float32 {
		var out []float32
		for i := range from {
			for j := range from[i].data {
				out = append(out, to[i].data[j]-from[i].data[j])
			}
		}
		return out
	}
	zero := NewDynamicDeterministic(0, 2, 4, 1).Layers()
	assert.InDeltaSlice(t, delta(zero, variant.Layers()), delta(variant.Layers(), replay.Layers()), 1e-3)
	assert.NotEqual(t, delta(zero, variant.Layers()), delta(zero, next.Layers()))
}

func TestCreateLayerVariantTouchesOneMatrix(t *testing.T) {
	net := NewFixedDeterministic[deepShape](17)
	before := net.Layers()
	picked := make(map[int]int)
	for i := 0; i < 200; i++ {
		variant := net.CreateLayerVariant(1)
		changed := changedLayers(before, variant.Layers())
		require.Len(t, changed, 1, "iteration %d", i)
		picked[changed[0]]++
	}
	assert.True(t, layersEqual(before, net.Layers()))
	assert.Len(t, picked, 4, "every matrix should be chosen eventually: %v", picked)
}

func TestCreateLayerVariantScalesByMatrixSize(t *testing.T) {
	// A 1x1 matrix next to a 1x400 matrix: the small one moves much further per call.
	net := NewDynamicDeterministic(23, 400, 1, 1)
	var small, large, smallN, largeN float64
	for i := 0; i < 400; i++ {
		layers := net.CreateLayerVariant(1).Layers()
		if layers[1].data[0] != 0 {
			small += math.Abs(float64(layers[1].data[0]))
			smallN++
			continue
		}
		for _, v := range layers[0].data {
			large += math.Abs(float64(v))
		}
		largeN += float64(layers[0].Len())
	}
	require.NotZero(t, smallN)
	require.NotZero(t, largeN)
	assert.Greater(t, small/smallN, 20*large/largeN)
}

// aggregateDelta is the mean, over calls, of the summed absolute weight change
// of every matrix after the input-facing one.
func aggregateDelta(net *Dynamic, calls int, intensity float32) float64 {
	total := 0.0
	for i := 0; i < calls; i++ {
		for _, m := range net.CreateVariant(intensity).Layers()[1:] {
			for _, v := range m.data {
				total += math.Abs(float64(v))
			}
		}
	}
	return total / float64(calls)
}

func TestCreateVariantIsSizeIndependent(t *testing.T) {
	small := NewDynamicDeterministic(31, 3, 4, 4, 2)
	large := NewDynamicDeterministic(31, 3, 4, 64, 64, 2)
	require.Greater(t, large.ParamCount(), 100*small.ParamCount())

	smallDelta := aggregateDelta(small, 300, 2)
	largeDelta := aggregateDelta(large, 300, 2)
	ratio := largeDelta / smallDelta
	assert.Greater(t, ratio, 0.5, "small=%v large=%v", smallDelta, largeDelta)
	assert.Less(t, ratio, 2.0, "small=%v large=%v", smallDelta, largeDelta)
}

func TestCreateVariantMovesInputMatrixAtFullIntensity(t *testing.T) {
	net := NewDynamicDeterministic(8, 3, 64, 64, 2)
	var first, rest, firstN, restN float64
	for i := 0; i < 50; i++ {
		layers := net.CreateVariant(2).Layers()
		for _, v := range layers[0].data {
			first += math.Abs(float64(v))
			firstN++
		}
		for _, m := range layers[1:] {
			for _, v := range m.data {
				rest += math.Abs(float64(v))
				restN++
			}
		}
	}
	// |InfiniteMap| averages 0.5 over the unit interval.
	assert.InDelta(t, 1.0, first/firstN, 0.3)
	assert.Greater(t, first/firstN, 100*rest/restN)
}
