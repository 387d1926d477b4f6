package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1/(1+math.Exp(-SigmoidSlope)), Sigmoid(1), 1e-12)
	assert.Greater(t, Sigmoid(10), 0.999)
	assert.Less(t, Sigmoid(-10), 0.001)
}

func TestActivateDirectConnections(t *testing.T) {
	// input 0, bias 1, output 2
	net, err := CreateFeedForwardNetwork(1, 1, 3, []Edge{
		{From: 0, To: 2, Weight: 1.0},
		{From: 1, To: 2, Weight: -0.5},
	})
	require.NoError(t, err)

	out, err := net.Activate([]float64{0})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(-0.5), out[0], 1e-12)

	out, err = net.Activate([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(0.5), out[0], 1e-12)
}

func TestActivateHiddenChain(t *testing.T) {
	// inputs 0,1; bias 2; output 3; hidden 4 and 5 chained in front of the output.
	edges := []Edge{
		{From: 5, To: 3, Weight: 2.0},
		{From: 4, To: 5, Weight: 1.0},
		{From: 0, To: 4, Weight: 1.0},
		{From: 1, To: 4, Weight: -1.0},
	}
	net, err := CreateFeedForwardNetwork(2, 1, 6, edges)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{3, 4, 5}, net.NodeEvalOrder)

	h4 := Sigmoid(0.3 - 0.7)
	h5 := Sigmoid(h4)
	want := Sigmoid(2 * h5)

	out, err := net.Activate([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, want, out[0], 1e-12)
}

func TestUnconnectedOutputIsHalf(t *testing.T) {
	net, err := CreateFeedForwardNetwork(2, 2, 5, []Edge{{From: 0, To: 3, Weight: 1}})
	require.NoError(t, err)

	out, err := net.Activate([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, Sigmoid(1), out[0], 1e-12)
	assert.Equal(t, 0.5, out[1])
}

func TestActivateIsRepeatable(t *testing.T) {
	net, err := CreateFeedForwardNetwork(2, 1, 5, []Edge{
		{From: 0, To: 4, Weight: 0.7},
		{From: 4, To: 3, Weight: -1.3},
		{From: 2, To: 3, Weight: 0.2},
	})
	require.NoError(t, err)

	first, err := net.Activate([]float64{0.25, 0.5})
	require.NoError(t, err)
	second, err := net.Activate([]float64{0.25, 0.5})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateRejectsCycles(t *testing.T) {
	_, err := CreateFeedForwardNetwork(1, 1, 5, []Edge{
		{From: 3, To: 4, Weight: 1},
		{From: 4, To: 3, Weight: 1},
		{From: 3, To: 2, Weight: 1},
	})
	assert.ErrorIs(t, err, ErrCycle)

	_, err = CreateFeedForwardNetwork(1, 1, 3, []Edge{{From: 2, To: 2, Weight: 1}})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestCreateRejectsBadShapes(t *testing.T) {
	_, err := CreateFeedForwardNetwork(2, 0, 3, nil)
	assert.Error(t, err)

	_, err = CreateFeedForwardNetwork(2, 1, 3, nil)
	assert.Error(t, err)

	_, err = CreateFeedForwardNetwork(1, 1, 3, []Edge{{From: 0, To: 7, Weight: 1}})
	assert.Error(t, err)
}

func TestActivateInputSize(t *testing.T) {
	net, err := CreateFeedForwardNetwork(2, 1, 4, nil)
	require.NoError(t, err)

	_, err = net.Activate([]float64{1})
	assert.ErrorIs(t, err, ErrInputSize)
}
