// Package nn turns a genome's connection list into a runnable feed-forward
// network. Nodes are addressed by dense integer index: inputs first, then the
// bias node, then the outputs, then any hidden nodes.
package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrCycle reports that the enabled connections do not form a DAG.
	ErrCycle = errors.New("network contains a cycle")
	// ErrInputSize reports an Activate call with the wrong number of inputs.
	ErrInputSize = errors.New("input size mismatch")
)

// Edge is one enabled, weighted connection between two node indices.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// FeedForwardNetwork is the phenotype of a genome. It is immutable once built
// and safe to Activate repeatedly; every call starts from a fresh value table.
type FeedForwardNetwork struct {
	NumInputs     int
	NumOutputs    int
	NodeCount     int
	NodeEvalOrder []int    // Topologically sorted non-input node indices
	incoming      [][]Edge // node index -> enabled incoming edges
}

// CreateFeedForwardNetwork builds a network from the given enabled edges.
// The evaluation order is computed with a stabilized topological sort, so a
// cyclic edge set is rejected here rather than at activation time.
func CreateFeedForwardNetwork(numInputs, numOutputs, nodeCount int, edges []Edge) (*FeedForwardNetwork, error) {
	if numInputs < 0 || numOutputs <= 0 {
		return nil, fmt.Errorf("invalid network shape: %d inputs, %d outputs", numInputs, numOutputs)
	}
	if nodeCount < numInputs+1+numOutputs {
		return nil, fmt.Errorf("node count %d too small for %d inputs and %d outputs", nodeCount, numInputs, numOutputs)
	}

	g := simple.NewDirectedGraph()
	for i := 0; i < nodeCount; i++ {
		g.AddNode(simple.Node(i))
	}

	incoming := make([][]Edge, nodeCount)
	for _, e := range edges {
		if e.From < 0 || e.From >= nodeCount || e.To < 0 || e.To >= nodeCount {
			return nil, fmt.Errorf("edge %d->%d outside of %d nodes", e.From, e.To, nodeCount)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("%w: self loop on node %d", ErrCycle, e.From)
		}
		g.SetEdge(g.NewEdge(simple.Node(e.From), simple.Node(e.To)))
		incoming[e.To] = append(incoming[e.To], e)
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, fmt.Errorf("%w: %d strongly connected component(s)", ErrCycle, len(cycles))
		}
		return nil, fmt.Errorf("failed topological sort: %w", err)
	}

	// Inputs and the bias node never read their incoming edges.
	order := make([]int, 0, nodeCount-numInputs-1)
	for _, n := range sorted {
		idx := int(n.ID())
		if idx > numInputs {
			order = append(order, idx)
		}
	}

	return &FeedForwardNetwork{
		NumInputs:     numInputs,
		NumOutputs:    numOutputs,
		NodeCount:     nodeCount,
		NodeEvalOrder: order,
		incoming:      incoming,
	}, nil
}

// Activate computes the network's output for a given slice of input values.
// The input slice must match the number of input nodes.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.NumInputs {
		return nil, fmt.Errorf("%w: got %d values for %d input nodes", ErrInputSize, len(inputs), net.NumInputs)
	}

	values := make([]float64, net.NodeCount)
	copy(values, inputs)
	values[net.NumInputs] = 1.0 // bias

	for _, node := range net.NodeEvalOrder {
		sum := 0.0
		for _, e := range net.incoming[node] {
			sum += values[e.From] * e.Weight
		}
		values[node] = Sigmoid(sum)
	}

	outputs := make([]float64, net.NumOutputs)
	copy(outputs, values[net.NumInputs+1:net.NumInputs+1+net.NumOutputs])
	return outputs, nil
}
