package neat

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/baldhumanity/neatgen/neat/nn"
)

const (
	// maxLinkAttempts bounds the search for a valid new connection.
	maxLinkAttempts = 20
	// maxDisableAttempts bounds the search for an enabled link to disable.
	maxDisableAttempts = 12
)

// Genome represents an individual organism in the population.
//
// Node indices are partitioned: [0, NumInputs) are inputs, NumInputs is the
// bias node, the next NumOutputs are outputs and the rest are hidden nodes.
// Links are kept sorted by ascending innovation number, which crossover and
// the compatibility distance rely on.
type Genome struct {
	NumInputs  int
	NumOutputs int
	Nodes      []Node
	Links      []Link
	Fitness    float64 // Set by the driver after evaluation.
	InSpecies  bool    // Set while a generation is being speciated.

	ledger *Ledger
}

// NewGenome creates a minimal genome: every input and the bias node connected
// to every output, with weights from conf.InitWeight.
func NewGenome(inputs, outputs int, ledger *Ledger, since int, conf Conf, rng Rand) *Genome {
	g := &Genome{
		NumInputs:  inputs,
		NumOutputs: outputs,
		Nodes:      make([]Node, 0, inputs+1+outputs),
		Links:      make([]Link, 0, (inputs+1)*outputs),
		ledger:     ledger,
	}
	for i := 0; i < inputs+1+outputs; i++ {
		g.Nodes = append(g.Nodes, Node{Index: i})
	}
	for out := inputs + 1; out < inputs+1+outputs; out++ {
		for in := 0; in <= inputs; in++ {
			// Inputs to outputs only, so these cannot fail.
			if err := g.AddLink(since, conf.InitWeight(rng), in, out); err != nil {
				panic(fmt.Sprintf("initial link %d->%d: %v", in, out, err))
			}
		}
	}
	return g
}

// Clone returns a deep copy sharing the same ledger.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		NumInputs:  g.NumInputs,
		NumOutputs: g.NumOutputs,
		Nodes:      make([]Node, len(g.Nodes)),
		Links:      append([]Link(nil), g.Links...),
		Fitness:    g.Fitness,
		InSpecies:  g.InSpecies,
		ledger:     g.ledger,
	}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.clone()
	}
	return c
}

// String returns a short summary of the genome.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Nodes: %d, Links: %d/%d enabled, Fitness: %.4f)",
		len(g.Nodes), g.EnabledLinksCount(), len(g.Links), g.Fitness)
}

// LinksCount returns the number of links, enabled or not.
func (g *Genome) LinksCount() int { return len(g.Links) }

// EnabledLinksCount returns the number of links taking part in evaluation.
func (g *Genome) EnabledLinksCount() int {
	n := 0
	for _, l := range g.Links {
		if l.Enabled {
			n++
		}
	}
	return n
}

// HiddenNodesCount returns the number of nodes added by node mutations.
func (g *Genome) HiddenNodesCount() int {
	return len(g.Nodes) - g.NumInputs - 1 - g.NumOutputs
}

func (g *Genome) isInput(i int) bool  { return i < g.NumInputs }
func (g *Genome) isBias(i int) bool   { return i == g.NumInputs }
func (g *Genome) isOutput(i int) bool { return i > g.NumInputs && i <= g.NumInputs+g.NumOutputs }

// Endpoints returns the nodes connected by the link at index i.
func (g *Genome) Endpoints(i int) (from, to int) {
	return g.ledger.endpoints(g.Links[i].Innovation)
}

// LinkIndex returns the local index of the link carrying the innovation.
func (g *Genome) LinkIndex(innovation int) (int, error) {
	i := sort.Search(len(g.Links), func(i int) bool { return g.Links[i].Innovation >= innovation })
	if i == len(g.Links) || g.Links[i].Innovation != innovation {
		return -1, fmt.Errorf("%w: innovation %d", ErrLinkNotFound, innovation)
	}
	return i, nil
}

// findLink returns the local index of the link from -> to, if any.
func (g *Genome) findLink(from, to int) (int, bool) {
	for _, i := range g.Nodes[to].Incoming {
		if src, _ := g.Endpoints(i); src == from {
			return i, true
		}
	}
	return -1, false
}

// AddLink adds an enabled link from -> to. The innovation number comes from
// the ledger window starting at since. The link is inserted at its sorted
// position; reused innovation numbers may be lower than ones already present.
func (g *Genome) AddLink(since int, weight float64, from, to int) error {
	if from < 0 || from >= len(g.Nodes) || to < 0 || to >= len(g.Nodes) {
		return fmt.Errorf("link %d->%d outside of %d nodes", from, to, len(g.Nodes))
	}
	if from == to {
		return fmt.Errorf("%w: self loop on node %d", ErrCycle, from)
	}

	innov := g.ledger.Innovation(from, to, since)
	pos := sort.Search(len(g.Links), func(i int) bool { return g.Links[i].Innovation >= innov })
	if pos < len(g.Links) && g.Links[pos].Innovation == innov {
		return fmt.Errorf("duplicate link %d->%d (innovation %d)", from, to, innov)
	}

	g.Links = append(g.Links, Link{})
	copy(g.Links[pos+1:], g.Links[pos:])
	g.Links[pos] = Link{Innovation: innov, Weight: weight, Enabled: true}

	for n := range g.Nodes {
		for k, li := range g.Nodes[n].Incoming {
			if li >= pos {
				g.Nodes[n].Incoming[k] = li + 1
			}
		}
	}
	in := g.Nodes[to].Incoming
	k := sort.SearchInts(in, pos)
	in = append(in, 0)
	copy(in[k+1:], in[k:])
	in[k] = pos
	g.Nodes[to].Incoming = in
	return nil
}

// CreatesCycle reports whether adding from -> to would close a cycle, i.e.
// whether from is reachable from to. Disabled links count as edges because
// crossover and link mutation may re-enable them later.
func (g *Genome) CreatesCycle(from, to int) bool {
	if from == to {
		return true
	}
	dg := simple.NewDirectedGraph()
	for i := range g.Nodes {
		dg.AddNode(simple.Node(i))
	}
	for i := range g.Links {
		src, dst := g.Endpoints(i)
		dg.SetEdge(dg.NewEdge(simple.Node(src), simple.Node(dst)))
	}
	return topo.PathExistsIn(dg, simple.Node(to), simple.Node(from))
}

// MutateLink tries to connect a random source (input, bias or hidden) to a
// random destination (output or hidden). A pair that would close a cycle is
// reversed; a pair that is still invalid is redrawn. An existing disabled
// link between the pair is re-enabled with a fresh weight instead of adding
// a duplicate gene.
func (g *Genome) MutateLink(since int, conf Conf, rng Rand) error {
	sources := make([]int, 0, len(g.Nodes))
	targets := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if !g.isOutput(i) {
			sources = append(sources, i)
		}
		if !g.isInput(i) && !g.isBias(i) {
			targets = append(targets, i)
		}
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		from := sources[rng.IntN(len(sources))]
		to := targets[rng.IntN(len(targets))]
		if from == to {
			continue
		}
		if g.CreatesCycle(from, to) {
			from, to = to, from
			if g.isInput(to) || g.isBias(to) || g.CreatesCycle(from, to) {
				continue
			}
		}

		if i, ok := g.findLink(from, to); ok {
			if g.Links[i].Enabled {
				continue
			}
			g.Links[i].Enabled = true
			g.Links[i].Weight = conf.InitWeight(rng)
			return nil
		}
		return g.AddLink(since, conf.InitWeight(rng), from, to)
	}
	// Densely connected genomes may have no free pair left.
	return nil
}

// MutateNode splits a random link with a new hidden node. The incoming half
// gets weight 1 and the outgoing half the old weight, so the network computes
// nearly the same function. The split link is disabled.
func (g *Genome) MutateNode(since int, rng Rand) error {
	if len(g.Links) == 0 {
		return nil
	}
	split := rng.IntN(len(g.Links))
	from, to := g.Endpoints(split)
	weight := g.Links[split].Weight
	g.Links[split].Enabled = false

	hidden := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{Index: hidden})
	if err := g.AddLink(since, 1.0, from, hidden); err != nil {
		return fmt.Errorf("split link %d->%d: %w", from, to, err)
	}
	if err := g.AddLink(since, weight, hidden, to); err != nil {
		return fmt.Errorf("split link %d->%d: %w", from, to, err)
	}
	return nil
}

// MutateWeights rerolls each enabled weight with probability
// conf.CompleteWeightOverrideProb and perturbs it otherwise.
func (g *Genome) MutateWeights(conf Conf, rng Rand) {
	for i := range g.Links {
		l := &g.Links[i]
		if !l.Enabled {
			continue
		}
		if rng.Float64() < conf.CompleteWeightOverrideProb() {
			l.Weight = conf.InitWeight(rng)
		} else {
			l.Weight = conf.MutateWeight(l.Weight, rng)
		}
	}
}

// mutateDisable disables one enabled link, probing at most
// min(len(Links)-1, 12) distinct random links. A genome whose probed links
// are all disabled is left unchanged.
func (g *Genome) mutateDisable(rng Rand) {
	tries := min(len(g.Links)-1, maxDisableAttempts)
	if tries <= 0 {
		return
	}
	order := make([]int, len(g.Links))
	for i := range order {
		order[i] = i
	}
	for t := 0; t < tries; t++ {
		j := t + rng.IntN(len(order)-t)
		order[t], order[j] = order[j], order[t]
		if l := &g.Links[order[t]]; l.Enabled {
			l.Enabled = false
			return
		}
	}
}

// Mutate applies, independently and in order, link addition, node addition,
// weight mutation and link disabling, each gated by its probability.
func (g *Genome) Mutate(since int, conf Conf, rng Rand) error {
	if rng.Float64() < conf.LinkAddProb() {
		if err := g.MutateLink(since, conf, rng); err != nil {
			return fmt.Errorf("link mutation: %w", err)
		}
	}
	if rng.Float64() < conf.NodeAddProb() {
		if err := g.MutateNode(since, rng); err != nil {
			return fmt.Errorf("node mutation: %w", err)
		}
	}
	if rng.Float64() < conf.WeightMutationProb() {
		g.MutateWeights(conf, rng)
	}
	if rng.Float64() < conf.LinkDisableProb() {
		g.mutateDisable(rng)
	}
	return nil
}

// Crossover creates a child with g's topology. Links matching other's by
// innovation take other's weight with probability 0.5, and when exactly one
// parent has the link enabled the child enables it with probability
// conf.LinkEnablingProb. Links only other carries are not inherited.
func (g *Genome) Crossover(other *Genome, conf Conf, rng Rand) *Genome {
	child := g.Clone()
	j := 0
	for i, l := range g.Links {
		for j < len(other.Links) && other.Links[j].Innovation < l.Innovation {
			j++
		}
		if j == len(other.Links) {
			break
		}
		l2 := other.Links[j]
		if l.Innovation != l2.Innovation {
			continue
		}
		if rng.Float64() < 0.5 {
			child.Links[i].Weight = l2.Weight
		}
		if l.Enabled != l2.Enabled {
			child.Links[i].Enabled = rng.Float64() < conf.LinkEnablingProb()
		}
	}
	return child
}

// Distance calculates the compatibility distance between this genome and
// another with a merge walk over both innovation-sorted link lists. Genes
// unmatched inside the overlapping range are disjoint, the rest are excess.
// With no matching genes the weight term contributes nothing.
func (g *Genome) Distance(other *Genome, conf Conf) float64 {
	disjoint, matching := 0, 0
	weightDiffSum := 0.0

	i, j := 0, 0
	for i < len(g.Links) && j < len(other.Links) {
		a, b := g.Links[i], other.Links[j]
		switch {
		case a.Innovation < b.Innovation:
			disjoint++
			i++
		case b.Innovation < a.Innovation:
			disjoint++
			j++
		default:
			matching++
			d := a.Weight - b.Weight
			if d < 0 {
				d = -d
			}
			weightDiffSum += d
			i++
			j++
		}
	}
	excess := len(g.Links) - i + len(other.Links) - j

	norm := conf.SizeNorm(len(g.Links), len(other.Links))
	if norm <= 0 {
		norm = 1.0
	}
	compatibility := (conf.ExcessCoef()*float64(excess) + conf.DisjointCoef()*float64(disjoint)) / norm
	if matching > 0 {
		compatibility += conf.WeightDiffCoef() * weightDiffSum / float64(matching)
	}
	return compatibility
}

// Compile builds the phenotype from the enabled links.
func (g *Genome) Compile() (*nn.FeedForwardNetwork, error) {
	edges := make([]nn.Edge, 0, len(g.Links))
	for i, l := range g.Links {
		if !l.Enabled {
			continue
		}
		from, to := g.Endpoints(i)
		edges = append(edges, nn.Edge{From: from, To: to, Weight: l.Weight})
	}
	return nn.CreateFeedForwardNetwork(g.NumInputs, g.NumOutputs, len(g.Nodes), edges)
}

// Evaluate computes the outputs for one input vector. Each call compiles the
// network afresh; use Compile to evaluate the same genome many times.
func (g *Genome) Evaluate(inputs []float64) ([]float64, error) {
	net, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return net.Activate(inputs)
}
