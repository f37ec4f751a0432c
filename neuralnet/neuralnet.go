package neuralnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
)

// Topology fixes the width of the input, hidden and output layers.
type Topology struct {
	InputSize  int
	HiddenSize int
	OutputSize int
}

// DefaultTopology is a 2-14-1 network.
func DefaultTopology() Topology {
	return Topology{InputSize: 2, HiddenSize: 14, OutputSize: 1}
}

func (t Topology) Validate() error {
	if t.InputSize <= 0 || t.HiddenSize <= 0 || t.OutputSize <= 0 {
		return errors.Errorf("invalid topology %d-%d-%d", t.InputSize, t.HiddenSize, t.OutputSize)
	}
	return nil
}

// Pattern is one input vector with its target vector.
type Pattern struct {
	Input  []float64
	Target []float64
}

// Result is the network output for one pattern.
type Result struct {
	Input  []float64
	Output []float64
	Target []float64
}

// Trace holds what one forward pass leaves behind for the backward pass.
type Trace struct {
	Phases   []float64 // input values scaled by the convergence coefficient
	HiddenRe []float64
	HiddenIm []float64
	Hidden   []float64 // hidden unit output phases
	OutputRe []float64
	OutputIm []float64
	Phase    []float64 // output unit phases before measurement
	Output   []float64 // sin^2 of Phase
}

// Gradients holds the accumulators of both layers.
type Gradients struct {
	Hidden *LayerGradients
	Output *LayerGradients
}

// Zero clears both layers.
func (g *Gradients) Zero() {
	g.Hidden.Zero()
	g.Output.Zero()
}

// Add sums other into g.
func (g *Gradients) Add(other *Gradients) {
	g.Hidden.Add(other.Hidden)
	g.Output.Add(other.Output)
}

// Flat returns every accumulator entry, hidden layer first.
func (g *Gradients) Flat() []float64 {
	dst := appendFlat(nil, g.Hidden.Theta, g.Hidden.Lambda, g.Hidden.Delta)
	return appendFlat(dst, g.Output.Theta, g.Output.Lambda, g.Output.Delta)
}

// NeuralNetwork is a two-layer network of phasor units.
type NeuralNetwork struct {
	Topology Topology
	Hidden   *PhaseLayer
	Output   *PhaseLayer

	coefficient float64
	measure     ActivationFunction
	loss        LossFunction

	grads *Gradients
	trace *Trace
}

// NewNeuralNetwork builds a network with every parameter drawn uniformly from
// [-pi, pi] by a generator seeded with params.Seed.
func NewNeuralNetwork(topology Topology, params Params) *NeuralNetwork {
	nn := newNetwork(topology, params.ConvergenceCoefficient)
	rng := rand.New(rand.NewSource(params.Seed))
	nn.Hidden.randomize(rng)
	nn.Output.randomize(rng)
	return nn
}

// NewZeroNetwork builds a network whose parameters are all zero.
func NewZeroNetwork(topology Topology, coefficient float64) *NeuralNetwork {
	return newNetwork(topology, coefficient)
}

func newNetwork(topology Topology, coefficient float64) *NeuralNetwork {
	nn := &NeuralNetwork{
		Topology:    topology,
		Hidden:      newPhaseLayer(topology.InputSize, topology.HiddenSize),
		Output:      newPhaseLayer(topology.HiddenSize, topology.OutputSize),
		coefficient: coefficient,
		measure:     SquaredSine{},
		loss:        HalfSquaredError{},
	}
	nn.grads = nn.NewGradients()
	return nn
}

// NewGradients returns zeroed accumulators shaped like the network.
func (nn *NeuralNetwork) NewGradients() *Gradients {
	t := nn.Topology
	return &Gradients{
		Hidden: newLayerGradients(t.InputSize, t.HiddenSize),
		Output: newLayerGradients(t.HiddenSize, t.OutputSize),
	}
}

// Gradients returns the accumulators filled by Backward.
func (nn *NeuralNetwork) Gradients() *Gradients {
	return nn.grads
}

// ResetGradients zeroes the accumulators. Call once per epoch.
func (nn *NeuralNetwork) ResetGradients() {
	nn.grads.Zero()
}

// Coefficient is the factor mapping an input value to a phase.
func (nn *NeuralNetwork) Coefficient() float64 {
	return nn.coefficient
}

// Forward evaluates one input vector and keeps its trace for Backward.
func (nn *NeuralNetwork) Forward(input []float64) []float64 {
	nn.trace = nn.Trace(input)
	out := make([]float64, len(nn.trace.Output))
	copy(out, nn.trace.Output)
	return out
}

// Backward accumulates the gradients of the pattern last passed to Forward.
func (nn *NeuralNetwork) Backward(target []float64) {
	if nn.trace == nil {
		panic("neuralnet: Backward called before Forward")
	}
	nn.AccumulateGradients(nn.trace, target, nn.grads)
}

// Trace evaluates one input vector without touching the network state, so
// it is safe to call from several goroutines between updates.
func (nn *NeuralNetwork) Trace(input []float64) *Trace {
	t := nn.Topology
	if len(input) != t.InputSize {
		panic(fmt.Sprintf("neuralnet: input has %d values, want %d", len(input), t.InputSize))
	}
	tr := &Trace{
		Phases:   make([]float64, t.InputSize),
		HiddenRe: make([]float64, t.HiddenSize),
		HiddenIm: make([]float64, t.HiddenSize),
		Hidden:   make([]float64, t.HiddenSize),
		OutputRe: make([]float64, t.OutputSize),
		OutputIm: make([]float64, t.OutputSize),
		Phase:    make([]float64, t.OutputSize),
		Output:   make([]float64, t.OutputSize),
	}
	for i, x := range input {
		tr.Phases[i] = nn.coefficient * x
	}
	nn.Hidden.forward(tr.Phases, tr.HiddenRe, tr.HiddenIm, tr.Hidden)
	nn.Output.forward(tr.Hidden, tr.OutputRe, tr.OutputIm, tr.Phase)
	for k, phase := range tr.Phase {
		tr.Output[k] = nn.measure.Activate(phase)
	}
	return tr
}

// AccumulateGradients adds ∂L/∂param of one traced pattern into g, with
// L = 0.5 * Σ (target - output)^2.
func (nn *NeuralNetwork) AccumulateGradients(tr *Trace, target []float64, g *Gradients) {
	upstream := nn.loss.Gradient(tr.Output, target)
	for k := range upstream {
		upstream[k] *= nn.measure.Derivative(tr.Phase[k])
	}
	hidden := make([]float64, nn.Topology.HiddenSize)
	nn.Output.backward(tr.Hidden, tr.OutputRe, tr.OutputIm, upstream, g.Output, hidden)
	nn.Hidden.backward(tr.Phases, tr.HiddenRe, tr.HiddenIm, hidden, g.Hidden, nil)
}

// Update applies one gradient descent step with the accumulated gradients.
func (nn *NeuralNetwork) Update(learningRate float64) {
	nn.Hidden.step(nn.grads.Hidden, learningRate)
	nn.Output.step(nn.grads.Output, learningRate)
}

// Loss returns the loss of one pattern under the current parameters.
func (nn *NeuralNetwork) Loss(p Pattern) float64 {
	return nn.loss.Compute(nn.Trace(p.Input).Output, p.Target)
}

// Evaluate runs forward passes only and pairs each output with its pattern.
func (nn *NeuralNetwork) Evaluate(patterns []Pattern) []Result {
	results := make([]Result, len(patterns))
	for i, p := range patterns {
		results[i] = Result{
			Input:  p.Input,
			Output: nn.Forward(p.Input),
			Target: p.Target,
		}
	}
	return results
}

// Clone returns a deep copy of the parameters with fresh accumulators.
func (nn *NeuralNetwork) Clone() *NeuralNetwork {
	c := &NeuralNetwork{
		Topology:    nn.Topology,
		Hidden:      nn.Hidden.clone(),
		Output:      nn.Output.clone(),
		coefficient: nn.coefficient,
		measure:     nn.measure,
		loss:        nn.loss,
	}
	c.grads = c.NewGradients()
	return c
}

// Parameters returns every parameter, hidden layer first, in the same order as Gradients.Flat.
func (nn *NeuralNetwork) Parameters() []float64 {
	dst := appendFlat(nil, nn.Hidden.Theta, nn.Hidden.Lambda, nn.Hidden.Delta)
	return appendFlat(dst, nn.Output.Theta, nn.Output.Lambda, nn.Output.Delta)
}

// SetParameters is the inverse of Parameters.
func (nn *NeuralNetwork) SetParameters(x []float64) {
	rest := setFlat(x, nn.Hidden.Theta, nn.Hidden.Lambda, nn.Hidden.Delta)
	setFlat(rest, nn.Output.Theta, nn.Output.Lambda, nn.Output.Delta)
}

// Finite reports whether every parameter is a finite number.
func (nn *NeuralNetwork) Finite() bool {
	for _, p := range nn.Parameters() {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}

// Define the String() method for the NeuralNetwork type
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Hidden layer %d-%d:\n%s\n", nn.Topology.InputSize, nn.Topology.HiddenSize, nn.Hidden.String()))
	sb.WriteString(fmt.Sprintf("Output layer %d-%d:\n%s", nn.Topology.HiddenSize, nn.Topology.OutputSize, nn.Output.String()))
	return sb.String()
}
