package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// NumericalGradients estimates ∂L/∂param of one pattern with central
// differences. nn is left untouched.
func (nn *NeuralNetwork) NumericalGradients(p Pattern) *Gradients {
	probe := nn.Clone()
	loss := func(x []float64) float64 {
		probe.SetParameters(x)
		return probe.Loss(p)
	}
	grad := fd.Gradient(nil, loss, nn.Parameters(), &fd.Settings{
		Formula: fd.Central,
		Step:    1e-6,
	})

	g := nn.NewGradients()
	rest := setFlat(grad, g.Hidden.Theta, g.Hidden.Lambda, g.Hidden.Delta)
	setFlat(rest, g.Output.Theta, g.Output.Lambda, g.Output.Delta)
	return g
}

// AnalyticGradients returns the backpropagated gradients of one pattern
// without touching the network accumulators.
func (nn *NeuralNetwork) AnalyticGradients(p Pattern) *Gradients {
	g := nn.NewGradients()
	nn.AccumulateGradients(nn.Trace(p.Input), p.Target, g)
	return g
}

// CheckGradients returns the largest absolute difference between the
// analytic and the numerical gradients of one pattern.
func (nn *NeuralNetwork) CheckGradients(p Pattern) float64 {
	a := nn.AnalyticGradients(p).Flat()
	n := nn.NumericalGradients(p).Flat()
	return floats.Distance(a, n, math.Inf(1))
}
