package neuralnet

import "math"

type ActivationFunction interface {
	Activate(x float64) float64
	Derivative(x float64) float64
}

// Sigmoid squashes the raw inversion degree of a unit into [0, 1].
type Sigmoid struct{}

func (s Sigmoid) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (s Sigmoid) Derivative(x float64) float64 {
	sigmoid := s.Activate(x)
	return sigmoid * (1 - sigmoid)
}

// SquaredSine is the measurement applied to an output phase: sin(x)^2.
type SquaredSine struct{}

func (q SquaredSine) Activate(x float64) float64 {
	s := math.Sin(x)
	return s * s
}

// Derivative is 2 sin(x) cos(x) = sin(2x).
func (q SquaredSine) Derivative(x float64) float64 {
	return math.Sin(2 * x)
}

// baseAngle maps an inversion degree to (pi/2) * sigmoid(delta).
func baseAngle(delta float64) float64 {
	return math.Pi / 2 * Sigmoid{}.Activate(delta)
}

// baseAngleDerivative is d baseAngle / d delta.
func baseAngleDerivative(delta float64) float64 {
	return math.Pi / 2 * Sigmoid{}.Derivative(delta)
}
