package neuralnet

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the loss value given the network output and the target.
	Compute(output []float64, target []float64) float64
	// Gradient returns the gradient ∂L/∂output for each output unit.
	Gradient(output []float64, target []float64) []float64
}

// HalfSquaredError implements L = 0.5 * Σ (target - output)^2.
type HalfSquaredError struct{}

// Compute returns the half squared error of one pattern.
func (h HalfSquaredError) Compute(output []float64, target []float64) float64 {
	var loss float64
	for i := range output {
		d := target[i] - output[i]
		loss += d * d
	}
	return 0.5 * loss
}

// Gradient returns (output - target).
func (h HalfSquaredError) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	for i := range output {
		grad[i] = output[i] - target[i]
	}
	return grad
}
