package neuralnet

import "github.com/pkg/errors"

// Optimizer applies the gradients accumulated over a whole epoch.
type Optimizer interface {
	Apply(nn *NeuralNetwork, learningRate float64) error
}

// SGD is plain gradient descent: param -= learningRate * gradient.
type SGD struct{}

// Apply updates every parameter of nn once.
func (o *SGD) Apply(nn *NeuralNetwork, learningRate float64) error {
	if !(learningRate > 0) {
		return errors.Errorf("invalid learning rate %v", learningRate)
	}
	nn.Update(learningRate)
	return nil
}
