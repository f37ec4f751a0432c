package neuralnet

import (
	"math"

	"github.com/pkg/errors"
)

// Params are the training settings of one run.
type Params struct {
	LearningRate   float64
	ErrorThreshold float64 // training stops once the epoch error drops below it
	MaxIterations  int     // training stops once this many updates were applied

	// ConvergenceCoefficient maps an input value to a phase. pi/2 takes
	// [0, 1] to [0, pi/2]; pi usually trains in fewer epochs.
	ConvergenceCoefficient float64

	Seed    int64
	Workers int // goroutines sharing one epoch sweep, 1 runs it inline
}

// DefaultParams returns the settings the trainer ships with.
func DefaultParams() Params {
	return Params{
		LearningRate:           0.1,
		ErrorThreshold:         0.01,
		MaxIterations:          10000,
		ConvergenceCoefficient: math.Pi / 2,
		Seed:                   66,
		Workers:                1,
	}
}

func (p Params) Validate() error {
	switch {
	case !(p.LearningRate > 0) || math.IsInf(p.LearningRate, 0):
		return errors.Errorf("learning rate must be positive, got %v", p.LearningRate)
	case !(p.ErrorThreshold >= 0):
		return errors.Errorf("error threshold must not be negative, got %v", p.ErrorThreshold)
	case p.MaxIterations < 0:
		return errors.Errorf("max iterations must not be negative, got %d", p.MaxIterations)
	case !(p.ConvergenceCoefficient > 0) || math.IsInf(p.ConvergenceCoefficient, 0):
		return errors.Errorf("convergence coefficient must be positive, got %v", p.ConvergenceCoefficient)
	case p.Workers < 1:
		return errors.Errorf("workers must be at least 1, got %d", p.Workers)
	}
	return nil
}
