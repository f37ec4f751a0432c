package neuralnet

import (
	"log/slog"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/n-ko-da/qnn/parallel"
)

// PatternSource supplies a pattern set. The trainer asks for the training
// set once per epoch.
type PatternSource interface {
	Patterns() ([]Pattern, error)
}

// PatternSourceFunc adapts a function to PatternSource.
type PatternSourceFunc func() ([]Pattern, error)

func (f PatternSourceFunc) Patterns() ([]Pattern, error) {
	return f()
}

// Patterns is a fixed in-memory pattern set.
type Patterns []Pattern

func (p Patterns) Patterns() ([]Pattern, error) {
	return p, nil
}

// EpochLogger receives the learning rate, epoch index and total squared
// error of every epoch.
type EpochLogger interface {
	LogEpoch(learningRate float64, epoch int, squaredError float64) error
}

type trainState int

const (
	stateLoading trainState = iota
	stateSweep
	stateCheck
	stateUpdate
	stateDone
)

func (s trainState) String() string {
	switch s {
	case stateLoading:
		return "LOADING"
	case stateSweep:
		return "FORWARD_BACKWARD_SWEEP"
	case stateCheck:
		return "CONVERGENCE_CHECK"
	case stateUpdate:
		return "UPDATE"
	case stateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// TrainingSession is the state of one training run.
type TrainingSession struct {
	Epoch        int
	LearningRate float64
	Error        float64 // total squared error of the last swept epoch
	Done         bool
	Converged    bool // stopped because Error fell below the threshold

	state    trainState
	patterns []Pattern
}

// State names the step the session will run next.
func (s *TrainingSession) State() string {
	return s.state.String()
}

// TrainingPatterns is the pattern set of the last loaded epoch.
func (s *TrainingSession) TrainingPatterns() []Pattern {
	return s.patterns
}

// Report is the outcome of Run.
type Report struct {
	Session *TrainingSession
	Train   []Result
	Test    []Result
}

// Trainer runs full-batch gradient descent on a network.
type Trainer struct {
	Net       *NeuralNetwork
	Params    Params
	Source    PatternSource
	Optimizer Optimizer
	Loss      LossFunction
	Log       EpochLogger // optional
	Logger    *slog.Logger
}

func NewTrainer(nn *NeuralNetwork, params Params, source PatternSource) *Trainer {
	return &Trainer{
		Net:       nn,
		Params:    params,
		Source:    source,
		Optimizer: &SGD{},
		Loss:      HalfSquaredError{},
		Logger:    slog.Default(),
	}
}

// Run trains until convergence or MaxIterations, then evaluates the last
// training set and the patterns supplied by test.
func (t *Trainer) Run(test PatternSource) (*Report, error) {
	s, err := t.Train()
	if err != nil {
		return nil, err
	}
	r := &Report{
		Session: s,
		Train:   t.Net.Evaluate(s.patterns),
	}
	patterns, err := test.Patterns()
	if err != nil {
		return nil, errors.Wrap(err, "load test patterns")
	}
	if err := t.checkPatterns(patterns); err != nil {
		return nil, errors.Wrap(err, "test patterns")
	}
	r.Test = t.Net.Evaluate(patterns)
	return r, nil
}

// Train runs the epoch loop and returns the finished session.
func (t *Trainer) Train() (*TrainingSession, error) {
	if err := t.Params.Validate(); err != nil {
		return nil, err
	}
	s := t.NewSession()
	for !s.Done {
		if err := t.Step(s); err != nil {
			return s, err
		}
	}
	t.logger().Info("training finished",
		"epochs", s.Epoch, "error", s.Error, "converged", s.Converged)
	return s, nil
}

// NewSession starts a session in the LOADING state.
func (t *Trainer) NewSession() *TrainingSession {
	return &TrainingSession{LearningRate: t.Params.LearningRate}
}

// Step runs the current state of s and moves it to the next one.
func (t *Trainer) Step(s *TrainingSession) error {
	switch s.state {
	case stateLoading:
		patterns, err := t.Source.Patterns()
		if err != nil {
			return errors.Wrapf(err, "load training patterns, epoch %d", s.Epoch)
		}
		if err := t.checkPatterns(patterns); err != nil {
			return errors.Wrap(err, "training patterns")
		}
		s.patterns = patterns
		s.state = stateSweep

	case stateSweep:
		s.Error = t.sweep(s.patterns)
		t.logger().Debug("epoch", "lr", s.LearningRate, "epoch", s.Epoch, "error", s.Error)
		if t.Log != nil {
			if err := t.Log.LogEpoch(s.LearningRate, s.Epoch, s.Error); err != nil {
				return errors.Wrapf(err, "log epoch %d", s.Epoch)
			}
		}
		s.state = stateCheck

	case stateCheck:
		s.Converged = s.Error < t.Params.ErrorThreshold
		if s.Converged || s.Epoch >= t.Params.MaxIterations {
			s.Done = true
			s.state = stateDone
		} else {
			s.state = stateUpdate
		}

	case stateUpdate:
		finite := t.Net.Finite()
		if err := t.Optimizer.Apply(t.Net, s.LearningRate); err != nil {
			return errors.Wrapf(err, "update, epoch %d", s.Epoch)
		}
		if finite && !t.Net.Finite() {
			t.logger().Warn("parameters are no longer finite", "epoch", s.Epoch)
		}
		s.Epoch++
		s.state = stateLoading

	case stateDone:
	}
	return nil
}

// sweep resets the accumulators, runs forward and backward over every
// pattern and returns the total squared error.
func (t *Trainer) sweep(patterns []Pattern) float64 {
	nn := t.Net
	nn.ResetGradients()

	if t.Params.Workers <= 1 || len(patterns) < 2 {
		var total float64
		for _, p := range patterns {
			out := nn.Forward(p.Input)
			nn.Backward(p.Target)
			total += t.Loss.Compute(out, p.Target)
		}
		return total
	}

	chunks := parallel.Split(len(patterns), t.Params.Workers)
	partial := make([]*Gradients, len(chunks))
	errs := make([]float64, len(chunks))
	parallel.ForEach(len(chunks), t.Params.Workers, func(c int) {
		g := nn.NewGradients()
		for _, p := range patterns[chunks[c].Lo:chunks[c].Hi] {
			tr := nn.Trace(p.Input)
			nn.AccumulateGradients(tr, p.Target, g)
			errs[c] += t.Loss.Compute(tr.Output, p.Target)
		}
		partial[c] = g
	})
	for _, g := range partial {
		nn.Gradients().Add(g)
	}
	return floats.Sum(errs)
}

func (t *Trainer) checkPatterns(patterns []Pattern) error {
	top := t.Net.Topology
	for i, p := range patterns {
		if len(p.Input) != top.InputSize || len(p.Target) != top.OutputSize {
			return errors.Errorf("pattern %d has %d inputs and %d targets, want %d and %d",
				i, len(p.Input), len(p.Target), top.InputSize, top.OutputSize)
		}
	}
	return nil
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}
