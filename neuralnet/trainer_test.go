package neuralnet

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type epochRecord struct {
	lr    float64
	epoch int
	err   float64
}

type recordingLog struct {
	epochs []epochRecord
	fail   error
}

func (r *recordingLog) LogEpoch(lr float64, epoch int, squaredError float64) error {
	r.epochs = append(r.epochs, epochRecord{lr, epoch, squaredError})
	return r.fail
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// averagePatterns samples y = (x1 + x2) / 2 on a 21 point diagonal grid.
func averagePatterns() Patterns {
	var ps Patterns
	for i := 0; i <= 20; i++ {
		x1 := float64(i) / 20
		x2 := float64(20-i) / 40
		ps = append(ps, Pattern{Input: []float64{x1, x2}, Target: []float64{(x1 + x2) / 2}})
	}
	return ps
}

func newTestTrainer(params Params, source PatternSource) *Trainer {
	tr := NewTrainer(NewNeuralNetwork(DefaultTopology(), params), params, source)
	tr.Logger = quietLogger()
	return tr
}

func TestTrainStopsWhenTargetsAlreadyMet(t *testing.T) {
	params := DefaultParams()
	nn := NewNeuralNetwork(DefaultTopology(), params)

	var ps Patterns
	for _, p := range averagePatterns() {
		ps = append(ps, Pattern{Input: p.Input, Target: nn.Trace(p.Input).Output})
	}

	tr := NewTrainer(nn, params, ps)
	tr.Logger = quietLogger()
	s, err := tr.Train()
	require.NoError(t, err)
	assert.True(t, s.Done)
	assert.True(t, s.Converged)
	assert.Equal(t, 0, s.Epoch)
	assert.Zero(t, s.Error)
	assert.Equal(t, "DONE", s.State())
}

func TestTrainStopsAtMaxIterations(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 3
	params.ErrorThreshold = 0

	log := &recordingLog{}
	tr := newTestTrainer(params, averagePatterns())
	tr.Log = log

	s, err := tr.Train()
	require.NoError(t, err)
	assert.True(t, s.Done)
	assert.False(t, s.Converged)
	assert.Equal(t, 3, s.Epoch)
	assert.LessOrEqual(t, s.Epoch, params.MaxIterations)

	require.Len(t, log.epochs, 4)
	for i, e := range log.epochs {
		assert.Equal(t, i, e.epoch)
		assert.Equal(t, 0.1, e.lr)
	}
	assert.Equal(t, s.Error, log.epochs[3].err)
}

func TestTrainReducesError(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 300

	log := &recordingLog{}
	tr := newTestTrainer(params, averagePatterns())
	tr.Log = log

	s, err := tr.Train()
	require.NoError(t, err)
	require.NotEmpty(t, log.epochs)
	assert.Less(t, s.Error, log.epochs[0].err)
	assert.True(t, tr.Net.Finite())
}

func TestTrainRefetchesEveryEpoch(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 4
	params.ErrorThreshold = 0

	calls := 0
	source := PatternSourceFunc(func() ([]Pattern, error) {
		calls++
		return averagePatterns(), nil
	})
	s, err := newTestTrainer(params, source).Train()
	require.NoError(t, err)
	assert.Equal(t, s.Epoch+1, calls)
}

func TestStepFollowsStateMachine(t *testing.T) {
	params := DefaultParams()
	params.ErrorThreshold = 0
	tr := newTestTrainer(params, averagePatterns())
	s := tr.NewSession()

	var states []string
	for i := 0; i < 6; i++ {
		states = append(states, s.State())
		require.NoError(t, tr.Step(s))
	}
	assert.Equal(t, []string{
		"LOADING", "FORWARD_BACKWARD_SWEEP", "CONVERGENCE_CHECK", "UPDATE",
		"LOADING", "FORWARD_BACKWARD_SWEEP",
	}, states)
	assert.Equal(t, 1, s.Epoch)
	assert.Len(t, s.TrainingPatterns(), 21)
}

func TestParallelSweepMatchesSequential(t *testing.T) {
	params := DefaultParams()
	seq := newTestTrainer(params, averagePatterns())

	params.Workers = 4
	par := newTestTrainer(params, averagePatterns())

	seqErr := seq.sweep(averagePatterns())
	parErr := par.sweep(averagePatterns())

	assert.InDelta(t, seqErr, parErr, 1e-12)
	assert.InDeltaSlice(t, seq.Net.Gradients().Flat(), par.Net.Gradients().Flat(), 1e-12)

	// a second sweep starts from reset accumulators
	assert.Equal(t, parErr, par.sweep(averagePatterns()))
}

func TestTrainParallelDeterministic(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 20
	params.Workers = 3

	a := newTestTrainer(params, averagePatterns())
	b := newTestTrainer(params, averagePatterns())
	sa, err := a.Train()
	require.NoError(t, err)
	sb, err := b.Train()
	require.NoError(t, err)
	assert.Equal(t, sa.Error, sb.Error)
	assert.Equal(t, a.Net.Parameters(), b.Net.Parameters())
}

func TestRunEvaluatesBothSets(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 2
	tr := newTestTrainer(params, averagePatterns())

	test := Patterns{
		{Input: []float64{0.5, 0.5}, Target: []float64{0.5}},
		{Input: []float64{0.0, 1.0}, Target: []float64{0.5}},
	}
	r, err := tr.Run(test)
	require.NoError(t, err)
	assert.Len(t, r.Train, 21)
	require.Len(t, r.Test, 2)
	assert.Equal(t, test[1].Input, r.Test[1].Input)
	assert.Equal(t, tr.Net.Trace(test[1].Input).Output, r.Test[1].Output)
}

func TestTrainErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("source", func(t *testing.T) {
		tr := newTestTrainer(DefaultParams(), PatternSourceFunc(func() ([]Pattern, error) {
			return nil, boom
		}))
		_, err := tr.Train()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load training patterns")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("log", func(t *testing.T) {
		tr := newTestTrainer(DefaultParams(), averagePatterns())
		tr.Log = &recordingLog{fail: boom}
		_, err := tr.Train()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("shape", func(t *testing.T) {
		tr := newTestTrainer(DefaultParams(), Patterns{{Input: []float64{1}, Target: []float64{1}}})
		_, err := tr.Train()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pattern 0")
	})

	t.Run("test set", func(t *testing.T) {
		params := DefaultParams()
		params.MaxIterations = 0
		tr := newTestTrainer(params, averagePatterns())
		_, err := tr.Run(PatternSourceFunc(func() ([]Pattern, error) { return nil, boom }))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("params", func(t *testing.T) {
		params := DefaultParams()
		params.LearningRate = -1
		_, err := newTestTrainer(params, averagePatterns()).Train()
		assert.Error(t, err)
	})
}
