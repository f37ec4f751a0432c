package main

import (
	"io"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]string{"func.dat", "res.dat", "test.dat", "testrslt.dat"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "func.dat", cfg.TrainPath)
	assert.Equal(t, "res.dat", cfg.ResultPath)
	assert.Equal(t, "test.dat", cfg.TestPath)
	assert.Equal(t, "testrslt.dat", cfg.TestResultPath)
	assert.Equal(t, "func.dat.log", cfg.LogPath())

	assert.Equal(t, 0.1, cfg.Params.LearningRate)
	assert.Equal(t, 0.01, cfg.Params.ErrorThreshold)
	assert.Equal(t, 10000, cfg.Params.MaxIterations)
	assert.Equal(t, math.Pi/2, cfg.Params.ConvergenceCoefficient)
	assert.Equal(t, int64(66), cfg.Params.Seed)
	assert.Equal(t, 1, cfg.Params.Workers)
	assert.Equal(t, 21, cfg.TrainPatterns)
	assert.Equal(t, 21, cfg.TestPatterns)
	assert.False(t, cfg.Cache)
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-lr", "0.05", "-threshold", "0.001", "-iterations", "500", "-coef", "3.14",
		"-seed", "7", "-workers", "0", "-cache", "-logdb", "epochs.db", "-gradcheck", "-v",
		"a", "b", "c", "d",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0.05, cfg.Params.LearningRate)
	assert.Equal(t, 0.001, cfg.Params.ErrorThreshold)
	assert.Equal(t, 500, cfg.Params.MaxIterations)
	assert.Equal(t, 3.14, cfg.Params.ConvergenceCoefficient)
	assert.Equal(t, int64(7), cfg.Params.Seed)
	assert.GreaterOrEqual(t, cfg.Params.Workers, 1)
	assert.True(t, cfg.Cache)
	assert.Equal(t, "epochs.db", cfg.LogDB)
	assert.True(t, cfg.GradCheck)
	assert.True(t, cfg.Verbose)
}

func TestParseConfigMissingPaths(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "training data"},
		{[]string{"a"}, "result data"},
		{[]string{"a", "b"}, "test data"},
		{[]string{"a", "b", "c"}, "test result data"},
	}
	for _, tt := range tests {
		_, err := parseConfig(tt.args, io.Discard)
		require.Error(t, err)
		assert.Equal(t, errMissingPath, errors.Cause(err))
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := parseConfig([]string{"-lr", "-1", "a", "b", "c", "d"}, io.Discard)
	assert.Error(t, err)

	_, err = parseConfig([]string{"-nope", "a", "b", "c", "d"}, io.Discard)
	assert.Error(t, err)
}
