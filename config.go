package main

import (
	"flag"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"github.com/n-ko-da/qnn/neuralnet"
)

const (
	NumTrainPatterns = 21 // patterns in the training file
	NumTestPatterns  = 21 // at most this many patterns are read from the test file
)

var errMissingPath = errors.New("missing file path")

// Config is everything one run needs.
type Config struct {
	TrainPath      string
	ResultPath     string
	TestPath       string
	TestResultPath string

	Topology      neuralnet.Topology
	TrainPatterns int
	TestPatterns  int
	Params        neuralnet.Params

	Cache     bool   // parse the training file once instead of every epoch
	LogDB     string // optional SQLite file receiving every epoch
	GradCheck bool
	Verbose   bool
}

func DefaultConfig() Config {
	return Config{
		Topology:      neuralnet.DefaultTopology(),
		TrainPatterns: NumTrainPatterns,
		TestPatterns:  NumTestPatterns,
		Params:        neuralnet.DefaultParams(),
	}
}

// LogPath is the training log written next to the training file.
func (c Config) LogPath() string {
	return c.TrainPath + ".log"
}

func (c Config) Validate() error {
	paths := []struct{ name, value string }{
		{"training data", c.TrainPath},
		{"result data", c.ResultPath},
		{"test data", c.TestPath},
		{"test result data", c.TestResultPath},
	}
	for _, p := range paths {
		if p.value == "" {
			return errors.Wrapf(errMissingPath, "specify %s file name", p.name)
		}
	}
	if c.TrainPatterns <= 0 || c.TestPatterns <= 0 {
		return errors.Errorf("pattern counts must be positive, got %d and %d", c.TrainPatterns, c.TestPatterns)
	}
	if err := c.Topology.Validate(); err != nil {
		return err
	}
	return c.Params.Validate()
}

// parseConfig reads flags and the four positional file paths.
func parseConfig(args []string, output io.Writer) (Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("qnn", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: qnn [flags] <training data> <result data> <test data> <test result data>\n")
		fs.PrintDefaults()
	}
	fs.Float64Var(&cfg.Params.LearningRate, "lr", cfg.Params.LearningRate, "learning rate")
	fs.Float64Var(&cfg.Params.ErrorThreshold, "threshold", cfg.Params.ErrorThreshold, "stop once the epoch squared error is below this")
	fs.IntVar(&cfg.Params.MaxIterations, "iterations", cfg.Params.MaxIterations, "maximum number of epochs")
	fs.Float64Var(&cfg.Params.ConvergenceCoefficient, "coef", cfg.Params.ConvergenceCoefficient, "factor mapping an input value to a phase")
	fs.Int64Var(&cfg.Params.Seed, "seed", cfg.Params.Seed, "seed of the parameter initialisation")
	fs.IntVar(&cfg.Params.Workers, "workers", cfg.Params.Workers, "goroutines per epoch sweep, 0 uses every logical core")
	fs.BoolVar(&cfg.Cache, "cache", false, "read the training file once instead of every epoch")
	fs.StringVar(&cfg.LogDB, "logdb", "", "also record every epoch in this SQLite database")
	fs.BoolVar(&cfg.GradCheck, "gradcheck", false, "compare analytic and numerical gradients before training")
	fs.BoolVar(&cfg.Verbose, "v", false, "log every epoch")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	rest := fs.Args()
	for i, p := range []*string{&cfg.TrainPath, &cfg.ResultPath, &cfg.TestPath, &cfg.TestResultPath} {
		if i < len(rest) {
			*p = rest[i]
		}
	}
	if cfg.Params.Workers == 0 {
		cfg.Params.Workers = logicalCores()
	}
	if len(rest) == 0 {
		fs.Usage()
	}
	return cfg, cfg.Validate()
}

func logicalCores() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
