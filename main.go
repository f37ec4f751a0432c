// Command qnn trains a qubit-inspired phasor network on a function
// approximation task and writes its outputs for the training and test data.
//
//	qnn [flags] <training data> <result data> <test data> <test result data>
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"github.com/n-ko-da/qnn/neuralnet"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "qnn:", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Verbose)
	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(cfg Config, logger *slog.Logger, stdout io.Writer) error {
	top := cfg.Topology
	logger.Info("starting",
		"topology", fmt.Sprintf("%d-%d-%d", top.InputSize, top.HiddenSize, top.OutputSize),
		"lr", cfg.Params.LearningRate,
		"threshold", cfg.Params.ErrorThreshold,
		"iterations", cfg.Params.MaxIterations,
		"coef", cfg.Params.ConvergenceCoefficient,
		"seed", cfg.Params.Seed,
		"workers", cfg.Params.Workers,
		"cpu", cpuid.CPU.BrandName)

	textLog, err := newTextLog(cfg.LogPath())
	if err != nil {
		return err
	}
	defer textLog.Close()
	logs := multiLog{textLog}

	if cfg.LogDB != "" {
		db, err := newSQLiteLog(cfg.LogDB)
		if err != nil {
			return err
		}
		defer db.Close()
		logs = append(logs, db)
	}

	var train neuralnet.PatternSource = &fileSource{
		path:       cfg.TrainPath,
		count:      cfg.TrainPatterns,
		inputSize:  top.InputSize,
		outputSize: top.OutputSize,
		exact:      true,
	}
	if cfg.Cache {
		train = &cachedSource{src: train}
	}
	test := &fileSource{
		path:       cfg.TestPath,
		count:      cfg.TestPatterns,
		inputSize:  top.InputSize,
		outputSize: top.OutputSize,
	}

	nn := neuralnet.NewNeuralNetwork(top, cfg.Params)

	if cfg.GradCheck {
		patterns, err := train.Patterns()
		if err != nil {
			return errors.Wrap(err, "gradient check")
		}
		logger.Info("gradient check", "pattern", 0, "max_abs_diff", nn.CheckGradients(patterns[0]))
	}

	trainer := neuralnet.NewTrainer(nn, cfg.Params, train)
	trainer.Log = logs
	trainer.Logger = logger

	report, err := trainer.Run(test)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\n Approximation result:\n")
	fmt.Fprintf(stdout, "\ttrain data:\n")
	if err := writeResultFile(cfg.ResultPath, stdout, report.Train); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\ttest data:\n")
	if err := writeResultFile(cfg.TestResultPath, stdout, report.Test); err != nil {
		return err
	}
	return textLog.Close()
}
