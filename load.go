package main

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/n-ko-da/qnn/neuralnet"
)

// readTable reads whitespace separated numbers into a rows x cols table.
// With exact set the input must hold at least rows full rows; otherwise it
// may hold fewer, but at least one. Anything past rows full rows is ignored.
func readTable(r io.Reader, rows, cols int, exact bool) (*tensor.Dense, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	values := make([]float64, 0, rows*cols)
	for len(values) < rows*cols && scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", len(values)+1)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	n := len(values) / cols
	if exact && n < rows {
		return nil, errors.Errorf("found %d patterns, want %d", n, rows)
	}
	if n == 0 {
		return nil, errors.New("no complete pattern")
	}
	values = values[:n*cols]
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(n, cols), tensor.WithBacking(values)), nil
}

// tableToPatterns splits every row into its first inputSize values and the rest.
func tableToPatterns(t *tensor.Dense, inputSize int) ([]neuralnet.Pattern, error) {
	shape := t.Shape()
	rows, cols := shape[0], shape[1]
	patterns := make([]neuralnet.Pattern, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := range row {
			v, err := t.At(i, j)
			if err != nil {
				return nil, err
			}
			row[j] = v.(float64)
		}
		patterns[i] = neuralnet.Pattern{
			Input:  row[:inputSize:inputSize],
			Target: row[inputSize:],
		}
	}
	return patterns, nil
}

// fileSource parses a pattern file on every call, so edits made between
// epochs are seen by the next epoch.
type fileSource struct {
	path       string
	count      int
	inputSize  int
	outputSize int
	exact      bool
}

func (f *fileSource) Patterns() ([]neuralnet.Pattern, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open pattern file %s", f.path)
	}
	defer file.Close()

	table, err := readTable(file, f.count, f.inputSize+f.outputSize, f.exact)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	return tableToPatterns(table, f.inputSize)
}

// cachedSource asks src once and replays the answer.
type cachedSource struct {
	src      neuralnet.PatternSource
	loaded   bool
	patterns []neuralnet.Pattern
}

func (c *cachedSource) Patterns() ([]neuralnet.Pattern, error) {
	if !c.loaded {
		ps, err := c.src.Patterns()
		if err != nil {
			return nil, err
		}
		c.patterns, c.loaded = ps, true
	}
	return c.patterns, nil
}
