package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/n-ko-da/qnn/neuralnet"
)

// writeResults prints one line per result: the inputs, the outputs and the
// targets in parentheses.
func writeResults(w io.Writer, results []neuralnet.Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		for _, x := range r.Input {
			fmt.Fprintf(bw, "%f ", x)
		}
		for _, y := range r.Output {
			fmt.Fprintf(bw, "%f ", y)
		}
		for k, t := range r.Target {
			if k == len(r.Target)-1 {
				fmt.Fprintf(bw, "(%f)\n", t)
			} else {
				fmt.Fprintf(bw, "(%f) ", t)
			}
		}
	}
	return bw.Flush()
}

// writeResultFile writes results to path and echoes them to echo.
func writeResultFile(path string, echo io.Writer, results []neuralnet.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create result file %s", path)
	}
	if err := writeResults(io.MultiWriter(file, echo), results); err != nil {
		file.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(file.Close(), "close %s", path)
}

// textLog writes "lr epoch\terror" lines.
type textLog struct {
	w    *bufio.Writer
	file *os.File
}

func newTextLog(path string) (*textLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create training log %s", path)
	}
	return &textLog{w: bufio.NewWriter(file), file: file}, nil
}

func (l *textLog) LogEpoch(learningRate float64, epoch int, squaredError float64) error {
	_, err := fmt.Fprintf(l.w, "%f %d\t%f\n", learningRate, epoch, squaredError)
	return err
}

// Close flushes and closes the file. Calls after the first do nothing.
func (l *textLog) Close() error {
	if l.file == nil {
		return nil
	}
	defer func() { l.file = nil }()
	if err := l.w.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// sqliteLog appends every epoch to the epochs table, tagged with the run start.
type sqliteLog struct {
	db      *sql.DB
	insert  *sql.Stmt
	started string
}

func newSQLiteLog(path string) (*sqliteLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS epochs(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started TEXT NOT NULL,
			learning_rate REAL NOT NULL,
			epoch INTEGER NOT NULL,
			squared_error REAL NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create epochs table in %s", path)
	}
	insert, err := db.Prepare("INSERT INTO epochs(started, learning_rate, epoch, squared_error) VALUES(?,?,?,?)")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "prepare epoch insert")
	}
	return &sqliteLog{
		db:      db,
		insert:  insert,
		started: time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (l *sqliteLog) LogEpoch(learningRate float64, epoch int, squaredError float64) error {
	_, err := l.insert.Exec(l.started, learningRate, epoch, squaredError)
	return err
}

func (l *sqliteLog) Close() error {
	l.insert.Close()
	return l.db.Close()
}

// multiLog forwards every epoch to each logger in turn.
type multiLog []neuralnet.EpochLogger

func (m multiLog) LogEpoch(learningRate float64, epoch int, squaredError float64) error {
	for _, l := range m {
		if err := l.LogEpoch(learningRate, epoch, squaredError); err != nil {
			return err
		}
	}
	return nil
}
