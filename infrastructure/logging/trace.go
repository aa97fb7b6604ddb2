package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/gridbalancer/domain/ledger"
)

// TraceFileName returns the file name of a run's trace:
// scenario_<id>_<YYYYmmdd_HHMMSS>.txt.
func TraceFileName(scenario int, at time.Time) string {
	return fmt.Sprintf("scenario_%d_%s.txt", scenario, at.Format("20060102_150405"))
}

// TraceWriter renders ledger entries as "[TAG] message" lines on the
// console and in a per-run file. Every line is flushed as it is written.
// It implements ledger.Sink.
type TraceWriter struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	buf     *bufio.Writer
	path    string
	err     error
}

// NewTraceWriter creates a writer. A nil console disables console output.
func NewTraceWriter(console io.Writer) *TraceWriter {
	return &TraceWriter{console: console}
}

// OpenFile starts mirroring lines to a new trace file under dir. The
// directory is created if needed.
func (w *TraceWriter) OpenFile(dir string, scenario int, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, TraceFileName(scenario, at))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open trace file: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.file = f
	w.buf = bufio.NewWriter(f)
	w.path = path
	return path, nil
}

// Path returns the trace file path, or "" when no file is open.
func (w *TraceWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Write renders one entry.
func (w *TraceWriter) Write(e ledger.Entry) {
	w.WriteLine(e.Line())

	Debug().
		Add(RunID(e.RunID)).
		Add(Step(e.Step)).
		Add(State(e.State)).
		Add(Str("tag", string(e.Tag))).
		Msg("trace")
}

// WriteLine writes a raw line to every destination.
func (w *TraceWriter) WriteLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.console != nil {
		fmt.Fprintln(w.console, line)
	}
	if w.buf == nil {
		return
	}
	if _, err := fmt.Fprintln(w.buf, line); err != nil && w.err == nil {
		w.err = err
	}
	if err := w.buf.Flush(); err != nil && w.err == nil {
		w.err = err
	}
}

// Err returns the first error hit writing the trace file.
func (w *TraceWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes and closes the trace file.
func (w *TraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file, w.buf = nil, nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
