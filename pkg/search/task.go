package search

import (
	"bytes"
	"fmt"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/prefix"
	"github.com/Sumatoshi-tech/commitprefix/pkg/safeconv"
)

// Task is the immutable configuration of one worker. Buf is owned by the
// worker that receives the task.
type Task struct {
	// Stride is the total number of workers.
	Stride int
	// Offset is this worker's index in [0, Stride).
	Offset int
	// Base is the timestamp the buffer was located with.
	Base int64
	// Buf is the framed commit object.
	Buf []byte
	// Span addresses the timestamp digits inside Buf.
	Span commitobj.Span
	// Pattern is the prefix to match.
	Pattern prefix.Pattern
}

// First returns the first candidate of the task. The first candidates of all
// workers are Base-1 down to Base-Stride; each later one is Stride lower.
func (t Task) First() (int64, bool) {
	return safeconv.CheckedSubInt64(t.Base, int64(t.Offset)+1)
}

// NewTasks validates the inputs and builds one task per worker, each with its
// own clone of buf.
func NewTasks(buf []byte, span commitobj.Span, pattern prefix.Pattern, workers int) ([]Task, error) {
	err := validateWorkers(workers)
	if err != nil {
		return nil, err
	}

	if span.Start < 0 || span.End > len(buf) || span.Start >= span.End {
		return nil, fmt.Errorf("%w: [%d,%d) outside buffer of %d bytes",
			ErrSpanMismatch, span.Start, span.End, len(buf))
	}

	if got := string(buf[span.Start:span.End]); got != span.Value {
		return nil, fmt.Errorf("%w: buffer has %q, span expects %q", ErrSpanMismatch, got, span.Value)
	}

	base, err := span.Timestamp()
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, workers)
	for i := range tasks {
		tasks[i] = Task{
			Stride:  workers,
			Offset:  i,
			Base:    base,
			Buf:     bytes.Clone(buf),
			Span:    span,
			Pattern: pattern,
		}
	}

	return tasks, nil
}

func validateWorkers(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidWorkerCount, workers, MinWorkers, MaxWorkers)
	}

	return nil
}
