package search

import (
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1.
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"sync/atomic"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/safeconv"
)

// State is the lifecycle state of a Worker.
type State int32

const (
	// StateRunning is the initial state.
	StateRunning State = iota
	// StateFound means the worker reported a match.
	StateFound
	// StateCancelled means the worker observed the cancellation flag.
	StateCancelled
	// StateFailed means the worker's candidate went below zero.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateFound:
		return "found"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// progressBatch is how many attempts a worker accumulates before publishing them.
const progressBatch = 1 << 14

// Worker searches one residue class of the timestamp space.
type Worker struct {
	task     Task
	flag     *Flag
	results  chan<- Result
	progress *atomic.Int64

	buf    []byte
	span   commitobj.Span
	hasher hash.Hash
	sum    []byte
	digits []byte

	next    int64
	pending int64
	state   atomic.Int32
}

// NewWorker creates a worker that owns task.Buf. Matches are sent on results,
// which must have room for one value per worker so a send never blocks.
// progress receives attempt counts in batches and may be nil.
func NewWorker(task Task, flag *Flag, results chan<- Result, progress *atomic.Int64) *Worker {
	if progress == nil {
		progress = new(atomic.Int64)
	}

	first, ok := task.First()
	if !ok {
		first = -1
	}

	return &Worker{
		task:     task,
		flag:     flag,
		results:  results,
		progress: progress,
		buf:      task.Buf,
		span:     task.Span,
		hasher:   sha1.New(),
		sum:      make([]byte, 0, sha1.Size),
		digits:   make([]byte, 0, len(task.Span.Value)),
		next:     first,
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run iterates until the worker finds a match, observes cancellation, or its
// candidate would go below zero. Only the last case returns an error.
func (w *Worker) Run() error {
	defer w.flush()

	for {
		if w.flag.Cancelled() {
			w.state.Store(int32(StateCancelled))

			return nil
		}

		candidate := w.next
		if candidate < 0 {
			w.state.Store(int32(StateFailed))

			return fmt.Errorf("%w: worker %d passed zero", ErrTimestampUnderflow, w.task.Offset)
		}

		w.patch(candidate)
		w.hash()

		if w.task.Pattern.Matches(w.sum) {
			w.flag.Cancel()
			w.results <- w.result(candidate)
			w.state.Store(int32(StateFound))

			return nil
		}

		next, ok := safeconv.CheckedSubInt64(candidate, int64(w.task.Stride))
		if !ok {
			next = -1
		}

		w.next = next
	}
}

// patch writes ts into the timestamp span, shrinking the span and the framing
// header first when ts has fewer digits than the current rendering.
func (w *Worker) patch(ts int64) {
	w.digits = strconv.AppendInt(w.digits[:0], ts, 10)

	if delta := w.span.Len() - len(w.digits); delta > 0 {
		w.buf, w.span = commitobj.Shrink(w.buf, w.span, delta)
	}

	copy(w.buf[w.span.Start:w.span.End], w.digits)
}

func (w *Worker) hash() {
	w.hasher.Write(w.buf)
	w.sum = w.hasher.Sum(w.sum[:0])
	w.hasher.Reset()

	w.pending++
	if w.pending == progressBatch {
		w.flush()
	}
}

func (w *Worker) flush() {
	w.progress.Add(w.pending)
	w.pending = 0
}

func (w *Worker) result(ts int64) Result {
	res := Result{
		Timestamp: ts,
		Hex:       hex.EncodeToString(w.sum),
		Worker:    w.task.Offset,
	}

	copy(res.Digest[:], w.sum)

	return res
}
