package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/prefix"
)

const spanName = "commitprefix.search"

// DefaultProgressInterval is the progress callback period when none is set.
const DefaultProgressInterval = time.Second

// Options configures a Coordinator.
type Options struct {
	// Workers is the number of workers. One runs the search on the calling goroutine.
	Workers int

	// ProgressInterval is the period of OnProgress calls.
	ProgressInterval time.Duration

	// OnProgress is called periodically while the search runs. Optional.
	OnProgress func(Progress)

	// Logger receives search lifecycle records. Nil discards them.
	Logger *slog.Logger

	// Tracer creates the search span. Nil disables tracing.
	Tracer trace.Tracer

	// Metrics records finished searches. Optional.
	Metrics *observability.SearchMetrics
}

// Coordinator partitions a search across workers and returns the first match.
type Coordinator struct {
	opts Options
}

// NewCoordinator validates opts and fills defaults.
func NewCoordinator(opts Options) (*Coordinator, error) {
	err := validateWorkers(opts.Workers)
	if err != nil {
		return nil, err
	}

	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer(spanName)
	}

	return &Coordinator{opts: opts}, nil
}

// Workers returns the configured worker count.
func (c *Coordinator) Workers() int {
	return c.opts.Workers
}

// Run searches for a timestamp below the one at span that makes buf hash to
// a digest matching pattern. buf is not modified. Cancelling ctx stops all
// workers; Run then returns ctx.Err() unless a match was already reported.
func (c *Coordinator) Run(ctx context.Context, buf []byte, span commitobj.Span, pattern prefix.Pattern) (Result, error) {
	tasks, err := NewTasks(buf, span, pattern, c.opts.Workers)
	if err != nil {
		return Result{}, err
	}

	ctx, traceSpan := c.opts.Tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("commitprefix.prefix", pattern.String()),
		attribute.Int("commitprefix.workers", c.opts.Workers),
		attribute.Int64("commitprefix.base", tasks[0].Base),
	))
	defer traceSpan.End()

	c.opts.Logger.DebugContext(ctx, "search started",
		"prefix", pattern.String(), "workers", c.opts.Workers, "base", tasks[0].Base)

	var (
		flag     Flag
		progress atomic.Int64
	)

	start := time.Now()
	stopProgress := c.watchProgress(&progress, start)

	var res Result
	if len(tasks) == 1 {
		res, err = c.runSync(ctx, tasks[0], &flag, &progress)
	} else {
		res, err = c.runPool(ctx, tasks, &flag, &progress)
	}

	stopProgress()

	attempts := progress.Load()
	elapsed := time.Since(start)
	traceSpan.SetAttributes(attribute.Int64("commitprefix.attempts", attempts))

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}

	c.opts.Metrics.RecordSearch(ctx, observability.SearchStats{
		Attempts: attempts,
		Duration: elapsed,
		Workers:  c.opts.Workers,
		Nibbles:  pattern.Nibbles(),
		Status:   status,
	})

	if err != nil {
		traceSpan.RecordError(err)
		traceSpan.SetStatus(codes.Error, err.Error())

		return Result{}, err
	}

	res.Attempts = attempts
	res.Elapsed = elapsed

	traceSpan.SetAttributes(
		attribute.Int64("commitprefix.timestamp", res.Timestamp),
		attribute.String("commitprefix.digest", res.Hex),
	)

	c.opts.Logger.InfoContext(ctx, "prefix found",
		"timestamp", res.Timestamp, "digest", res.Hex, "worker", res.Worker,
		"attempts", attempts, "elapsed", elapsed)

	return res, nil
}

func (c *Coordinator) runSync(ctx context.Context, task Task, flag *Flag, progress *atomic.Int64) (Result, error) {
	stop := context.AfterFunc(ctx, func() { flag.Cancel() })
	defer stop()

	results := make(chan Result, 1)

	err := NewWorker(task, flag, results, progress).Run()
	if err != nil {
		return Result{}, err
	}

	return collect(ctx, results)
}

func (c *Coordinator) runPool(ctx context.Context, tasks []Task, flag *Flag, progress *atomic.Int64) (Result, error) {
	g, gctx := errgroup.WithContext(ctx)

	// A worker fault cancels gctx, which stops the others.
	stop := context.AfterFunc(gctx, func() { flag.Cancel() })
	defer stop()

	results := make(chan Result, len(tasks))

	// A worker that runs out of candidates leaves the rest running.
	var exhausted atomic.Int32

	for _, task := range tasks {
		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			err := NewWorker(task, flag, results, progress).Run()
			if errors.Is(err, ErrTimestampUnderflow) {
				exhausted.Add(1)

				return nil
			}

			return err
		})
	}

	done := make(chan error, 1)

	go func() { done <- g.Wait() }()

	select {
	case res := <-results:
		flag.Cancel()

		waitErr := <-done
		if waitErr != nil {
			c.opts.Logger.WarnContext(ctx, "worker fault after match", "error", waitErr)
		}

		return res, nil
	case waitErr := <-done:
		select {
		case res := <-results:
			return res, nil
		default:
		}

		if waitErr != nil {
			return Result{}, waitErr
		}

		if int(exhausted.Load()) == len(tasks) {
			return Result{}, fmt.Errorf("%w: all %d workers passed zero", ErrTimestampUnderflow, len(tasks))
		}

		return collect(ctx, results)
	}
}

// collect returns a result that was already sent, or the reason none was.
func collect(ctx context.Context, results <-chan Result) (Result, error) {
	select {
	case res := <-results:
		return res, nil
	default:
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, fmt.Errorf("search stopped: %w", ctxErr)
	}

	return Result{}, ErrNoResult
}

func (c *Coordinator) watchProgress(progress *atomic.Int64, start time.Time) func() {
	if c.opts.OnProgress == nil {
		return func() {}
	}

	ticker := time.NewTicker(c.opts.ProgressInterval)
	quit := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				c.opts.OnProgress(Progress{Attempts: progress.Load(), Elapsed: time.Since(start)})
			}
		}
	}()

	return func() {
		close(quit)
		<-exited
	}
}

// IsInvalidInput reports whether err was caused by malformed search input
// rather than by the search itself.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrSpanMismatch) ||
		errors.Is(err, prefix.ErrInvalidPrefix) ||
		errors.Is(err, prefix.ErrPrefixTooLong) ||
		errors.Is(err, commitobj.ErrTimestampNotFound) ||
		errors.Is(err, commitobj.ErrUnknownField)
}
