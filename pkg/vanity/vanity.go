// Package vanity ties prefix parsing, timestamp location, the brute-force
// search and the repository together: it finds a commit timestamp whose
// object id starts with a prefix and optionally moves HEAD to the result.
package vanity

import (
	"context"
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1.
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/gitlib"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/prefix"
	"github.com/Sumatoshi-tech/commitprefix/pkg/search"
)

const reflogPrefix = "commitprefix: "

// Request describes one prefix search.
type Request struct {
	// Prefix is the hex prefix the new object id must start with.
	Prefix string
	// Field is the timestamp to perturb. Empty means author.
	Field commitobj.Field
	// Workers is the number of search workers.
	Workers int
	// DryRun leaves the repository untouched.
	DryRun bool
	// OnProgress receives periodic progress. Optional.
	OnProgress func(search.Progress)
	// ProgressInterval is the OnProgress period.
	ProgressInterval time.Duration
}

// Outcome is the result of a prefix search.
type Outcome struct {
	Prefix   string          `json:"prefix"            yaml:"prefix"`
	Field    commitobj.Field `json:"field"             yaml:"field"`
	Original string          `json:"original"          yaml:"original"`
	Hash     string          `json:"hash"              yaml:"hash"`
	Before   int64           `json:"before"            yaml:"before"`
	After    int64           `json:"after"             yaml:"after"`
	Worker   int             `json:"worker"            yaml:"worker"`
	Workers  int             `json:"workers"           yaml:"workers"`
	Attempts int64           `json:"attempts"          yaml:"attempts"`
	Expected float64         `json:"expected_attempts" yaml:"expected_attempts"`
	Elapsed  time.Duration   `json:"elapsed_ns"        yaml:"elapsed"`
	Applied  bool            `json:"applied"           yaml:"applied"`
	Ref      string          `json:"ref,omitempty"     yaml:"ref,omitempty"`

	// Set by FindHead from the commit HEAD points at when it returns.
	Summary       string `json:"summary,omitempty"        yaml:"summary,omitempty"`
	Author        string `json:"author,omitempty"         yaml:"author,omitempty"`
	AuthorDate    string `json:"author_date,omitempty"    yaml:"author_date,omitempty"`
	Committer     string `json:"committer,omitempty"      yaml:"committer,omitempty"`
	CommitterDate string `json:"committer_date,omitempty" yaml:"committer_date,omitempty"`

	OriginalText  []byte `json:"-" yaml:"-"`
	RewrittenText []byte `json:"-" yaml:"-"`
}

// Options configures a Finder.
type Options struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.SearchMetrics
}

// Finder runs prefix searches.
type Finder struct {
	opts Options
}

// NewFinder creates a Finder. Nil options fall back to no-ops.
func NewFinder(opts Options) *Finder {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Finder{opts: opts}
}

// FindText searches a raw commit object text. Nothing is persisted.
func (f *Finder) FindText(ctx context.Context, text []byte, req Request) (Outcome, error) {
	pattern, err := prefix.Parse(req.Prefix)
	if err != nil {
		return Outcome{}, err
	}

	field := req.Field
	if field == "" {
		field = commitobj.FieldAuthor
	}

	obj, err := commitobj.Parse(text)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse commit object: %w", err)
	}

	span, err := obj.Span(field)
	if err != nil {
		return Outcome{}, err
	}

	before, err := span.Timestamp()
	if err != nil {
		return Outcome{}, err
	}

	coord, err := search.NewCoordinator(search.Options{
		Workers:          req.Workers,
		ProgressInterval: req.ProgressInterval,
		OnProgress:       req.OnProgress,
		Logger:           f.opts.Logger,
		Tracer:           f.opts.Tracer,
		Metrics:          f.opts.Metrics,
	})
	if err != nil {
		return Outcome{}, err
	}

	res, err := coord.Run(ctx, obj.Buf, span, pattern)
	if err != nil {
		return Outcome{}, err
	}

	rewritten, err := obj.WithTimestamp(field, res.Timestamp)
	if err != nil {
		return Outcome{}, err
	}

	original := sha1.Sum(obj.Buf) //nolint:gosec // git object ids are SHA-1.

	return Outcome{
		Prefix:        pattern.String(),
		Field:         field,
		Original:      gitlib.Hash(original).String(),
		Hash:          res.Hex,
		Before:        before,
		After:         res.Timestamp,
		Worker:        res.Worker,
		Workers:       req.Workers,
		Attempts:      res.Attempts,
		Expected:      pattern.ExpectedAttempts(),
		Elapsed:       res.Elapsed,
		OriginalText:  obj.Text(),
		RewrittenText: rewritten,
	}, nil
}

// FindHead searches the HEAD commit of the repository at repoPath and, unless
// req.DryRun is set, writes the rewritten commit and moves HEAD to it.
func (f *Finder) FindHead(ctx context.Context, repoPath string, req Request) (Outcome, error) {
	repo, err := gitlib.OpenRepository(repoPath)
	if err != nil {
		return Outcome{}, err
	}
	defer repo.Free()

	head, err := repo.Head()
	if err != nil {
		return Outcome{}, err
	}

	text, err := repo.ReadCommit(head)
	if err != nil {
		return Outcome{}, err
	}

	out, err := f.FindText(ctx, text, req)
	if err != nil {
		return Outcome{}, err
	}

	out.Ref, err = repo.HeadName()
	if err != nil {
		return Outcome{}, err
	}

	if !req.DryRun {
		want, parseErr := gitlib.ParseHash(out.Hash)
		if parseErr != nil {
			return Outcome{}, parseErr
		}

		err = repo.ReplaceHead(out.RewrittenText, want, reflogPrefix+out.Prefix)
		if err != nil {
			return Outcome{}, err
		}

		out.Applied = true
		head = want

		f.opts.Logger.InfoContext(ctx, "HEAD rewritten", "ref", out.Ref, "from", out.Original, "to", out.Hash)
	}

	info, err := repo.DescribeCommit(head)
	if err != nil {
		return Outcome{}, err
	}

	out.describe(info)

	return out, nil
}

func (o *Outcome) describe(info gitlib.CommitInfo) {
	o.Summary = info.Summary
	o.Author = formatIdent(info.Author)
	o.AuthorDate = info.Author.When.Format(time.RFC3339)
	o.Committer = formatIdent(info.Committer)
	o.CommitterDate = info.Committer.When.Format(time.RFC3339)
}

func formatIdent(sig gitlib.Signature) string {
	return sig.Name + " <" + sig.Email + ">"
}
