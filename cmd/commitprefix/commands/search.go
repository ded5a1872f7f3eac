package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/config"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/vanity"
)

const (
	flagWorkers          = "workers"
	flagField            = "field"
	flagRepo             = "repo"
	flagCommitFile       = "commit-file"
	flagDryRun           = "dry-run"
	flagFormat           = "format"
	flagNoColor          = "no-color"
	flagShowDiff         = "show-diff"
	flagSilent           = "silent"
	flagProgressInterval = "progress-interval"
	flagConfig           = "config"
	flagLogLevel         = "log-level"
	flagLogJSON          = "log-json"
	flagMetricsAddr      = "metrics-addr"

	stdinPath = "-"
)

// SearchCommand holds the flags of the search command.
type SearchCommand struct {
	workers          int
	field            commitobj.Field
	repoPath         string
	commitFile       string
	dryRun           bool
	format           string
	noColor          bool
	showDiff         bool
	silent           bool
	progressInterval time.Duration
	configPath       string
	logLevel         string
	logJSON          bool
	metricsAddr      string
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	sc := &SearchCommand{}

	cmd := &cobra.Command{
		Use:   "search <prefix>",
		Short: "Find a timestamp that gives HEAD a commit id with the given prefix",
		Long: `Search decrements the author timestamp of the HEAD commit, one second at a
time across all workers, until the commit id starts with <prefix>. The commit
is then rewritten and HEAD moved to it, unless --dry-run is set.

With --commit-file the raw commit object is read from a file (or - for stdin)
and only reported; no repository is touched.

Examples:
  commitprefix search cafe
  commitprefix search 000 --workers 16 --dry-run
  git cat-file commit HEAD | commitprefix search beef --commit-file - --format json`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one prefix, got %d", ErrInvalidArgs, len(args))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return sc.run(cmd, args[0])
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	})

	flags := cmd.Flags()
	flags.IntVarP(&sc.workers, flagWorkers, "w", config.DefaultWorkers, "number of search workers")
	flags.Var(newFieldValue(commitobj.FieldAuthor, &sc.field), flagField, "timestamp to change: author or committer")
	flags.StringVarP(&sc.repoPath, flagRepo, "C", config.DefaultRepositoryPath, "path inside the git repository")
	flags.StringVar(&sc.commitFile, flagCommitFile, "", "read a raw commit object from this file (- for stdin) instead of HEAD")
	flags.BoolVarP(&sc.dryRun, flagDryRun, "n", false, "report the match without rewriting HEAD")
	flags.StringVarP(&sc.format, flagFormat, "f", config.DefaultOutputFormat, "output format: text, json or yaml")
	flags.BoolVar(&sc.noColor, flagNoColor, false, "disable colored output")
	flags.BoolVar(&sc.showDiff, flagShowDiff, false, "show the commit object diff in text output")
	flags.BoolVarP(&sc.silent, flagSilent, "s", false, "do not print progress")
	flags.DurationVar(&sc.progressInterval, flagProgressInterval, config.DefaultProgressInterval, "progress update period")
	flags.StringVar(&sc.configPath, flagConfig, "", "config file (default .commitprefix.yaml in . or $HOME)")
	flags.StringVar(&sc.logLevel, flagLogLevel, config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.BoolVar(&sc.logJSON, flagLogJSON, false, "log as JSON")
	flags.StringVar(&sc.metricsAddr, flagMetricsAddr, "", "serve Prometheus metrics on this address")

	return cmd
}

func (sc *SearchCommand) run(cmd *cobra.Command, rawPrefix string) error {
	cfg, err := sc.loadConfig(cmd)
	if err != nil {
		return err
	}

	tel, err := initObservability(cfg, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer tel.Close()

	searchMetrics, err := observability.NewSearchMetrics(tel.Meter)
	if err != nil {
		return err
	}

	finder := vanity.NewFinder(vanity.Options{
		Logger:  tel.Logger,
		Tracer:  tel.Tracer,
		Metrics: searchMetrics,
	})

	req := vanity.Request{
		Prefix:           rawPrefix,
		Field:            commitobj.Field(cfg.Search.Field),
		Workers:          cfg.Search.Workers,
		DryRun:           cfg.Search.DryRun,
		ProgressInterval: cfg.Search.ProgressInterval,
	}

	var progress *progressPrinter
	if !sc.silent {
		progress = newProgressPrinter(cmd.ErrOrStderr(), rawPrefix)
		req.OnProgress = progress.Print
	}

	var out vanity.Outcome
	if sc.commitFile != "" {
		out, err = sc.findInFile(cmd, finder, req)
	} else {
		out, err = finder.FindHead(cmd.Context(), cfg.Repository.Path, req)
	}

	progress.Finish()

	if err != nil {
		return err
	}

	renderer := newRenderer(cmd.OutOrStdout(), cfg.Output)

	return renderer.Render(out)
}

func (sc *SearchCommand) findInFile(cmd *cobra.Command, finder *vanity.Finder, req vanity.Request) (vanity.Outcome, error) {
	var (
		text []byte
		err  error
	)

	if sc.commitFile == stdinPath {
		text, err = io.ReadAll(cmd.InOrStdin())
	} else {
		text, err = os.ReadFile(sc.commitFile)
	}

	if err != nil {
		return vanity.Outcome{}, fmt.Errorf("read commit object: %w", err)
	}

	return finder.FindText(cmd.Context(), text, req)
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func (sc *SearchCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(sc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed(flagWorkers) {
		cfg.Search.Workers = sc.workers
	}

	if flags.Changed(flagField) {
		cfg.Search.Field = string(sc.field)
	}

	if flags.Changed(flagRepo) {
		cfg.Repository.Path = sc.repoPath
	}

	if flags.Changed(flagDryRun) {
		cfg.Search.DryRun = sc.dryRun
	}

	if flags.Changed(flagFormat) {
		cfg.Output.Format = sc.format
	}

	if flags.Changed(flagNoColor) {
		cfg.Output.NoColor = sc.noColor
	}

	if flags.Changed(flagShowDiff) {
		cfg.Output.ShowDiff = sc.showDiff
	}

	if flags.Changed(flagProgressInterval) {
		cfg.Search.ProgressInterval = sc.progressInterval
	}

	if flags.Changed(flagLogLevel) {
		cfg.Logging.Level = sc.logLevel
	}

	if flags.Changed(flagLogJSON) {
		cfg.Logging.JSON = sc.logJSON
	}

	if flags.Changed(flagMetricsAddr) {
		cfg.Observability.MetricsAddr = sc.metricsAddr
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
