package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/prefix"
	"github.com/Sumatoshi-tech/commitprefix/pkg/search"
	"github.com/Sumatoshi-tech/commitprefix/pkg/vanity"
)

// ToolNameSearch is the name of the prefix search tool.
const ToolNameSearch = "commitprefix_search"

// DefaultMaxDuration bounds a tool call's search.
const DefaultMaxDuration = 5 * time.Minute

// MaxCommitTextBytes is the largest accepted commit_text.
const MaxCommitTextBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrNoSource indicates neither repo_path nor commit_text was given.
	ErrNoSource = errors.New("one of repo_path or commit_text is required")
	// ErrTwoSources indicates both repo_path and commit_text were given.
	ErrTwoSources = errors.New("repo_path and commit_text are mutually exclusive")
	// ErrRepoPathNotAbsolute indicates the repo_path is not an absolute path.
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	// ErrRepoNotFound indicates the repository path does not exist.
	ErrRepoNotFound = errors.New("repository path does not exist")
	// ErrApplyNeedsRepo indicates apply was requested for commit_text.
	ErrApplyNeedsRepo = errors.New("apply requires repo_path")
	// ErrCommitTextTooLarge indicates commit_text exceeds MaxCommitTextBytes.
	ErrCommitTextTooLarge = errors.New("commit_text exceeds maximum size")
)

// SearchInput is the input schema for the commitprefix_search tool.
type SearchInput struct {
	Prefix     string `json:"prefix"                jsonschema:"hex prefix the new commit id must start with"`
	RepoPath   string `json:"repo_path,omitempty"   jsonschema:"absolute path to a git repository whose HEAD commit is searched"`
	CommitText string `json:"commit_text,omitempty" jsonschema:"raw commit object text to search instead of a repository"`
	Field      string `json:"field,omitempty"       jsonschema:"timestamp to change: author (default) or committer"`
	Workers    int    `json:"workers,omitempty"     jsonschema:"number of search workers (default: CPU count)"`
	Apply      bool   `json:"apply,omitempty"       jsonschema:"write the rewritten commit and move HEAD (repo_path only)"`
}

// SearchOutput is the structured result of the commitprefix_search tool.
type SearchOutput struct {
	Outcome   vanity.Outcome `json:"outcome"`
	Rewritten string         `json:"rewritten"`
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SearchInput,
) (*mcpsdk.CallToolResult, SearchOutput, error) {
	start := time.Now()

	done := s.metrics.TrackInflight(ctx, ToolNameSearch)
	defer done()

	out, err := s.search(ctx, input)

	outcome := callOutcome(out, err)
	s.metrics.RecordCall(ctx, observability.ToolCall{
		Tool:     ToolNameSearch,
		Source:   callSource(input),
		Nibbles:  min(len(input.Prefix), prefix.MaxNibbles),
		Outcome:  outcome,
		Duration: time.Since(start),
	})

	if err != nil {
		if outcome == observability.OutcomeFailed {
			s.logger.WarnContext(ctx, "search tool failed", "error", err)
		}

		return errorResult(err)
	}

	return jsonResult(SearchOutput{Outcome: out, Rewritten: string(out.RewrittenText)})
}

func (s *Server) search(ctx context.Context, input SearchInput) (vanity.Outcome, error) {
	err := validateSearchInput(input)
	if err != nil {
		return vanity.Outcome{}, err
	}

	req, err := s.buildRequest(input)
	if err != nil {
		return vanity.Outcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.maxDuration)
	defer cancel()

	if input.RepoPath != "" {
		return s.finder.FindHead(ctx, input.RepoPath, req)
	}

	return s.finder.FindText(ctx, []byte(input.CommitText), req)
}

func callSource(input SearchInput) string {
	if input.RepoPath != "" {
		return observability.SourceRepo
	}

	return observability.SourceText
}

func callOutcome(out vanity.Outcome, err error) string {
	switch {
	case err != nil && isInvalidInput(err):
		return observability.OutcomeInvalid
	case err != nil:
		return observability.OutcomeFailed
	case out.Applied:
		return observability.OutcomeApplied
	default:
		return observability.OutcomeFound
	}
}

func isInvalidInput(err error) bool {
	return search.IsInvalidInput(err) ||
		errors.Is(err, ErrNoSource) ||
		errors.Is(err, ErrTwoSources) ||
		errors.Is(err, ErrRepoPathNotAbsolute) ||
		errors.Is(err, ErrRepoNotFound) ||
		errors.Is(err, ErrApplyNeedsRepo) ||
		errors.Is(err, ErrCommitTextTooLarge)
}

func (s *Server) buildRequest(input SearchInput) (vanity.Request, error) {
	req := vanity.Request{
		Prefix:  input.Prefix,
		Workers: input.Workers,
		DryRun:  !input.Apply,
	}

	if req.Workers == 0 {
		req.Workers = s.defaultWorkers
	}

	if input.Field != "" {
		field, err := commitobj.ParseField(input.Field)
		if err != nil {
			return vanity.Request{}, err
		}

		req.Field = field
	}

	return req, nil
}

func validateSearchInput(input SearchInput) error {
	switch {
	case input.RepoPath == "" && input.CommitText == "":
		return ErrNoSource
	case input.RepoPath != "" && input.CommitText != "":
		return ErrTwoSources
	case input.CommitText != "" && input.Apply:
		return ErrApplyNeedsRepo
	case len(input.CommitText) > MaxCommitTextBytes:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCommitTextTooLarge, len(input.CommitText), MaxCommitTextBytes)
	}

	if input.RepoPath == "" {
		return nil
	}

	if !filepath.IsAbs(input.RepoPath) {
		return fmt.Errorf("%w: %q", ErrRepoPathNotAbsolute, input.RepoPath)
	}

	_, err := os.Stat(input.RepoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, input.RepoPath)
	}

	return nil
}

func defaultWorkers() int {
	return min(max(runtime.NumCPU(), search.MinWorkers), search.MaxWorkers)
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, SearchOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, SearchOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value SearchOutput) (*mcpsdk.CallToolResult, SearchOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, value, nil
}
