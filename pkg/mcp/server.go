// Package mcp implements a Model Context Protocol server exposing the
// commit prefix search as an MCP tool over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/vanity"
	"github.com/Sumatoshi-tech/commitprefix/pkg/version"
)

const (
	serverName = "commitprefix"
	toolCount  = 1
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil discards logs.
	Logger *slog.Logger

	// Metrics is an optional tool call recorder. Nil disables tool metrics.
	Metrics *observability.ToolMetrics

	// SearchMetrics is an optional recorder for the searches tools run.
	SearchMetrics *observability.SearchMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// DefaultWorkers is the worker count when a call does not set one.
	DefaultWorkers int

	// MaxDuration bounds a single search. Zero uses DefaultMaxDuration.
	MaxDuration time.Duration
}

// Server wraps the MCP SDK server with commitprefix tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	mu      sync.RWMutex
	tools   []string
	metrics *observability.ToolMetrics
	tracer  trace.Tracer
	finder  *vanity.Finder
	logger  *slog.Logger

	defaultWorkers int
	maxDuration    time.Duration
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		logger:  logger,
		finder: vanity.NewFinder(vanity.Options{
			Logger:  logger,
			Tracer:  deps.Tracer,
			Metrics: deps.SearchMetrics,
		}),
		defaultWorkers: deps.DefaultWorkers,
		maxDuration:    deps.MaxDuration,
	}

	if srv.defaultWorkers <= 0 {
		srv.defaultWorkers = defaultWorkers()
	}

	if srv.maxDuration <= 0 {
		srv.maxDuration = DefaultMaxDuration
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSearch,
		Description: searchToolDescription,
	}, withTracing(s.tracer, ToolNameSearch, s.handleSearch))

	s.trackTool(ToolNameSearch)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input, Output any](
	tracer trace.Tracer,
	toolName string,
	handler mcpsdk.ToolHandlerFor[Input, Output],
) mcpsdk.ToolHandlerFor[Input, Output] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, Output, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const searchToolDescription = "Find a commit timestamp whose git object id starts with a hex prefix. " +
	"Searches the HEAD commit of repo_path, or a raw commit object passed as commit_text. " +
	"With apply=true the rewritten commit is written and HEAD moves to it."
