package observability_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
)

func TestInit_NoopByDefault(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &logs

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	providers.Logger.Info("hello")
	assert.Contains(t, logs.String(), "hello")
	assert.Contains(t, logs.String(), "service=commitprefix")

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_PrometheusEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.LogOutput = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, providers.MetricsHandler)

	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	sm, err := observability.NewSearchMetrics(providers.Meter)
	require.NoError(t, err)

	sm.RecordSearch(context.Background(), observability.SearchStats{
		Attempts: 16,
		Status:   observability.StatusOK,
		Workers:  1,
		Nibbles:  1,
	})

	addr, stop, err := observability.ServeMetrics("127.0.0.1:0", providers.MetricsHandler, providers.Logger)
	require.NoError(t, err)

	t.Cleanup(func() { _ = stop(context.Background()) })

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+addr+"/metrics", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "search_attempts"),
		"scrape output should expose the attempts counter")
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
