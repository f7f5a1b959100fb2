package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/config"
	"montecarlo/pkg/interceptors"
	"montecarlo/pkg/metrics"
	integrationsvc "montecarlo/services/integration-svc"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_Constant(t *testing.T) {
	out, err := execute(t, "run",
		"--integrand", "constant", "--param", "c=2",
		"--lower", "1", "--upper", "4",
		"--size", "1000", "--seed", "1,2,3",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "constant on [1,4], policy size")
	assert.Contains(t, out, "6, [6.000,6.000]")
	assert.Contains(t, out, "N=1000")
}

func TestRun_UnknownIntegrand(t *testing.T) {
	_, err := execute(t, "run", "--integrand", "tan")
	assert.True(t, apperror.Is(err, apperror.CodeUnknownIntegrand))
}

func TestRun_InvalidFlags(t *testing.T) {
	_, err := execute(t, "run", "--method", "simpson")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))

	_, err = execute(t, "run", "--integrand", "constant", "--param", "c=abc")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestCompare(t *testing.T) {
	out, err := execute(t, "compare", "--size", "2000")
	require.NoError(t, err)

	assert.Contains(t, out, "benchmark on [0,15], policy size")
	for _, method := range []string{"uniform", "importance", "control_variable"} {
		assert.Contains(t, out, method)
	}
	assert.Contains(t, out, "variance reduction importance")
	assert.Contains(t, out, "c=")
}

func TestReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bench.csv")

	out, err := execute(t, "report", "--size", "1000", "--format", "csv", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "report written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4) // заголовок и три метода
}

func newRemoteServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Sampling = config.SamplingConfig{
		BatchSize:       1000,
		DefaultSize:     2000,
		MaxSize:         1_000_000,
		MaxSamples:      2_000_000,
		DefaultWidth:    0.05,
		DefaultTime:     10 * time.Millisecond,
		MaxTime:         time.Second,
		Points:          30,
		PilotSize:       1000,
		ConfidenceLevel: 0.95,
		Precision:       3,
		ReferenceNodes:  2000,
	}
	cfg.Report.DefaultFormat = "markdown"
	cfg.Report.MaxRuns = 10

	m := metrics.NewWithRegistry(prometheus.NewRegistry(), "test", "")
	components, err := integrationsvc.Build(context.Background(), cfg, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = components.Close() })

	mux := http.NewServeMux()
	components.Handler.Register(mux, interceptors.HandlerOptions(&interceptors.ServerConfig{Metrics: m})...)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemote(t *testing.T) {
	srv := newRemoteServer(t)

	out, err := execute(t, "remote", "integrands", "--address", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "benchmark")
	assert.Contains(t, out, "gaussian")

	out, err = execute(t, "remote", "integrate", "--address", srv.URL,
		"--integrand", "sin", "--method", "importance", "--size", "1000", "--tag", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "sin on [0,3.14")
	assert.Contains(t, out, "importance")

	out, err = execute(t, "remote", "compare", "--address", srv.URL, "--size", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "control_variable")

	out, err = execute(t, "remote", "runs", "--address", srv.URL, "--tag", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1")
}

func TestRemote_Error(t *testing.T) {
	srv := newRemoteServer(t)

	_, err := execute(t, "remote", "integrate", "--address", srv.URL, "--integrand", "tan")
	assert.True(t, apperror.Is(err, apperror.CodeUnknownIntegrand))
}
