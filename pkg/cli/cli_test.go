package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/webserver/pkg/config"
	"github.com/getmockd/webserver/pkg/requestlog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123", BuildDate: "2026-01-01"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// ============================================================================
// version
// ============================================================================

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "webserver v1.2.3 (abc123")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.2.3", v.Version)
	assert.NotEmpty(t, v.Go)
	assert.NotEmpty(t, v.OS)
}

// ============================================================================
// routes
// ============================================================================

const sampleConfig = `
listen: "127.0.0.1:0"
echoPrefix: /echo/
routes:
  - path: /
    body: hello
  - prefix: /api/
    status: 201
    json: {ok: true}
  - path: /broken
    error: database unavailable
include:
  - "routes/**/*.yaml"
`

const includedRoutes = `
- path: /extra
  status: 204
`

func TestRoutesCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "webserver.yaml", sampleConfig)
	writeFile(t, dir, "routes/nested/extra.yaml", includedRoutes)

	out, err := execute(t, "routes", "--config", cfgPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "KIND")
	assert.Contains(t, out, "/extra")
	assert.Contains(t, out, "error: database unavailable")
	assert.Contains(t, out, "echo")
}

func TestRoutesCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "webserver.yaml", sampleConfig)
	writeFile(t, dir, "routes/nested/extra.yaml", includedRoutes)

	out, err := execute(t, "routes", "-c", cfgPath, "--json")
	require.NoError(t, err)

	var rows []RouteOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rows))

	assert.Equal(t, []RouteOutput{
		{Kind: "exact", Pattern: "/", Status: 200, Response: "body (5 bytes)"},
		{Kind: "exact", Pattern: "/broken", Status: 500, Response: "error: database unavailable"},
		{Kind: "exact", Pattern: "/extra", Status: 204, Response: "empty"},
		{Kind: "prefix", Pattern: "/api/", Status: 201, Response: "json"},
		{Kind: "prefix", Pattern: "/echo/", Status: 200, Response: "echo"},
	}, rows)
}

func TestRoutesCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bad.yaml", "routes:\n  - body: no pattern\n")

	_, err := execute(t, "routes", "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRoutesCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "routes", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRoutesCommand_ConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "webserver.yaml", "routes:\n  - path: /from-env\n    body: x\n")
	t.Setenv(config.EnvConfig, cfgPath)

	out, err := execute(t, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "/from-env")
}

// ============================================================================
// serve
// ============================================================================

func TestServeFlagsOverrideConfig(t *testing.T) {
	f := &serveFlags{}
	fl := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	f.register(fl)
	require.NoError(t, fl.Parse([]string{
		"--listen", "9000",
		"--max-connections", "7",
		"--log-level", "debug",
		"--echo-prefix", "/e/",
	}))

	cfg := config.Default()
	cfg.Metrics.Addr = "localhost:9090"
	cfg.Server.ReadTimeout = 11
	f.apply(fl, cfg)

	assert.Equal(t, "9000", cfg.Listen)
	assert.Equal(t, 7, cfg.Server.MaxConnections)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/e/", cfg.EchoPrefix)
	assert.Equal(t, "localhost:9090", cfg.Metrics.Addr, "unset flags keep config values")
	assert.Equal(t, 11, cfg.Server.ReadTimeout)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "webserver.yaml", "listen: \"8080\"\nlog:\n  level: warn\n")
	t.Setenv(config.EnvLogLevel, "error")

	cfg, err := loadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Listen)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(config.EnvConfig, "")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5001", cfg.Listen)
	require.NotNil(t, cfg.Server)
}

func TestStartServe(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "webserver.yaml", sampleConfig)
	writeFile(t, dir, "routes/extra.yaml", includedRoutes)

	cfg, err := config.LoadFile(cfgPath)
	require.NoError(t, err)
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Log.File = filepath.Join(dir, "webserver.log")
	cfg.Log.Level = "debug"

	var stderr bytes.Buffer
	sess, err := startServe(cfg, &stderr)
	require.NoError(t, err)
	defer sess.Close()

	base := sess.server.URL()

	status, body := httpGet(t, base+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello", body)

	status, body = httpGet(t, base+"/api/things")
	assert.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"ok":true}`, body)

	status, body = httpGet(t, base+"/broken")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "An error occured: database unavailable", body)

	status, _ = httpGet(t, base+"/extra")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = httpGet(t, base+"/echo/?foo=1")
	assert.Equal(t, http.StatusOK, status)
	var echoed map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &echoed))
	assert.Equal(t, "/echo/", echoed["path"])
	assert.Equal(t, map[string]any{"foo": "1"}, echoed["get"])

	admin := "http://" + sess.adminAddr

	status, body = httpGet(t, admin+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "webserver_requests_total")
	assert.Contains(t, body, `route="/api/"`)

	status, body = httpGet(t, admin+"/requests?path=/echo/&limit=5")
	assert.Equal(t, http.StatusOK, status)
	var entries []requestlog.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/echo/", entries[0].Path)

	status, body = httpGet(t, admin+"/routes")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"/extra"`)

	require.NoError(t, sess.Close())

	logData, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "server listening")
	assert.Contains(t, stderr.String(), "server listening")
}

func TestStartServe_BindError(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"

	first, err := startServe(cfg, io.Discard)
	require.NoError(t, err)
	defer first.Close()

	cfg2 := config.Default()
	cfg2.Listen = strings.TrimPrefix(first.server.URL(), "http://")
	_, err = startServe(cfg2, io.Discard)
	assert.Error(t, err)
}

func TestRunServe_StopsOnContextDone(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	require.NoError(t, runServe(ctx, cfg, &stdout, io.Discard))

	out := stdout.String()
	assert.Contains(t, out, "Listening on http://127.0.0.1:")
	assert.Contains(t, out, "Server stopped")
}

func TestOpenLogger_ReportsLogFileFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	var stderr bytes.Buffer
	sess := &serveSession{}
	log, err := sess.openLogger(config.LogConfig{Level: "info", File: "/dev/full"}, &stderr)
	require.NoError(t, err)
	defer sess.closeLogFile()

	log.Info("first record")
	log.Info("second record")

	out := stderr.String()
	assert.Contains(t, out, "second record", "stderr keeps receiving records")
	assert.Equal(t, 1, strings.Count(out, "Warning: log file /dev/full"))
}
