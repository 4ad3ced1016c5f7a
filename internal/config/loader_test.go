package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every override variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MCPPROBE_USE_LOCAL_IMAGES", "USE_LOCAL_IMAGES", "MCPPROBE_RUNTIME",
		"MCPPROBE_STARTUP_DELAY", "MCPPROBE_STOP_TIMEOUT", "MCPPROBE_PARALLEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// withHome points the default config path at dir.
func withHome(t *testing.T, dir string) {
	t.Helper()
	orig := osUserHomeDir
	osUserHomeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { osUserHomeDir = orig })
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	clearEnv(t)
	withHome(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig().Images, cfg.Images)
	assert.Equal(t, DefaultRuntime, cfg.Runtime)
	assert.Equal(t, DefaultStartupDelay, cfg.StartupDelay)
	assert.Equal(t, DefaultStopTimeout, cfg.StopTimeout)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Empty(t, cfg.Path())
}

func TestLoadConfig_UserDefaultFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	withHome(t, home)
	path := writeFile(t, filepath.Join(home, ".config", "mcpprobe", "config.yaml"), "parallel: 4\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "probe.yaml"), `
images:
  - example/server:1.0
runtime: podman
pull: true
startup_delay: 500ms
stop_timeout: 1m
parallel: 3
fail_fast: true
scenarios: ./scenarios
report_path: out/report.json
env:
  LOG_LEVEL: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"example/server:1.0"}, cfg.Images)
	assert.Equal(t, DefaultLocalImages, cfg.LocalImages)
	assert.Equal(t, "podman", cfg.Runtime)
	assert.True(t, cfg.Pull)
	assert.Equal(t, 500*time.Millisecond, cfg.StartupDelay)
	assert.Equal(t, time.Minute, cfg.StopTimeout)
	assert.Equal(t, 3, cfg.Parallel)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "./scenarios", cfg.Scenarios)
	assert.Equal(t, "out/report.json", cfg.ReportPath)
	assert.Equal(t, map[string]string{"LOG_LEVEL": "debug"}, cfg.Env)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrorTypeIO, cerr.ErrorType)
	assert.Equal(t, "missing.yaml", cerr.FileName)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "bad.yaml"), "images: [unterminated\n")

	_, err := LoadConfig(path)
	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrorTypeParse, cerr.ErrorType)
	assert.NotEmpty(t, cerr.Details)
}

func TestLoadConfig_UnknownField(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "typo.yaml"), "paralel: 4\n")

	_, err := LoadConfig(path)
	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrorTypeParse, cerr.ErrorType)
	assert.Contains(t, cerr.Details, "paralel")
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "empty.yaml"), "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultParallel, cfg.Parallel)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "invalid.yaml"), "runtime: lxc\nparallel: -1\nimages: []\n")

	_, err := LoadConfig(path)
	var coll ConfigurationErrorCollection
	require.True(t, errors.As(err, &coll))
	require.Len(t, coll.Errors, 3)

	fields := []string{coll.Errors[0].Field, coll.Errors[1].Field, coll.Errors[2].Field}
	assert.Equal(t, []string{"runtime", "parallel", "images"}, fields)
	assert.Contains(t, coll.GetDetailedReport(), "invalid.yaml")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	withHome(t, t.TempDir())
	t.Setenv("MCPPROBE_USE_LOCAL_IMAGES", "1")
	t.Setenv("MCPPROBE_RUNTIME", "podman")
	t.Setenv("MCPPROBE_STARTUP_DELAY", "0s")
	t.Setenv("MCPPROBE_STOP_TIMEOUT", "250ms")
	t.Setenv("MCPPROBE_PARALLEL", "8")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.True(t, cfg.UseLocalImages)
	assert.Equal(t, DefaultLocalImages, cfg.ImageList())
	assert.Equal(t, "podman", cfg.Runtime)
	assert.Equal(t, DefaultStartupDelay, cfg.StartupDelay, "zero duration leaves the file value")
	assert.Equal(t, 250*time.Millisecond, cfg.StopTimeout)
	assert.Equal(t, 8, cfg.Parallel)
}

func TestLoadConfig_LegacyUseLocalImages(t *testing.T) {
	clearEnv(t)
	withHome(t, t.TempDir())
	t.Setenv("USE_LOCAL_IMAGES", "yes")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.UseLocalImages)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	clearEnv(t)
	withHome(t, t.TempDir())
	t.Setenv("MCPPROBE_USE_LOCAL_IMAGES", "maybe")

	_, err := LoadConfig("")
	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrorTypeEnv, cerr.ErrorType)
	assert.Equal(t, "use_local_images", cerr.Field)
}
