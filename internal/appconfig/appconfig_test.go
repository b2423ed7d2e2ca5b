// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad verifies that a valid file loads with defaults applied, while
// invalid JSON, failed validation and missing files are reported as errors.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `{"backendUrl": "http://localhost:9000/", "department": "Marketing"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected ConfigPath %q, got %q", path, cfg.ConfigPath)
	}
	if cfg.TimeoutSeconds != 600 {
		t.Fatalf("expected default timeout of 600 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.BackendURLOrDefault() != "http://localhost:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BackendURLOrDefault())
	}
	if cfg.DepartmentOrDefault() != "Marketing" {
		t.Fatalf("expected Marketing, got %q", cfg.DepartmentOrDefault())
	}

	if _, err := Load(writeConfig(t, `{ "backendUrl": `)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}
	if _, err := Load(writeConfig(t, `{ "auth": true }`)); err == nil {
		t.Fatal("Load() with auth enabled and no authUrl should have failed")
	}
	if _, err := Load(writeConfig(t, `{ "backendUrl": "not a url" }`)); err == nil {
		t.Fatal("Load() with an invalid backend URL should have failed")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Load() with a nonexistent file should have failed")
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected 600s, got %v", cfg.RequestTimeout())
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Fatalf("expected 3s poll interval, got %v", cfg.PollInterval())
	}
	if cfg.SettingsWatchInterval() != time.Second {
		t.Fatalf("expected 1s settings watch, got %v", cfg.SettingsWatchInterval())
	}
	if cfg.BackendURLOrDefault() != DefaultBackendURL {
		t.Fatalf("unexpected backend default %q", cfg.BackendURLOrDefault())
	}
	if cfg.DepartmentOrDefault() != "Finance" {
		t.Fatalf("unexpected department default %q", cfg.DepartmentOrDefault())
	}
	if cfg.AppNameOrDefault() != "Application" {
		t.Fatalf("unexpected app name default %q", cfg.AppNameOrDefault())
	}
	if cfg.LogFilePath() != "routerbench.log" {
		t.Fatalf("unexpected log path %q", cfg.LogFilePath())
	}
	in, out := cfg.FallbackRate()
	if in != 5.00 || out != 15.00 {
		t.Fatalf("unexpected fallback rate %v/%v", in, out)
	}
	if cfg.RowsPerPoll() != 3 {
		t.Fatalf("unexpected rows per poll %d", cfg.RowsPerPoll())
	}

	cfg.PollIntervalMs = 250
	cfg.FallbackInputPer1M = 1.25
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.PollInterval())
	}
	if in, _ := cfg.FallbackRate(); in != 1.25 {
		t.Fatalf("expected override 1.25, got %v", in)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ROUTERBENCH_TEST_VALUE=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ROUTERBENCH_TEST_VALUE") })

	if err := LoadEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if got := os.Getenv("ROUTERBENCH_TEST_VALUE"); got != "from-dotenv" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", Config{Auth: true, AuthURL: "https://auth.example.com"})
	out := buf.String()
	for _, want := range []string{"No config file loaded", "Backend URL:     http://localhost:8000", "Auth URL:        https://auth.example.com", "Poll Interval:   3s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
