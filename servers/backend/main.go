// servers/backend/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/mockserver"
	"github.com/mwiater/routerbench/internal/replay"
)

// Config is the backend.yml layout.
type Config struct {
	Host    string       `yaml:"host"`
	Port    int          `yaml:"port"`
	LogFile string       `yaml:"log_file"`
	Replay  ReplayConfig `yaml:"replay"`
	Auth    AuthConfig   `yaml:"auth"`
}

type ReplayConfig struct {
	DelayScale  float64 `yaml:"delay_scale"`
	RowsPerPoll int     `yaml:"rows_per_poll"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	AuthURL string `yaml:"auth_url"`
	AppURL  string `yaml:"app_url"`
	AppName string `yaml:"app_name"`
}

func main() {
	path := flag.String("config", filepath.Join("servers", "backend", "backend.yml"), "path to backend.yml")
	flag.Parse()

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.LogFile, true); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		logging.LogWarn("backend stopped: %v", err)
		os.Exit(1)
	}
}

// newHandler wires the replay backend behind the HTTP API.
func newHandler(cfg *Config) http.Handler {
	backend := replay.New(replay.Options{
		DelayScale:  cfg.Replay.DelayScale,
		RowsPerPoll: cfg.Replay.RowsPerPoll,
	})
	var opts []mockserver.Option
	if cfg.Auth.Enabled {
		opts = append(opts, mockserver.WithAuth(mockserver.AuthConfig{
			Enabled: true,
			AuthURL: cfg.Auth.AuthURL,
			AppURL:  cfg.Auth.AppURL,
			AppName: cfg.Auth.AppName,
		}))
	}
	return mockserver.New(backend, opts...)
}

func serve(ctx context.Context, cfg *Config) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           newHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("backend config: host=%s port=%d delay_scale=%.2f rows_per_poll=%d auth=%v",
			cfg.Host, cfg.Port, cfg.Replay.DelayScale, cfg.Replay.RowsPerPoll, cfg.Auth.Enabled)
		logging.LogEvent("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.LogEvent("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = 8000
	}
	if cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Replay.DelayScale < 0 {
		return nil, errors.New("replay.delay_scale must not be negative")
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.AuthURL) == "" {
		return nil, errors.New("auth.auth_url is required when auth is enabled")
	}
	return &cfg, nil
}
