// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultBackendURL is used when neither the config nor BACKEND_URL names a backend.
	DefaultBackendURL = "http://localhost:8000"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultPollInterval is the dataset job status polling interval.
	defaultPollInterval = 3000 * time.Millisecond
	// defaultSettingsWatch is how often the session file is re-read for offline mode changes.
	defaultSettingsWatch = 1000 * time.Millisecond
	defaultDepartment    = "Finance"
	defaultAppName       = "Application"
	stateDir             = ".routerbench"
)

// Default fallback rates used when no pricing table could be loaded.
const (
	defaultFallbackInputPer1M  = 5.00
	defaultFallbackOutputPer1M = 15.00
)

// Config represents the top-level application configuration.
type Config struct {
	BackendURL          string  `json:"backendUrl" validate:"omitempty,url"`
	Auth                bool    `json:"auth"`
	AuthURL             string  `json:"authUrl" validate:"omitempty,url"`
	AppName             string  `json:"appName"`
	AppURL              string  `json:"appUrl" validate:"omitempty,url"`
	Department          string  `json:"department"`
	PollIntervalMs      int     `json:"pollIntervalMs" validate:"gte=0"`
	TimeoutSeconds      int     `json:"timeout,omitempty" validate:"gte=0"`
	LogFile             string  `json:"logFile,omitempty"`
	SessionFile         string  `json:"sessionFile,omitempty"`
	HistoryFile         string  `json:"historyFile,omitempty"`
	MetricsFile         string  `json:"metricsFile,omitempty"`
	PricingFile         string  `json:"pricingFile,omitempty"`
	FallbackInputPer1M  float64 `json:"fallbackInputPer1M,omitempty" validate:"gte=0"`
	FallbackOutputPer1M float64 `json:"fallbackOutputPer1M,omitempty" validate:"gte=0"`
	ReplayDelayScale    float64 `json:"replayDelayScale,omitempty" validate:"gte=0"`
	ReplayRowsPerPoll   int     `json:"replayRowsPerPoll,omitempty" validate:"gte=0"`
	Offline             bool    `json:"offline"`
	Debug               bool    `json:"debug"`
	JSONMode            bool    `json:"jsonMode"`
	ConfigPath          string  `json:"-"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the dataset job polling interval.
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return defaultPollInterval
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// SettingsWatchInterval returns how often other processes' session changes are picked up.
func (c Config) SettingsWatchInterval() time.Duration {
	return defaultSettingsWatch
}

// BackendURLOrDefault returns the backend base URL without a trailing slash.
func (c Config) BackendURLOrDefault() string {
	if u := strings.TrimSpace(c.BackendURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultBackendURL
}

// DepartmentOrDefault returns the scenario department used when none is given.
func (c Config) DepartmentOrDefault() string {
	if d := strings.TrimSpace(c.Department); d != "" {
		return d
	}
	return defaultDepartment
}

// AppNameOrDefault returns the name reported to the auth service.
func (c Config) AppNameOrDefault() string {
	if n := strings.TrimSpace(c.AppName); n != "" {
		return n
	}
	return defaultAppName
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "routerbench.log"
}

// SessionFilePath returns where the auth token and offline flag are persisted.
func (c Config) SessionFilePath() string {
	if path := strings.TrimSpace(c.SessionFile); path != "" {
		return path
	}
	return filepath.Join(stateDir, "session.json")
}

// HistoryPath returns the sqlite file holding completed evaluations.
func (c Config) HistoryPath() string {
	if path := strings.TrimSpace(c.HistoryFile); path != "" {
		return path
	}
	return filepath.Join(stateDir, "history.db")
}

// MetricsPath returns the JSON file holding client timing statistics.
func (c Config) MetricsPath() string {
	if path := strings.TrimSpace(c.MetricsFile); path != "" {
		return path
	}
	return filepath.Join(stateDir, "timings.json")
}

// FallbackRate returns the per-1M-token input and output rates used when no
// pricing table is available.
func (c Config) FallbackRate() (input, output float64) {
	input, output = c.FallbackInputPer1M, c.FallbackOutputPer1M
	if input <= 0 {
		input = defaultFallbackInputPer1M
	}
	if output <= 0 {
		output = defaultFallbackOutputPer1M
	}
	return input, output
}

// RowsPerPoll returns how many rows a replayed job advances per status query.
func (c Config) RowsPerPoll() int {
	if c.ReplayRowsPerPoll <= 0 {
		return 3
	}
	return c.ReplayRowsPerPoll
}

// Validate checks the struct tags and cross-field rules.
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var details []string
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(details, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Auth && strings.TrimSpace(cfg.AuthURL) == "" {
		return errors.New("invalid configuration: authUrl is required when auth is enabled")
	}
	return nil
}

// Load reads the application configuration from the specified path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := Validate(config); err != nil {
		return Config{}, err
	}
	config.ConfigPath = path
	return config, nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}
