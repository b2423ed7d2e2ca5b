// internal/cli/root.go
package routerbench

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/routerbench/internal/appconfig"
	"github.com/mwiater/routerbench/internal/logging"
)

// annotationAuth marks commands that need an authorized session when auth is enabled.
const annotationAuth = "auth"

var (
	cfgFile string
	app     *runtime
)

var rootCmd = &cobra.Command{
	Use:           "routerbench",
	Short:         "routerbench compares a model router against a fixed benchmark model",
	Long:          `routerbench sends prompts to a model router and to a fixed benchmark model, then compares latency, cost and graded accuracy. Dataset jobs evaluate up to 12 prompts from a CSV file in the background.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) .env files feed the environment before viper looks at it.
		if err := appconfig.LoadEnv(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}

		// 2) Merge flags > env > config file > defaults.
		cfg, file, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// 3) Build the runtime every command works from.
		rt, err := newRuntime(cmd, cfg, file)
		if err != nil {
			return err
		}
		app = rt

		if cmd.Annotations[annotationAuth] == "required" {
			return requireAuth(cmd.Context(), cmd)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRuntime()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errNotified) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// ExecuteContext runs the root command with ctx. Runtime resources are
// released even when the command fails.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeRuntime(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging and payload dumps")
	rootCmd.PersistentFlags().Bool("jsonMode", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().Bool("offline", false, "use the built-in replay backend")
	rootCmd.PersistentFlags().String("backend-url", "", "backend base URL (overrides BACKEND_URL)")
}

// loadConfig reads the config file (optional), environment bindings and flags
// into one validated Config.
func loadConfig(cmd *cobra.Command) (appconfig.Config, string, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("debug", false)
	v.SetDefault("jsonMode", false)
	v.SetDefault("offline", false)

	file := ""
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return appconfig.Config{}, "", fmt.Errorf("failed to load config: %w", err)
			}
		} else {
			file = v.ConfigFileUsed()
		}
	}

	for key, envs := range appconfig.EnvBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	flags := cmd.Flags()
	for key, name := range map[string]string{
		"debug":      "debug",
		"jsonMode":   "jsonMode",
		"offline":    "offline",
		"backendUrl": "backend-url",
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}

	cfg, err := decodeSettings(v)
	if err != nil {
		return appconfig.Config{}, "", err
	}
	if err := appconfig.Validate(cfg); err != nil {
		return appconfig.Config{}, "", err
	}
	cfg.ConfigPath = file
	return cfg, file, nil
}

// decodeSettings maps viper's merged (lower-cased) keys onto Config through
// its JSON tags.
func decodeSettings(v *viper.Viper) (appconfig.Config, error) {
	var cfg appconfig.Config
	settings := v.AllSettings()
	for key, value := range settings {
		// Environment values arrive as strings.
		if s, ok := value.(string); ok {
			switch key {
			case "auth", "offline", "debug", "jsonmode":
				b, err := strconv.ParseBool(s)
				if err != nil {
					return cfg, fmt.Errorf("invalid boolean for %s: %q", key, s)
				}
				settings[key] = b
			}
		}
	}
	if err := remarshal(settings, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func closeRuntime() error {
	if app == nil {
		return nil
	}
	err := app.Close()
	app = nil
	if lerr := logging.Close(); err == nil {
		err = lerr
	}
	return err
}
