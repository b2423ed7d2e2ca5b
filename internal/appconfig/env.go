package appconfig

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// EnvBindings maps config keys to the environment variables that may set them.
// The first variable found wins.
var EnvBindings = map[string][]string{
	"backendUrl": {"ROUTERBENCH_BACKEND_URL", "BACKEND_URL"},
	"auth":       {"ROUTERBENCH_AUTH", "AUTH"},
	"authUrl":    {"ROUTERBENCH_AUTH_URL", "AUTH_URL"},
	"appName":    {"ROUTERBENCH_APP_NAME", "APP_NAME"},
	"appUrl":     {"ROUTERBENCH_APP_URL", "FRONTEND_URL", "APP_URL"},
	"department": {"ROUTERBENCH_DEPARTMENT"},
	"offline":    {"ROUTERBENCH_OFFLINE"},
}

// LoadEnv reads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Existing variables are not
// overridden and missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
