package env

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file.
// ENV_PATH overrides defaultPath. A missing file is only an error in "local" mode;
// variables already set in the process environment are never overwritten.
func LoadDotEnv(env string, defaultPath string) error {
	envPath := os.Getenv("ENV_PATH")
	if envPath == "" {
		slog.Debug("ENV_PATH is not set, using default path", "defaultPath", defaultPath)
		envPath = defaultPath
	}

	err := godotenv.Load(envPath)
	if err == nil {
		slog.Info("Loaded .env", "path", envPath)
		return nil
	}
	if env == "local" {
		slog.Error("Failed to load environment variables in local mode", "error", err)
		return err
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	slog.Debug("Skipping .env ...", "path", envPath)
	return nil
}
