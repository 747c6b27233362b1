// Package config loads the application configuration and the optional .env
// file.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/expense-import/internal/logging"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads environment variables from .env, or ../.env, once per
// process. Variables already set are not overridden.
func LoadEnv(logger logging.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				logger.Debug("No .env file found, using environment variables")
				return
			}
		}

		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file")
			return
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
	})
}
