package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var once sync.Once

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, if one exists. Variables already set are not overridden.
func LoadEnv(logger *logrus.Logger) {
	once.Do(func() {
		loadEnvFile(logger)
	})
}

func loadEnvFile(logger *logrus.Logger) string {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			logger.Debug("No .env file found, using environment variables")
			return ""
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warnf("Error loading .env file: %v", err)
		return ""
	}
	logger.Debugf("Loaded environment variables from %s", envFile)
	return envFile
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
