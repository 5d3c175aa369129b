package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/subsync/cmd/categorize"
	"fjacquet/subsync/cmd/detect"
	"fjacquet/subsync/cmd/root"
	"fjacquet/subsync/cmd/subscriptions"
	"fjacquet/subsync/internal/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	loadEnvSilently()

	// 2. Configure the log level before any command logs
	configureLogLevelDirectly()

	// 3. Initialize root command and add subcommands
	root.Init()
	root.Cmd.AddCommand(detect.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(subscriptions.Cmd)
}

// loadEnvSilently loads environment variables without logging anything
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// configureLogLevelDirectly applies SUBSYNC_LOG_LEVEL to the shared logger
// until the full configuration is loaded.
func configureLogLevelDirectly() {
	level, err := logrus.ParseLevel(strings.ToLower(config.GetEnv("SUBSYNC_LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	root.Log.SetLevel(level)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
