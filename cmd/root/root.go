// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"io"

	"fjacquet/subsync/internal/config"
	"fjacquet/subsync/internal/container"
	"fjacquet/subsync/internal/fileutils"
	"fjacquet/subsync/internal/logging"
	"fjacquet/subsync/internal/report"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Holder   string
	Format   string
	Output   string
	LogLevel string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the configuration loaded before any subcommand runs
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "subsync",
		Short: "Detect recurring subscriptions in bank transactions.",
		Long: `subsync finds recurring charges in a batch of bank transactions and
records each recurring merchant once as a subscription, with an estimated
monthly amount, a category and an icon.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to subsync!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return LoadConfig()
		},
	}

	// SharedFlags holds the values of the persistent flags
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Holder, "holder", "u", "", "Account holder identifier")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", report.FormatText, "Output format (text, csv, json)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (default: stdout)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Override the configured log level")
}

// LoadConfig loads .env and the hierarchical configuration, then configures
// the shared logger.
func LoadConfig() error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		if _, err := logrus.ParseLevel(SharedFlags.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %s", SharedFlags.LogLevel)
		}
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if err := report.ValidateFormat(SharedFlags.Format); err != nil {
		return err
	}

	Cfg = cfg
	Log = config.ConfigureLoggingFromConfig(cfg)
	return nil
}

// NewContainer wires the application from the loaded configuration.
func NewContainer(ctx context.Context, opts ...container.Option) (*container.Container, error) {
	if Cfg == nil {
		if err := LoadConfig(); err != nil {
			return nil, err
		}
	}
	opts = append([]container.Option{container.WithLogger(logging.NewLogrusAdapterFromLogger(Log))}, opts...)
	return container.NewContainer(ctx, Cfg, opts...)
}

// RequireHolder returns the --holder value or an error when it is missing.
func RequireHolder() (string, error) {
	if SharedFlags.Holder == "" {
		return "", fmt.Errorf("--holder is required")
	}
	return SharedFlags.Holder, nil
}

// OutputWriter returns the --output file, or the command's stdout when no
// file was given. The returned close func must always be called.
func OutputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	if SharedFlags.Output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := fileutils.CreateFile(SharedFlags.Output)
	if err != nil {
		return nil, nil, err
	}
	Log.WithField(logging.FieldOutputFile, SharedFlags.Output).Debug("Writing report to file")
	return f, f.Close, nil
}
