// Command vesbot looks up UK vehicle registrations across the DVLA, DVSA
// and commercial data sources.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "vesbot",
	Short:         "UK vehicle registration lookup",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("vesbot exited with error", "err", err)
		os.Exit(1)
	}
}
