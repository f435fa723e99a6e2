// Package cmd implements the CLI commands for cgroupdetect-go.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"cgroupdetect-go/cgroup"
	"cgroupdetect-go/logging"
)

// Version information set at build time
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// Global flags
var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
	globalCacheTTL  time.Duration
)

// rootCmd is the base command for cgroupdetect-go.
var rootCmd = &cobra.Command{
	Use:   "cgroupdetect",
	Short: "Inspect container resource limits visible to the current process",
	Long: `cgroupdetect-go reads the cgroup v1/v2 hierarchy the current process runs
under and reports its effective CPU, memory and PID limits, the same
detection a managed-runtime VM performs once at startup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		cgroup.SetCacheTTL(globalCacheTTL)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&globalCacheTTL, "cache-ttl", 0, "override the metric cache TTL (default: 20ms, 0 keeps the default)")
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	level := logging.ParseLevel("info")
	if globalDebug {
		level = logging.ParseLevel("debug")
	}

	logger := logging.NewLogger(logging.Config{
		Level:  level,
		Format: globalLogFormat,
		Output: logOutput,
	})
	logging.SetDefault(logger)
}
