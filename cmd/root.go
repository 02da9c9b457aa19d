package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docgen/pkg/logging"
)

// Exit codes for the orchestrator CLI (spec.md §7).
const (
	ExitOK             = 0
	ExitValidationFail = 1
	ExitInfraError      = 3
)

var (
	jsonLogs bool
	logLevel string
)

// rootCmd is the base command for the document-generation orchestrator.
// It is a one-shot process: every invocation runs exactly one job (or one
// experiment) and exits, it does not serve traffic.
var rootCmd = &cobra.Command{
	Use:   "docgen",
	Short: "Run and validate document-generation jobs",
	Long: `docgen routes a job-config file to a worker (a layout application
or a rendering service), runs the resulting PDF through a multi-layer
validation engine, and exits with a code reflecting the outcome:

  0  validation passed
  1  validation failed
  3  infrastructure error (bad config, worker unreachable, etc.)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if jsonLogs {
			logging.InitForCLIJSON(level, os.Stderr)
		} else {
			logging.InitForCLI(level, os.Stderr)
		}
		return nil
	},
}

// SetVersion sets the version for the root command, injected at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateOnlyCmd())
	rootCmd.AddCommand(newExperimentCmd())
}

func parseLogLevel(s string) (logging.LogLevel, error) {
	switch s {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return logging.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Execute runs the root command and exits the process with the
// appropriate exit code. It is called from main.main().
func Execute() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "docgen:", err)
	}
	os.Exit(code)
}

// run executes the root command and returns the process exit code, so
// tests can call it without triggering os.Exit.
func run() (int, error) {
	if err := rootCmd.Execute(); err != nil {
		if ec, ok := err.(*exitCodeError); ok {
			return ec.code, ec.err
		}
		return ExitInfraError, err
	}
	return ExitOK, nil
}

// exitCodeError lets a subcommand signal a specific process exit code
// (validation failure vs infra error) through cobra's normal error path.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func newExitCodeError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}
