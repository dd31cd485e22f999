package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tacc/pkg/config"
	"tacc/pkg/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// replaced by the root PersistentPreRunE
	cfg    = config.Default()
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "tacc",
	Short: "Translate block programs to three-address code",
	Long: `tacc translates programs written in a small block-structured language
into three-address code in a single pass.

A program is one block of declarations followed by statements:

  { int i; int a[10];
    i = 0;
    while (i < 10) { a[i] = i * i; i = i + 1; }
  }

Commands:
  compile  - print the three-address code for one or more files
  run      - translate a file and execute it on the reference interpreter
  watch    - retranslate a file every time it changes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")
}

// setup loads the configuration, applies flag overrides and builds the
// logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFormat != "" {
		loaded.Log.Format = logFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	lc := logging.DefaultLoggerConfig()
	lc.Level, lc.Format = cfg.Log.Level, cfg.Log.Format
	lc.Output = cmd.ErrOrStderr()
	logger = logging.NewLogger(lc)
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "tacc: %v\n", err)
}
