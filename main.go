// langkit finds Chinese literal text in JavaScript and Vue sources, wraps it
// in lookup calls and keeps the locale catalogs in sync.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/icase-intl/langkit/catalog"
	"github.com/icase-intl/langkit/i18n"
	"github.com/icase-intl/langkit/merge"
	"github.com/icase-intl/langkit/translate"
	"github.com/icase-intl/langkit/visit"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoTag    = color.New(color.FgBlue).Sprint("[INFO]")
	successTag = color.New(color.FgGreen).Sprint("[OK]")
	warningTag = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	errorTag   = color.New(color.FgRed).Sprint("[ERROR]")
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(color.Error, infoTag+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(color.Error, successTag+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(color.Error, warningTag+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(color.Error, errorTag+" "+format+"\n", args...)
}

// errFound makes check exit with status 1 without printing an error.
var errFound = errors.New("occurrences found")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir  string
	logLevel string
)

// setupLogging installs the console logger and hands a tagged child to
// every library package.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		TimeFormat: time.Kitchen,
	}
	log := zerolog.New(w).Level(lvl).With().Timestamp().Logger()

	catalog.Logger = log.With().Str("sys", "catalog").Logger()
	merge.Logger = log.With().Str("sys", "merge").Logger()
	translate.Logger = log.With().Str("sys", "translate").Logger()
	visit.Logger = log.With().Str("sys", "visit").Logger()
	return nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "langkit",
		Short: "Internationalize Chinese literals in JavaScript and Vue sources",
		Long: `langkit finds Chinese literal text in JavaScript, TypeScript and Vue
single-file components, rewrites it into lookup calls and keeps the locale
catalogs in sync.

Every source file needs a syntax tree dump next to it (<file>.ast.json),
written by espree, @babel/parser or vue-eslint-parser.

Commands:
  check       Report literals that are not wrapped in a lookup call
  fix         Wrap literals and update the catalogs
  sync        Update the catalogs from wrapped literals (diff mode)
  translate   Collect wrapped literals and machine-translate them (hash mode)
  status      Show configuration and catalog statistics
  auth        Manage provider API keys`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			i18n.Init("")
			return setupLogging(logLevel)
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newCheckCmd(),
		newFixCmd(),
		newSyncCmd(),
		newTranslateCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFound) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("langkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
