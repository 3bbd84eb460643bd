package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bjpolzin/calibre2yac/internal/cli"
	"github.com/bjpolzin/calibre2yac/internal/cli/config"
	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

var (
	// These are set during build time using -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Flags persistent across commands.
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "calibre2yac -l <libraryDir> -o <outputDir> -t <tag>",
	Short: "Mirrors tagged Calibre comics into a reader-friendly directory tree.",
	Long: `calibre2yac reads a Calibre library's catalog, selects the books carrying
a given tag, and maintains a mirrored directory tree of their comic files
(cbz/cbr), organized by series with index-prefixed file names.

It features:
  - Incremental syncs driven by a persisted metadata snapshot.
  - Copy or symlink materialization strategies.
  - Parallel execution with automatic orphan removal and empty-dir cleanup.
  - A watch mode that re-syncs when the catalog changes.
  - An interactive Terminal UI (TUI) for monitoring progress.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts, logger, err := config.LoadAndValidate(cfgFile, version, cmd.Flags())
		if err != nil {
			return err
		}

		// The TUI needs a real terminal; fall back to plain logging when the
		// output is piped or redirected.
		if opts.TuiEnabled && !term.IsTerminal(int(os.Stderr.Fd())) {
			opts.TuiEnabled = false
		}

		return cli.Run(ctx, opts, logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	// Cobra prints the error and exits non-zero if RunE returns an error.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init registers flags for the root command.
func init() {
	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is search standard locations like ., $HOME/.config/calibre2yac/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")

	// Required selection flags
	rootCmd.PersistentFlags().StringP("library", "l", "", "Required. Calibre library directory (contains metadata.db).")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Required. Output directory for the mirrored tree.")
	rootCmd.PersistentFlags().StringArrayP("tag", "t", []string{}, "Required. Calibre tag to sync (can be specified multiple times)")

	// Flag names align with the Viper keys bound in internal/cli/config.

	// Core behavior flags
	rootCmd.Flags().String("strategy", string(syncer.DefaultStrategy), `Materialization strategy ("copy" or "link")`)
	rootCmd.Flags().Bool("dry-run", false, "Plan and report without modifying the output tree or the cache")
	rootCmd.Flags().Bool("no-tui", false, "Disable interactive Terminal UI even if in a TTY")

	// Performance & Caching flags
	rootCmd.Flags().Int("workers", syncer.DefaultWorkerCount, "Number of parallel workers (0 for the default)")
	rootCmd.Flags().Bool("no-cache", false, "Force a full resync by ignoring cache reads (still writes cache)")
	rootCmd.Flags().Bool("clear-cache", false, "Delete the snapshot cache file before starting")

	// Output & Formatting flags
	rootCmd.Flags().String("output-format", string(syncer.DefaultOutputFormat), `Final report format ("text", "json", "yaml")`)
	rootCmd.Flags().String("log-file", "", "Sync log file path (default is sync_log.txt under the output directory)")

	// Workflow flags
	rootCmd.Flags().Bool("watch", false, "Enable watch mode to automatically re-sync when the catalog changes")
	rootCmd.Flags().String("watch-debounce", syncer.DefaultWatchDebounceString, "Watch debounce duration string (e.g., '500ms', '2s')")
}
