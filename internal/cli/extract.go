package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mvp-joe/callminer/internal/config"
	"github.com/mvp-joe/callminer/internal/corpus"
	"github.com/mvp-joe/callminer/internal/ledger"
	"github.com/mvp-joe/callminer/internal/runner"
	"github.com/mvp-joe/callminer/internal/syntax"
	"github.com/spf13/cobra"
)

var (
	jobsFlag     int
	quietFlag    bool
	progressFlag bool
	watchFlag    bool
	resumeFlag   bool
	ledgerFlag   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <root> <output-dir>",
	Short: "Extract method token and call-sequence corpora from a Java tree",
	Long: `Extract parses every Java file under <root> and appends two line-aligned
corpora to <output-dir>:

  function_tokens.txt          one line of whitespace-collapsed body tokens per method
  function_call_sequences.txt  the method name followed by the names of its calls

Every type declaration is visited in source order, member and local types
included, and each method with a body yields one record in each corpus.
Calls are recorded outer call first, so b(c()) yields "b c". Files that fail
to parse are reported and contribute nothing.

Examples:
  # Mine a source tree
  callminer extract ./src ./out

  # Use four workers and show a progress bar
  callminer extract ./src ./out --jobs 4 --progress

  # Record the run and skip files already mined with the same content
  callminer extract ./src ./out --resume

  # Keep mining files as they are created or modified
  callminer extract ./src ./out --watch
`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().IntVarP(&jobsFlag, "jobs", "j", 0, "Number of files extracted concurrently (default from config)")
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress and non-error output")
	extractCmd.Flags().BoolVar(&progressFlag, "progress", false, "Show a progress bar instead of one line per file")
	extractCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and extract them after the initial run")
	extractCmd.Flags().BoolVar(&resumeFlag, "resume", false, "Skip files already committed with the same content (implies --ledger)")
	extractCmd.Flags().BoolVar(&ledgerFlag, "ledger", false, "Record the run in <output-dir>/ledger.db")
}

// extractOptions are the command-line settings of one extract invocation.
type extractOptions struct {
	RootDir    string
	OutputDir  string
	ConfigFile string
	Jobs       int // 0 keeps the configured value
	Quiet      bool
	Progress   bool
	Watch      bool
	Resume     bool
	Ledger     bool
	Verbose    bool
}

func runExtract(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted! Cancelling extraction...")
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := extractOptions{
		RootDir:    args[0],
		OutputDir:  args[1],
		ConfigFile: cfgFile,
		Jobs:       jobsFlag,
		Quiet:      quietFlag,
		Progress:   progressFlag,
		Watch:      watchFlag,
		Resume:     resumeFlag,
		Ledger:     ledgerFlag,
		Verbose:    verbose,
	}

	_, err := extract(ctx, cmd.OutOrStdout(), opts)
	return err
}

// extract runs one extraction (and, with Watch, keeps watching until ctx is
// cancelled). Only fatal errors are returned; per-file failures are reported
// and counted in the stats.
func extract(ctx context.Context, out io.Writer, opts extractOptions) (*runner.Stats, error) {
	startTime := time.Now()

	rootDir, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", opts.RootDir)
	}

	cfg, err := loadConfig(rootDir, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	extractorOpts, err := cfg.ExtractorOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	jobs := cfg.Extraction.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}

	writer := corpus.NewWriter(opts.OutputDir, cfg.Output.TokensFile, cfg.Output.CallsFile)
	if err := writer.EnsureCreated(); err != nil {
		return nil, err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("Warning: %v\n", err)
		}
	}()

	// A nil *ledger.Ledger must not become a non-nil runner.Ledger.
	var recorder runner.Ledger
	if opts.Resume || opts.Ledger || cfg.Output.Ledger {
		lg, err := ledger.Open(filepath.Join(opts.OutputDir, ledger.DefaultFileName))
		if err != nil {
			return nil, err
		}
		defer lg.Close()
		recorder = lg
	}

	progress := NewCLIProgressReporter(out, opts.Quiet, opts.Progress, opts.Verbose)

	driver, err := runner.NewDriver(runner.Config{
		RootDir:          rootDir,
		CodePatterns:     cfg.Paths.Code,
		IgnorePatterns:   cfg.Paths.Ignore,
		RespectGitignore: cfg.Paths.RespectGitignore,
		Jobs:             jobs,
		Resume:           opts.Resume,
		Extraction:       extractorOpts,
	}, syntax.NewJavaProvider(), writer, recorder, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	if opts.Verbose {
		log.Printf("[TIMING] Setup: %v\n", time.Since(startTime))
	}

	stats, err := driver.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return stats, fmt.Errorf("extraction cancelled")
		}
		return stats, err
	}

	if !opts.Watch {
		return stats, nil
	}

	if !opts.Quiet {
		log.Println("Starting watch mode...")
	}
	watcher, err := runner.NewWatcher(driver, runner.DefaultDebounce, func(batch *runner.Stats, err error) {
		if err != nil && ctx.Err() == nil {
			log.Printf("Error during watch extraction: %v\n", err)
		}
	})
	if err != nil {
		return stats, fmt.Errorf("watch mode failed: %w", err)
	}
	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()

	if !opts.Quiet {
		log.Println("Watch mode stopped")
	}
	return stats, nil
}

// loadConfig reads an explicit config file when given, otherwise
// <root>/.callminer/config.yml if present.
func loadConfig(rootDir, configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.NewFileLoader(configFile).Load()
	}
	return config.LoadConfigFromDir(rootDir)
}
