package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gopromerge/internal/config"
	"gopromerge/internal/deps"
	"gopromerge/internal/ffmpeg"
	"gopromerge/internal/grouping"
	"gopromerge/internal/logging"
	"gopromerge/internal/processor"
	"gopromerge/internal/progress"
)

// errMergeFailed signals a non-zero exit after the summary has already been
// rendered; main prints nothing extra for it.
var errMergeFailed = errors.New("one or more groups failed")

const lockFileName = ".gopromerge.lock"

type rootOptions struct {
	configPath string
	parallel   int
	reporter   string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gopromerge [input-dir] [output-dir]",
		Short: "Merge chaptered GoPro recordings into single files",
		Long: `gopromerge scans a directory for chaptered GoPro recordings
(GH/GX naming), validates each chapter group, and losslessly concatenates
every complete group into one output file via ffmpeg stream copy.

The input directory defaults to the working directory and the output
directory defaults to the input directory.`,
		Args:          cobra.MaximumNArgs(2),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file path")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "maximum concurrent merges (default: number of CPUs)")
	cmd.Flags().StringVarP(&opts.reporter, "reporter", "r", "", "progress output: progressbar or json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	cmd.AddCommand(newDepsCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig layers CLI flags over the configuration file.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.parallel != 0 {
		cfg.Merge.Parallel = opts.parallel
	}
	if opts.reporter != "" {
		cfg.Merge.Reporter = strings.ToLower(strings.TrimSpace(opts.reporter))
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveDirs turns the positional arguments into absolute input and output
// directories and ensures both are usable.
func resolveDirs(args []string) (input, output string, err error) {
	input = "."
	if len(args) > 0 && args[0] != "" {
		input = args[0]
	}
	input, err = filepath.Abs(input)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(input)
	if err != nil {
		return "", "", fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("input %s is not a directory", input)
	}

	output = input
	if len(args) > 1 && args[1] != "" {
		if output, err = filepath.Abs(args[1]); err != nil {
			return "", "", err
		}
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return "", "", fmt.Errorf("output directory: %w", err)
	}
	return input, output, nil
}

func buildReporter(name string) progress.Reporter {
	if name == "json" {
		return progress.NewJSONReporter(os.Stdout)
	}
	return progress.NewBarReporter(os.Stderr)
}

func runMerge(cmd *cobra.Command, args []string, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	input, output, err := resolveDirs(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String("run_id", runID))

	if err := deps.Missing(deps.CheckBinaries(deps.Default(cfg))); err != nil {
		return err
	}

	// One run per output directory at a time; concurrent runs could race on
	// the same output files.
	lock := flock.New(filepath.Join(output, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another gopromerge run is writing to %s", output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recordings, skipped, err := grouping.Scan(input)
	if err != nil {
		return err
	}
	jobs, invalid := grouping.Assemble(recordings, output)
	logger.Info("classified input directory",
		logging.String("input", input),
		logging.Int("chapters", len(recordings)),
		logging.Int("ignored_files", len(skipped)),
		logging.Int("groups", len(jobs)+len(invalid)),
	)
	for _, classErr := range invalid {
		logger.Warn("group rejected", logging.String("group", classErr.GroupID), logging.Error(classErr.Reason))
	}

	if len(jobs) == 0 && len(invalid) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no chaptered recordings found")
		return nil
	}

	reporter := buildReporter(cfg.Merge.Reporter)
	client := ffmpeg.NewCLI(
		ffmpeg.WithFFmpeg(cfg.Tools.FFmpeg),
		ffmpeg.WithFFprobe(cfg.Tools.FFprobe),
	)
	proc, err := processor.New(client, processor.Options{
		Workers:           cfg.Merge.Parallel,
		Logger:            logger,
		Reporter:          reporter,
		LogDir:            cfg.Paths.LogDir,
		KeepPartialOutput: cfg.Merge.KeepPartialOutput,
		RunID:             runID,
	})
	if err != nil {
		return err
	}

	report := proc.Run(ctx, jobs)
	if err := reporter.Done(); err != nil {
		logger.Warn("progress reporter shutdown", logging.Error(err))
	}

	if cfg.Merge.Reporter == "json" {
		writeSummaryJSON(cmd.OutOrStdout(), report, invalid, len(skipped))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(report, invalid, len(skipped)))
	}

	if report.HasFailures() || len(invalid) > 0 {
		return errMergeFailed
	}
	return nil
}
