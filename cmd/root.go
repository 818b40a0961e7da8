// Package cmd implements the gmharvest command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/penwern/geomodel-harvest/internal/harvest"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/logger"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/spf13/cobra"
)

func init() {
	cobra.OnInitialize(config.Init)
}

type rootOptions struct {
	record    string
	sources   string
	outputDir string
	parseMode string
	logLevel  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:   "gmharvest",
		Short: "Geological model metadata harvester",
		Long: `Harvests metadata for 3D geological models and writes one ISO 19115-3 or
ISO 19139 record per model.

Sources are read from a YAML registry (--sources, default built in). Each
source names an extraction method (PDF, CKAN, ISO19139, ISO19115-3 or OAIPMH)
and lists its records. With --record only that source is processed, otherwise
every source is processed in key order.
Environment configuration is loaded from GMH_* variables and an optional .env file.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, &opts)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", harvest.ErrUsage, err)
	})

	root.Flags().StringVarP(&opts.record, "record", "r", "", "Only process the source with this key")
	root.Flags().StringVar(&opts.sources, "sources", "", "Source registry YAML, methods "+config.MethodNames()+" (overrides GMH_SOURCES_FILE)")
	root.Flags().StringVar(&opts.outputDir, "output-dir", "", "Output directory (overrides GMH_OUTPUT_DIR)")
	root.Flags().StringVar(&opts.parseMode, "parse-mode", "", "Default XML parse mode: strict or recover (overrides GMH_PARSE_MODE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides GMH_LOG_LEVEL)")

	root.AddCommand(versionCmd, newPushCmd(&opts))
	return root
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", harvest.ErrUsage, err)
		}
		return nil
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.sources != "" {
		cfg.SourcesFile = opts.sources
	}
	if opts.parseMode != "" {
		cfg.ParseMode = opts.parseMode
	}
	if opts.logLevel != "" {
		if !utils.ValidateLogLevel(opts.logLevel) {
			return nil, fmt.Errorf("%w: invalid log level %q (want one of %v)", harvest.ErrUsage, opts.logLevel, utils.ValidLogLevels)
		}
		cfg.LogLevel = strings.ToLower(opts.logLevel)
	}
	logger.Initialize(cfg.LogLevel)
	return cfg, nil
}

func runHarvest(cmd *cobra.Command, opts *rootOptions) error {
	startTime := time.Now()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer func() {
		logger.Debug("Execution time: %vs", time.Since(startTime).Seconds())
	}()

	registry, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}
	if opts.record != "" {
		if _, err := registry.Lookup(opts.record); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: Cannot find %s in config\n", opts.record)
			return err
		}
	}

	h, err := harvest.New(cfg, registry)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = h.Run(ctx, opts.record)
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer logger.Sync()
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	// The unknown-key message has already been printed.
	if !errors.Is(err, config.ErrSourceNotFound) {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
	}
	if errors.Is(err, harvest.ErrUsage) {
		fmt.Fprintln(stderr, root.UsageString())
	}
	return harvest.ExitCodeForError(err)
}
