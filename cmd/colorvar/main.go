package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/color-variations/internal/config"
	"github.com/ironsheep/color-variations/internal/logging"
	"github.com/ironsheep/color-variations/internal/variation"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	settings := config.Defaults()
	var (
		configPath   string
		noThumbnails bool
	)

	cmd := &cobra.Command{
		Use:   "colorvar [flags] input_path",
		Short: "Generate hue and saturation variations of an image",
		Long: `colorvar rotates the hue and scales the saturation of an image across a grid
of hue steps and saturation levels, writing one PNG per variation into
<output_dir>/<base>_<prefix>/ together with thumbnails and a
processing_details.json record.

Environment variables (also read from .env):
  COLORVAR_LOG_LEVEL=debug    Console log level
  COLORVAR_OUTPUT_DIR=path    Default output directory`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.InputPath = args[0]
			}
			if noThumbnails {
				settings.Thumbnails = false
			}
			return run(cmd.Context(), stdout, cmd.ErrOrStderr(), settings, configPath)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&settings.OutputDir, "output-dir", "o", "", "parent directory of the run folder (default: the input image's directory)")
	f.IntVarP(&settings.SaturationCount, "saturation-count", "s", settings.SaturationCount, "number of saturation levels")
	f.IntVarP(&settings.HueCount, "hue-count", "u", settings.HueCount, "number of hue steps")
	f.Float64Var(&settings.RScale, "r-scale", settings.RScale, "red channel strength (0.0-2.0)")
	f.Float64Var(&settings.GScale, "g-scale", settings.GScale, "green channel strength (0.0-2.0)")
	f.Float64Var(&settings.BScale, "b-scale", settings.BScale, "blue channel strength (0.0-2.0)")
	f.StringVar(&settings.AdjustMode, "adjust-mode", settings.AdjustMode, "channel adjustment mode: multiplicative or additive")
	f.Float64Var(&settings.AdjustBelow, "adjust-below", 0, "only adjust variations with a saturation factor below this value (0 = always)")
	f.BoolVar(&settings.SkipGray, "skip-gray", false, "leave pixels with R == G == B unchanged")
	f.IntVar(&settings.SkipNearGrayThreshold, "skip-near-gray", 0, "leave pixels whose channel spread is below this value unchanged (0 disables)")
	f.BoolVar(&settings.TransparentOnly, "transparent-only", false, "only change pixels with alpha below 255")
	f.BoolVar(&settings.OpaqueOnly, "opaque-only", false, "only change fully opaque pixels")
	f.StringVarP(&settings.Prefix, "prefix", "p", settings.Prefix, "run folder suffix")
	f.BoolVar(&settings.Overwrite, "overwrite", false, "reuse an existing run folder")
	f.BoolVar(&settings.LabelFilenames, "label-filenames", false, "append hue and saturation labels to file names")
	f.BoolVar(&settings.SaveAdjusted, "save-adjusted", false, "also write the input with only the channel adjustment applied")
	f.BoolVarP(&settings.DryRun, "dry-run", "d", false, "log the planned files without writing anything")
	f.BoolVarP(&settings.Verbose, "verbose", "v", false, "enable debug logging")
	f.StringVarP(&settings.LogFile, "log-file", "l", "", "also write JSON logs to this file")
	f.StringVarP(&configPath, "config", "c", "", "load settings from a .json, .yaml or .toml file (overrides all other flags)")

	f.BoolVar(&noThumbnails, "no-thumbnails", false, "do not write thumbnails")

	return cmd
}

// run resolves settings, executes one generation run and prints the summary.
func run(ctx context.Context, stdout, stderr io.Writer, settings config.Settings, configPath string) error {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	if configPath != "" {
		positional := settings.InputPath
		loaded, err := config.Load(configPath)
		if err != nil {
			color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
			return err
		}
		settings = loaded
		if settings.InputPath == "" {
			settings.InputPath = positional
		}
	}
	settings.ApplyEnv()
	if err := settings.ExpandPaths(); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return err
	}

	log := logging.New(logging.Options{Verbose: settings.Verbose, LogFile: settings.LogFile, Console: stderr})
	defer func() { _ = log.Sync() }()

	if settings.InputPath == "" {
		err := errors.New("no input image given")
		log.Error("Missing input", zap.Error(err))
		return err
	}
	if _, err := os.Stat(settings.InputPath); err != nil {
		log.Error("Input image not found", zap.String("path", settings.InputPath), zap.Error(err))
		return err
	}

	cfg, warnings, err := settings.Build()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Error("Invalid settings", zap.Error(err))
		return err
	}

	log.Debug("Starting generation",
		zap.String("input", settings.InputPath),
		zap.Int("hue_count", cfg.HueCount),
		zap.Int("saturation_count", cfg.SatCount),
		zap.String("gray", cfg.Mask.Gray.String()),
		zap.String("transparency", cfg.Mask.Transparency.String()),
		zap.String("adjust_mode", cfg.Adjust.Mode.String()))

	summary, err := variation.Run(ctx, log.Named("runner"), variation.Job{
		SourcePath: settings.InputPath,
		Config:     cfg,
	}, func(ev variation.Event) {
		switch ev.Kind {
		case variation.EventLog, variation.EventVariation:
			if ce := log.Check(ev.Level, ev.Message); ce != nil {
				ce.Write()
			}
		case variation.EventProgress:
			log.Debug("Progress", zap.Float64("fraction", ev.Progress))
		}
	})
	if err != nil {
		log.Error("Generation failed", zap.Error(err))
		color.New(color.FgRed, color.Bold).Fprintf(stdout, "Failed: %v\n", err)
		return err
	}

	printSummary(stdout, summary)
	return nil
}

func printSummary(w io.Writer, s *variation.Summary) {
	switch {
	case s.DryRun:
		color.New(color.FgCyan, color.Bold).Fprintf(w, "Dry run: ")
		fmt.Fprintf(w, "%d variations would be written to %s\n", s.Total, s.OutputDir)
	case s.Status == variation.StatusCancelled:
		color.New(color.FgYellow, color.Bold).Fprintf(w, "Cancelled: ")
		fmt.Fprintf(w, "%d of %d variations written to %s\n", s.Written, s.Total, s.OutputDir)
	default:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "Completed: ")
		fmt.Fprintf(w, "%d variations written to %s ", s.Written, s.OutputDir)
		color.New(color.FgHiBlack).Fprintf(w, "(%v)\n", s.Duration.Round(time.Millisecond))
	}
}
