package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"baselinebuilder/internal/config"
	"baselinebuilder/internal/exporter"
	"baselinebuilder/internal/infrastructure"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/internal/services"
	"baselinebuilder/internal/validation"
	"baselinebuilder/pkg/contracts"
	"baselinebuilder/pkg/contracts/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configFile  string
	seasonsFile string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "baseline",
		Short:         "Build seasonal baseline rates from a nightly rate export",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: config.yaml or configs/config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.seasonsFile, "seasons", "", "season CSV/XLSX file; overrides the configured sheet")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error (default from config)")

	root.AddCommand(newUnitsCmd(opts))
	root.AddCommand(newBuildCmd(opts))
	root.AddCommand(newSeasonsCmd(opts))
	return root
}

// cliEnv is the per-invocation wiring of config, logger and services.
type cliEnv struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *services.BaselineService
	exporter *exporter.Exporter
	files    *validation.FileValidator
}

func loadEnv(cmd *cobra.Command, opts *globalOptions) (*cliEnv, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	// stdout carries results, so logs go to stderr.
	logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	files := validation.NewFileValidator(logger)

	if opts.seasonsFile != "" {
		if err := files.ValidateTableFile(opts.seasonsFile); err != nil {
			return nil, err
		}
		cfg.Seasons.File = opts.seasonsFile
		cfg.Sheets.SheetID = ""
	}

	source, err := seasons.NewSource(context.Background(), cfg.Sheets, cfg.Seasons)
	if err != nil {
		return nil, err
	}
	loader := seasons.NewLoader(source,
		seasons.NewCache(cfg.Sheets.CacheTTL, nil),
		logger,
		seasons.WithFetchTimeout(cfg.Sheets.FetchTimeout),
	)

	exp := exporter.New(cfg.Export, logger)
	return &cliEnv{
		cfg:      cfg,
		logger:   logger,
		exporter: exp,
		files:    files,
		service: services.NewBaselineService(loader, exp, logger,
			services.WithDefaultFormat(domain.ExportFormat(cfg.Export.DefaultFormat))),
	}, nil
}

// openUpload opens a rate file the way the HTTP handler presents an upload.
func openUpload(path string) (services.Upload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return services.Upload{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return services.Upload{}, nil, err
	}
	return services.Upload{Name: filepath.Base(path), Size: info.Size(), Body: f}, func() { f.Close() }, nil
}

func newUnitsCmd(opts *globalOptions) *cobra.Command {
	var ratesFile string

	cmd := &cobra.Command{
		Use:   "units",
		Short: "List the unit codes in a rate file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Listing units never touches the season source.
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := validation.NewFileValidator(logger).ValidateTableFile(ratesFile); err != nil {
				return err
			}

			upload, closeFn, err := openUpload(ratesFile)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := services.NewBaselineService(nil, exporter.New(cfg.Export, logger), logger)

			units, err := svc.Units(cmd.Context(), upload)
			if err != nil {
				return err
			}
			for _, u := range units {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ratesFile, "rates", "", "nightly rate CSV/XLSX export")
	_ = cmd.MarkFlagRequired("rates")
	return cmd
}

// loadConfig reads --config, or the default locations, and applies --log-level.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		ratesFile string
		unit      string
		discount  int
		outDir    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compute a unit's seasonal baseline and write it to a file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}

			f := domain.ExportFormat(format)
			if f == "" {
				f = domain.ExportFormat(env.cfg.Export.DefaultFormat)
			}
			if !f.Valid() {
				return fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, format)
			}
			if outDir == "" {
				outDir = env.cfg.Export.OutputDir
			}
			if err := env.files.ValidateTableFile(ratesFile); err != nil {
				return err
			}
			if err := env.files.ValidateOutputDirectory(outDir); err != nil {
				return err
			}

			upload, closeFn, err := openUpload(ratesFile)
			if err != nil {
				return err
			}
			defer closeFn()

			b, err := env.service.Build(cmd.Context(), services.BaselineRequest{
				Upload:          upload,
				Unit:            unit,
				DiscountPercent: discount,
			})
			if err != nil {
				return err
			}

			path, err := env.exporter.WriteFile(outDir, b, f)
			if err != nil {
				return err
			}

			printBaseline(cmd.OutOrStdout(), b)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&ratesFile, "rates", "", "nightly rate CSV/XLSX export")
	cmd.Flags().StringVar(&unit, "unit", "", "unit code to build the baseline for")
	cmd.Flags().IntVar(&discount, "discount", 0, "discount percent in [-100, 100]; rates are scaled by 1 + discount/100")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&format, "format", "", "output format: csv|xlsx (default from config)")
	_ = cmd.MarkFlagRequired("rates")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

func newSeasonsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seasons",
		Short: "Show the season table and any overlapping seasons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd, opts)
			if err != nil {
				return err
			}

			result, err := env.service.Seasons(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "Season\tStart_Date\tEnd_Date")
			for _, s := range result.Seasons {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.StartDate, s.EndDate)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, o := range result.Overlaps {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q overlaps %q; shared days go to %q\n", o.First, o.Second, o.First)
			}
			return nil
		},
	}
}

func printBaseline(w io.Writer, b *domain.Baseline) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Season\tStart_Date\tEnd_Date\tDaily_Rate\tWeekly_Rate")
	for _, r := range b.Rows {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Season, r.StartDate, r.EndDate,
			strconv.FormatFloat(r.DailyRate, 'f', 2, 64),
			strconv.FormatFloat(r.WeeklyRate, 'f', 2, 64))
	}
	_ = tw.Flush()
	if b.Summary != nil {
		_, _ = fmt.Fprintf(w, "minimum daily rate: %.2f (%s)\n", b.Summary.MinimumDailyRate, b.Summary.MinimumSeason)
	}
}
