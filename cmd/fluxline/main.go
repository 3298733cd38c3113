// Command fluxline measures emission-line fluxes of UV stellar spectra.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
	"github.com/himanishpuri/fluxline/pkg/fluxline/review"
	"github.com/himanishpuri/fluxline/pkg/logger"
	"github.com/himanishpuri/fluxline/pkg/models"
	"github.com/himanishpuri/fluxline/pkg/utils"
)

var version = "0.1.0"

// Global flags
var (
	artifactDir string
	dbPath      string
	configPath  string
	logLevel    string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	root := &cobra.Command{
		Use:           "fluxline",
		Short:         "Emission-line flux pipeline for UV stellar spectra",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&artifactDir, "dir", getEnvOrDefault("FLUXLINE_DIR", "."), "Directory holding doppler/, noise/ and flux/")
	root.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("FLUXLINE_DB_PATH", "fluxline.sqlite3"), "Path to the SQLite catalog")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: ./fluxline.yaml when present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")

	root.AddCommand(
		newRunCmd(),
		newPlanCmd(),
		newListCmd(),
		newShowCmd(),
		newResetCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// loadFileConfig reads --config, or fluxline.yaml from the working directory
// when it exists.
func loadFileConfig() (*fluxline.FileConfig, error) {
	path := configPath
	if path == "" {
		if !utils.FileExists(fluxline.DefaultConfigFile) {
			return &fluxline.FileConfig{}, nil
		}
		path = fluxline.DefaultConfigFile
	}
	return fluxline.LoadConfigFile(path)
}

// createService applies the config file first so explicit flags and env vars win.
func createService(cmd *cobra.Command, fc *fluxline.FileConfig, extra ...fluxline.Option) (fluxline.Service, error) {
	opts := fc.Options()
	flags := cmd.Flags()
	if flags.Changed("dir") || os.Getenv("FLUXLINE_DIR") != "" || fc.ArtifactDir == "" {
		opts = append(opts, fluxline.WithArtifactDir(artifactDir))
	}
	if flags.Changed("db") || os.Getenv("FLUXLINE_DB_PATH") != "" || fc.DBPath == nil {
		opts = append(opts, fluxline.WithDBPath(dbPath))
	}
	opts = append(opts, extra...)
	return fluxline.NewService(opts...)
}

func newRunCmd() *cobra.Command {
	var lineList string
	var strict bool
	cmd := &cobra.Command{
		Use:   "run <spectrum.fits> <instrument> <grating> <star>",
		Short: "Measure the emission-line fluxes of a spectrum",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			if lineList == "" {
				lineList = fc.LineList
			}
			if lineList == "" {
				return errors.New("no line list: pass --lines or set line_list in the config file")
			}

			extra := []fluxline.Option{fluxline.WithReviewer(review.NewTerminal(os.Stdin, os.Stdout))}
			if cmd.Flags().Changed("strict") {
				extra = append(extra, fluxline.WithStrictFit(strict))
			}
			service, err := createService(cmd, fc, extra...)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return executeRun(ctx, os.Stdout, service, fluxline.RunRequest{
				SpectrumPath: args[0],
				LineListPath: lineList,
				Instrument:   args[1],
				Grating:      args[2],
				Star:         args[3],
			})
		},
	}
	cmd.Flags().StringVar(&lineList, "lines", "", "Reference line list CSV (Wavelength, Ion)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail the run when any line cannot be fit")
	return cmd
}

// executeRun runs the pipeline and prints its summary. A star whose noise
// decisions already exist still gets a summary, but the error is returned so
// the process exits non-zero.
func executeRun(ctx context.Context, w io.Writer, service fluxline.Service, req fluxline.RunRequest) error {
	fmt.Fprintf(w, "🔭 Processing %s (%s %s) for %s\n", req.SpectrumPath, req.Instrument, req.Grating, req.Star)
	res, err := service.Run(ctx, req)
	if errors.Is(err, fluxline.ErrAlreadyComputed) && res != nil {
		printResult(w, res)
		fmt.Fprintf(w, "\n   Run 'fluxline reset %s' to review the lines again.\n", res.Plan.Star)
		return err
	}
	if err != nil {
		return err
	}
	printResult(w, res)
	return nil
}

func printResult(w io.Writer, res *fluxline.Result) {
	fmt.Fprintf(w, "\n✅ %s\n", res.Plan)
	fmt.Fprintf(w, "   Doppler:    %.2f km/s (%s, %s matched lines)\n",
		res.Doppler.Velocity, res.Doppler.Method, humanize.Comma(int64(res.Doppler.Matches)))
	fmt.Fprintf(w, "   Peak width: %.4f Å (%.2f px), flux range ±%.4f Å\n",
		res.Width.Width, res.Width.WidthPixels, res.Width.FluxRange)
	fmt.Fprintf(w, "   Lines:      %s fitted, %s skipped\n",
		humanize.Comma(int64(len(res.Lines))), humanize.Comma(int64(len(res.Skipped))))
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "     - %s %.3f Å: %v\n", s.Ion, s.Wavelength, s.Err)
	}
	if res.Table != nil {
		fmt.Fprintln(w)
		printRecords(w, res.Table.Records())
	}
	for _, p := range res.Outputs {
		fmt.Fprintf(w, "   Wrote %s\n", p)
	}
	if res.RunID != "" {
		fmt.Fprintf(w, "   Catalog run %s\n", res.RunID)
	}
}

func printRecords(w io.Writer, records []models.FluxRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ION\tWAVELENGTH\tFLUX\tERROR\tBLENDED\tNOISE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%.3f\t%.4e\t%.4e\t%v\t%v\n", r.Ion, r.Wavelength, r.Flux, r.Error, r.Blended, r.Noise)
	}
	tw.Flush()
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <grating> <star>",
		Short: "Show what a run would do for a star",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			// planning only reads artifacts
			service, err := createService(cmd, fc, fluxline.WithDBPath(""))
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			plan, err := service.Plan(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(plan)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stars in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			service, err := createService(cmd, fc)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			stars, err := service.ListStars()
			if err != nil {
				return fmt.Errorf("failed to list stars: %w", err)
			}
			if len(stars) == 0 {
				fmt.Println("📭 No stars in the catalog yet.")
				return nil
			}

			fmt.Printf("📚 %s star(s):\n\n", humanize.Comma(int64(len(stars))))
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STAR\tINSTRUMENT\tGRATING\tDOPPLER\tLINES\tNOISE\tRUNS\tLAST RUN")
			for _, s := range stars {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f km/s\t%d\t%d\t%d\t%s\n",
					s.Name, s.Instrument, s.Grating, s.Doppler, s.Lines, s.NoiseLines, s.Runs, humanize.Time(s.LastRun))
			}
			return tw.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <star>",
		Short: "Print the latest flux table of a star",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			service, err := createService(cmd, fc)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			detail, err := service.GetStar(args[0])
			if err != nil {
				return err
			}
			m := detail.Meta
			fmt.Printf("🌟 %s  %s %s  (%s)\n", m.Star, m.Instrument, m.Grating, humanize.Time(m.Date))
			fmt.Printf("   Run:        %s\n", detail.RunID)
			fmt.Printf("   Spectrum:   %s\n", m.Filename)
			fmt.Printf("   Doppler:    %.2f km/s\n", m.Doppler)
			fmt.Printf("   Peak width: %.4f Å, flux range ±%.4f Å\n", m.PeakWidth, m.FluxRange)
			fmt.Printf("   Noise flux: %s\n\n", m.UpperLimit)
			printRecords(os.Stdout, detail.Records)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var doppler bool
	cmd := &cobra.Command{
		Use:   "reset <star>",
		Short: "Forget a star's noise decisions and catalog entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			service, err := createService(cmd, fc)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			if err := service.Reset(args[0], doppler); err != nil {
				return err
			}
			fmt.Printf("🗑️  Reset %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&doppler, "doppler", false, "Also forget the stored Doppler velocity")
	return cmd
}
