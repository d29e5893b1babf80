package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/EmpoweredVote/EV-Choropleth/internal/choropleth"
	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/controller"
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type options struct {
	year   string
	all    bool
	outDir string
	jobs   int
}

// sourceFunc lets tests swap the configured sources for fixtures.
type sourceFunc func(config.Config) (dataset.BoundarySource, dataset.ObservationSource, func() error, error)

func main() {
	_ = godotenv.Load(".env.local")
	if err := newRootCmd(choropleth.OpenSources).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(open sourceFunc) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render choropleth frames to SVG files",
		Long: `render loads the configured boundaries and observations and writes one SVG
per requested year to --out as <year>.svg. Configuration is read from the
environment (and CONFIG_FILE) exactly as the server reads it.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.all == (o.year != "") {
				return fmt.Errorf("exactly one of --year or --all is required")
			}
			return run(cmd, o, open)
		},
	}
	cmd.Flags().StringVar(&o.year, "year", "", "Year to render (clamped to the configured range)")
	cmd.Flags().BoolVar(&o.all, "all", false, "Render every year in the configured range")
	cmd.Flags().StringVar(&o.outDir, "out", "frames", "Output directory")
	cmd.Flags().IntVar(&o.jobs, "jobs", 4, "Frames rendered in parallel")
	return cmd
}

func run(cmd *cobra.Command, o *options, open sourceFunc) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel).Named("render")
	defer func() { _ = log.Sync() }()

	years, err := selectYears(o, cfg)
	if err != nil {
		return err
	}

	boundaries, observations, closeFn, err := open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	svc, err := choropleth.Init(cmd.Context(), cfg, boundaries, observations, nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return err
	}

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(o.jobs, 1))
	for _, y := range years {
		y := y
		g.Go(func() error {
			body, err := svc.RenderYear(y)
			if err != nil {
				return fmt.Errorf("render %d: %w", y, err)
			}
			path := filepath.Join(o.outDir, strconv.Itoa(y)+".svg")
			if err := os.WriteFile(path, body, 0o644); err != nil {
				return err
			}
			log.Debug("frame written", zap.Int("year", y), zap.String("path", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d frame(s) to %s\n", len(years), o.outDir)
	return nil
}

func selectYears(o *options, cfg config.Config) ([]int, error) {
	if o.all {
		years := make([]int, 0, cfg.YearMax-cfg.YearMin+1)
		for y := cfg.YearMin; y <= cfg.YearMax; y++ {
			years = append(years, y)
		}
		return years, nil
	}
	y, err := controller.ParseYear(o.year, cfg.YearMin, cfg.YearMax)
	if err != nil {
		return nil, err
	}
	return []int{y}, nil
}
