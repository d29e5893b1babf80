package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/EmpoweredVote/EV-Choropleth/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Load fetches boundaries and observations concurrently and builds the
// index once both have arrived. If either fetch fails the whole load fails
// with that error and nothing is returned.
func Load(ctx context.Context, boundaries BoundarySource, observations ObservationSource) (*Dataset, error) {
	var (
		regions []Region
		obs     []Observation
		skipped int
	)
	log := logger.L().Named("loader")

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		start := time.Now()
		r, err := boundaries.Boundaries(egCtx)
		if err != nil {
			return fmt.Errorf("load boundaries: %w", err)
		}
		regions = r
		logger.LogLoad("loader.boundaries", len(r), time.Since(start))
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		o, n, err := observations.Observations(egCtx)
		if err != nil {
			return fmt.Errorf("load observations: %w", err)
		}
		obs, skipped = o, n
		logger.LogLoad("loader.observations", len(o), time.Since(start))
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ix, dupes := BuildIndex(obs)
	if dupes > 0 {
		log.Warn("duplicate (region, year) rows; later rows win", zap.Int("duplicates", dupes))
	}
	if skipped > 0 {
		log.Warn("rows with a non-integer year were skipped", zap.Int("skipped", skipped))
	}

	return &Dataset{
		Regions:      regions,
		Observations: obs,
		Index:        ix,
		Duplicates:   dupes,
		Skipped:      skipped,
	}, nil
}
