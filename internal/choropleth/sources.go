package choropleth

import (
	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/db"
)

// OpenSources returns the boundary and observation sources named by cfg.
// The returned close func releases the database pool when one was opened.
func OpenSources(cfg config.Config) (dataset.BoundarySource, dataset.ObservationSource, func() error, error) {
	boundaries := dataset.GeoJSONSource{Location: cfg.GeoJSONURL}
	noop := func() error { return nil }

	switch cfg.ObservationSource {
	case config.SourcePostgres:
		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		store := db.ObservationStore{DB: gdb, Years: yearRange(cfg.YearMin, cfg.YearMax)}
		return boundaries, store, sqlDB.Close, nil
	case config.SourceCSV, "":
		return boundaries, dataset.CSVSource{Location: cfg.DataCSV}, noop, nil
	default:
		return nil, nil, nil, config.ErrUnknownSource
	}
}

func yearRange(lo, hi int) []int64 {
	if hi < lo {
		return nil
	}
	out := make([]int64, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		out = append(out, int64(y))
	}
	return out
}
