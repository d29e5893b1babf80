package db

import (
	"context"
	"fmt"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ObservationStore reads observations from Postgres. Rows come back in
// insertion order so duplicate keys resolve the same way as the CSV.
type ObservationStore struct {
	DB *gorm.DB
	// Years restricts the rows loaded; empty loads everything.
	Years []int64
}

func (s ObservationStore) Observations(ctx context.Context) ([]dataset.Observation, int, error) {
	q := s.DB.WithContext(ctx).Model(&ObservationRow{})
	if len(s.Years) > 0 {
		q = q.Where("year = ANY(?)", pq.Array(s.Years))
	}

	var rows []ObservationRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("observation query failed: %w", err)
	}

	out := make([]dataset.Observation, len(rows))
	for i, r := range rows {
		out[i] = r.Observation()
	}
	return out, 0, nil
}
