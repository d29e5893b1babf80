package db

import (
	"math"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
)

// ObservationRow is the stored form of a dataset.Observation. Value is NULL
// for non-numeric source values.
type ObservationRow struct {
	ID    uint     `gorm:"primaryKey" json:"id"`
	ISO3C string   `gorm:"column:iso3c;size:8;index:idx_observations_key" json:"iso3c"`
	Year  int      `gorm:"index:idx_observations_key" json:"year"`
	Value *float64 `json:"value"`
	Type  string   `json:"type"`
}

func (ObservationRow) TableName() string {
	return Schema + ".observations"
}

// RowFromObservation converts for storage; NaN and infinities become NULL.
func RowFromObservation(o dataset.Observation) ObservationRow {
	r := ObservationRow{ISO3C: o.ISO3C, Year: o.Year, Type: o.Type}
	if !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0) {
		v := o.Value
		r.Value = &v
	}
	return r
}

// Observation converts back; NULL and infinities become NaN.
func (r ObservationRow) Observation() dataset.Observation {
	o := dataset.Observation{ISO3C: r.ISO3C, Year: r.Year, Type: r.Type, Value: math.NaN()}
	if r.Value != nil && !math.IsInf(*r.Value, 0) {
		o.Value = *r.Value
	}
	return o
}
