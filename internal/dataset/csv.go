package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RequiredColumns lists the header names ParseObservations needs.
var RequiredColumns = []string{"iso3c", "year", "value", "type"}

// ParseObservations reads the observation table. Extra columns are ignored.
// A value that is empty or not numeric becomes NaN; a row whose year is not
// an integer is dropped and counted in skipped.
func ParseObservations(src io.Reader) (obs []Observation, skipped int, err error) {
	r := csv.NewReader(bufio.NewReader(src))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("%w: empty csv", ErrMissingColumn)
	}
	if err != nil {
		return nil, 0, err
	}
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range RequiredColumns {
		if _, ok := col[k]; !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, k)
		}
	}

	for row := 2; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("row %d: %w", row, err)
		}
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		year, ok := parseYear(get("year"))
		if !ok {
			skipped++
			continue
		}
		obs = append(obs, Observation{
			ISO3C: get("iso3c"),
			Year:  year,
			Value: parseValue(get("value")),
			Type:  get("type"),
		})
	}
	return obs, skipped, nil
}

func parseYear(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseValue(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
