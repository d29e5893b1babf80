package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// BoundarySource produces the region set.
type BoundarySource interface {
	Boundaries(ctx context.Context) ([]Region, error)
}

// ObservationSource produces the observation rows. skipped counts rows the
// source dropped as unaddressable.
type ObservationSource interface {
	Observations(ctx context.Context) (obs []Observation, skipped int, err error)
}

// GeoJSONSource reads a FeatureCollection from an http(s) URL or a file path.
type GeoJSONSource struct {
	Location string
	Client   *http.Client
}

func (s GeoJSONSource) Boundaries(ctx context.Context) ([]Region, error) {
	b, err := readAll(ctx, s.Client, s.Location)
	if err != nil {
		return nil, err
	}
	return ParseRegions(b)
}

// CSVSource reads the observation table from an http(s) URL or a file path.
type CSVSource struct {
	Location string
	Client   *http.Client
}

func (s CSVSource) Observations(ctx context.Context) ([]Observation, int, error) {
	b, err := readAll(ctx, s.Client, s.Location)
	if err != nil {
		return nil, 0, err
	}
	return ParseObservations(bytes.NewReader(b))
}

func isRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// readAll fetches loc. There is no retry; callers control cancellation
// through ctx.
func readAll(ctx context.Context, client *http.Client, loc string) ([]byte, error) {
	if !isRemote(loc) {
		return os.ReadFile(loc)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", loc, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
