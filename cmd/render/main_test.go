package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/controller"
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worldJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"USA","properties":{"name":"United States of America"},
 "geometry":{"type":"Polygon","coordinates":[[[-100,30],[-80,30],[-80,45],[-100,45],[-100,30]]]}}
]}`

const obsCSV = "iso3c,year,value,type\nUSA,1999,100,x\nUSA,2000,50,x\n"

func fixtureSources(t *testing.T) sourceFunc {
	t.Helper()
	dir := t.TempDir()
	geo := filepath.Join(dir, "world.geojson")
	csv := filepath.Join(dir, "obs.csv")
	require.NoError(t, os.WriteFile(geo, []byte(worldJSON), 0o644))
	require.NoError(t, os.WriteFile(csv, []byte(obsCSV), 0o644))

	return func(config.Config) (dataset.BoundarySource, dataset.ObservationSource, func() error, error) {
		return dataset.GeoJSONSource{Location: geo}, dataset.CSVSource{Location: csv}, func() error { return nil }, nil
	}
}

func execute(t *testing.T, open sourceFunc, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("YEAR_MIN", "1999")
	t.Setenv("YEAR_MAX", "2001")
	t.Setenv("DEFAULT_YEAR", "1999")
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderOneYear(t *testing.T) {
	out := t.TempDir()
	msg, err := execute(t, fixtureSources(t), "--year", "2000", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, msg, "Rendered 1 frame(s)")

	b, err := os.ReadFile(filepath.Join(out, "2000.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `data-id="USA"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(b)), "</svg>"))
}

func TestRenderAll(t *testing.T) {
	out := t.TempDir()
	_, err := execute(t, fixtureSources(t), "--all", "--out", out, "--jobs", "2")
	require.NoError(t, err)

	for _, name := range []string{"1999.svg", "2000.svg", "2001.svg"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestRenderFlags(t *testing.T) {
	_, err := execute(t, fixtureSources(t))
	assert.Error(t, err)

	_, err = execute(t, fixtureSources(t), "--all", "--year", "2000")
	assert.Error(t, err)

	_, err = execute(t, fixtureSources(t), "--year", "abc", "--out", t.TempDir())
	assert.ErrorIs(t, err, controller.ErrInvalidYear)
}

func TestSelectYears(t *testing.T) {
	cfg := config.Default()
	years, err := selectYears(&options{year: "1800"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1999}, years)

	years, err = selectYears(&options{all: true}, cfg)
	require.NoError(t, err)
	assert.Len(t, years, 30)
}
