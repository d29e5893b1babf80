package choropleth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/EmpoweredVote/EV-Choropleth/internal/cache"
	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/controller"
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worldJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"USA","properties":{"name":"United States of America"},
 "geometry":{"type":"Polygon","coordinates":[[[-100,30],[-80,30],[-80,45],[-100,45],[-100,30]]]}},
{"type":"Feature","id":"FRA","properties":{"name":"France"},
 "geometry":{"type":"Polygon","coordinates":[[[0,43],[5,43],[5,50],[0,50],[0,43]]]}},
{"type":"Feature","id":"NZL","properties":{"name":"New Zealand"},
 "geometry":{"type":"Polygon","coordinates":[[[170,-45],[178,-45],[178,-35],[170,-35],[170,-45]]]}}
]}`

type stubBoundaries struct {
	err error
}

func (s stubBoundaries) Boundaries(context.Context) ([]dataset.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	return dataset.ParseRegions([]byte(worldJSON))
}

type stubObservations struct {
	obs []dataset.Observation
	err error
}

func (s stubObservations) Observations(context.Context) ([]dataset.Observation, int, error) {
	return s.obs, 0, s.err
}

// countingCache records how often each path is taken.
type countingCache struct {
	mu         sync.Mutex
	inner      *cache.Memory
	hits, sets int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.inner.Get(ctx, key)
	c.mu.Lock()
	if ok {
		c.hits++
	}
	c.mu.Unlock()
	return v, ok, err
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.inner.Set(ctx, key, value)
}

func testObservations() []dataset.Observation {
	return []dataset.Observation{
		{ISO3C: "USA", Year: 1999, Value: 100, Type: "x"},
		{ISO3C: "NZL", Year: 1999, Value: 10, Type: "x"},
		{ISO3C: "USA", Year: 2000, Value: 50, Type: "x"},
	}
}

func newTestService(t *testing.T, c cache.SVGCache) *Service {
	t.Helper()
	svc, err := Init(context.Background(), config.Default(), stubBoundaries{}, stubObservations{obs: testObservations()}, c)
	require.NoError(t, err)
	return svc
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func getJSON(t *testing.T, c *http.Client, url string, v any) int {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postYear(t *testing.T, c *http.Client, url, body string) (*http.Response, controller.Frame) {
	t.Helper()
	resp, err := c.Post(url+"/api/year", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var f controller.Frame
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	}
	return resp, f
}

func TestInit_LoadFailure(t *testing.T) {
	svc, err := Init(context.Background(), config.Default(),
		stubBoundaries{err: errors.New("boundary fetch failed")},
		stubObservations{obs: testObservations()}, nil)

	assert.Nil(t, svc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundary fetch failed")
}

func TestNewService_UnknownPalette(t *testing.T) {
	cfg := config.Default()
	cfg.Palette = "Rainbow"
	_, err := NewService(cfg, &dataset.Dataset{}, nil)
	assert.ErrorIs(t, err, config.ErrUnknownPalette)
}

func TestFingerprint_ChangesWithData(t *testing.T) {
	cfg := config.Default()
	a := &dataset.Dataset{Observations: testObservations()}
	b := &dataset.Dataset{Observations: testObservations()[:2]}

	assert.Equal(t, fingerprint(cfg, a), fingerprint(cfg, a))
	assert.NotEqual(t, fingerprint(cfg, a), fingerprint(cfg, b))

	cfg2 := cfg
	cfg2.Palette = "Reds"
	assert.NotEqual(t, fingerprint(cfg, a), fingerprint(cfg2, a))
}

func TestHealthHandler(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()

	var h healthResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.Client(), srv.URL+"/healthz", &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Regions)
	assert.Equal(t, 3, h.Observations)
	assert.Len(t, h.Fingerprint, 16)
}

func TestRegionsHandler(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()

	var shapes []render.Shape
	require.Equal(t, http.StatusOK, getJSON(t, srv.Client(), srv.URL+"/api/regions", &shapes))
	require.Len(t, shapes, 3)
	assert.Equal(t, "USA", shapes[0].ID)
	assert.True(t, strings.HasPrefix(shapes[0].D, "M"))
}

func TestMapSVGHandler(t *testing.T) {
	cc := &countingCache{inner: cache.NewMemory()}
	srv := httptest.NewServer(newTestService(t, cc).SetupRoutes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/map.svg?year=1999")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Server-Timing"), "render;dur=")
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	svg := string(body)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<?xml"))
	assert.Contains(t, svg, `data-id="FRA"`)
	assert.Contains(t, svg, `fill="#ccc"`)
	assert.Contains(t, svg, `id="legend"`)
	assert.Contains(t, svg, ">Population<")

	// Second request is served from the cache with the same ETag.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/map.svg?year=1999", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, etag, resp.Header.Get("ETag"))
	assert.Equal(t, 1, cc.hits)
	assert.Equal(t, 1, cc.sets)
}

func TestMapSVGHandler_Years(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()

	fetch := func(q string) (int, string) {
		resp, err := srv.Client().Get(srv.URL + "/map.svg" + q)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, _ := fetch("?year=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	// No query means the default year.
	code, def := fetch("")
	require.Equal(t, http.StatusOK, code)
	_, y1999 := fetch("?year=1999")
	assert.Equal(t, y1999, def)

	// 2010 has no data, so the default year's colours remain.
	_, y2010 := fetch("?year=2010")
	assert.Equal(t, y1999, y2010)

	// Out of range clamps instead of failing.
	code, _ = fetch("?year=1900")
	assert.Equal(t, http.StatusOK, code)
}

func TestSessionFlow(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), `min="1999"`)
	assert.Contains(t, string(page), `max="2028"`)
	assert.Contains(t, string(page), "<svg")
	assert.Contains(t, string(page), config.DefaultTitle)
	assert.Contains(t, string(page), `<div id="plot">`)
	assert.Contains(t, string(page), `<div id="year-slider-title">Select Year</div>`)
	assert.Contains(t, string(page), `<div id="current-year">1999</div>`)

	resp, frame := postYear(t, client, srv.URL, `{"year":"2000"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2000, frame.Year)
	assert.Equal(t, "2000", frame.Label)
	assert.False(t, frame.Unchanged)
	require.NotNil(t, frame.Legend)
	assert.Equal(t, "50", frame.Legend.MinLabel)

	// The same session sees the new year.
	var state controller.Frame
	require.Equal(t, http.StatusOK, getJSON(t, client, srv.URL+"/api/state", &state))
	assert.Equal(t, 2000, state.Year)

	// A different client has its own view.
	other := newClient(t)
	require.Equal(t, http.StatusOK, getJSON(t, other, srv.URL+"/api/state", &state))
	assert.Equal(t, 1999, state.Year)
}

func getPage(t *testing.T, c *http.Client, url string) string {
	t.Helper()
	resp, err := c.Get(url + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func TestPageHandler_ReloadResetsYear(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	assert.Contains(t, getPage(t, client, srv.URL), `value="1999"`)

	resp, frame := postYear(t, client, srv.URL, `{"year":"2000"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2000, frame.Year)

	page := getPage(t, client, srv.URL)
	assert.Contains(t, page, `value="1999"`)
	assert.NotContains(t, page, `value="2000"`)

	var state controller.Frame
	require.Equal(t, http.StatusOK, getJSON(t, client, srv.URL+"/api/state", &state))
	assert.Equal(t, 1999, state.Year)
}

func TestYearHandler_Inputs(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	tests := []struct {
		body     string
		wantCode int
		wantYear int
	}{
		{`{"year":"2000"}`, http.StatusOK, 2000},
		{`{"year":1999}`, http.StatusOK, 1999},
		{`{"year":"3000"}`, http.StatusOK, 2028},
		{`{"year":"abc"}`, http.StatusBadRequest, 0},
		{`{"year":true}`, http.StatusBadRequest, 0},
		{`{}`, http.StatusBadRequest, 0},
		{`not json`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			resp, f := postYear(t, client, srv.URL, tt.body)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantYear, f.Year)
			}
		})
	}
}

func TestYearHandler_NoDataKeepsColours(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	_, before := postYear(t, client, srv.URL, `{"year":"1999"}`)
	_, after := postYear(t, client, srv.URL, `{"year":"2010"}`)

	assert.Equal(t, 2010, after.Year)
	assert.True(t, after.Unchanged)
	assert.Equal(t, 1999, after.ScaleYear)
	assert.Equal(t, before.Fills, after.Fills)
	assert.Equal(t, before.Legend, after.Legend)
}

func TestTooltipHandlers(t *testing.T) {
	srv := httptest.NewServer(newTestService(t, nil).SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	var tip controller.Tooltip
	require.Equal(t, http.StatusOK, getJSON(t, client, srv.URL+"/api/tooltip/USA", &tip))
	assert.True(t, tip.HasData)
	assert.Equal(t, []string{"United States of America", "Year: 1999", "Value: 100", "Type: x"}, tip.Lines)

	require.Equal(t, http.StatusOK, getJSON(t, client, srv.URL+"/api/tooltip/FRA", &tip))
	assert.False(t, tip.HasData)
	assert.Equal(t, []string{"France", controller.NoData}, tip.Lines)

	assert.Equal(t, http.StatusNotFound, getJSON(t, client, srv.URL+"/api/tooltip/XXX", &tip))

	x, y := render.NewMercator(960, 600).Project(-90, 37)
	url := srv.URL + "/api/tooltip?x=" + strconv.FormatFloat(x, 'f', 2, 64) + "&y=" + strconv.FormatFloat(y, 'f', 2, 64)
	tip = controller.Tooltip{}
	require.Equal(t, http.StatusOK, getJSON(t, client, url, &tip))
	assert.True(t, tip.Visible)
	assert.Equal(t, "USA", tip.RegionID)
	assert.InDelta(t, y+10, tip.Y, 0.01)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, client, srv.URL+"/api/tooltip?x=a&y=1", &tip))

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/tooltip", nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	tip = controller.Tooltip{Visible: true}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tip))
	assert.False(t, tip.Visible)
}

func TestInfiniteObservationServesAsMissing(t *testing.T) {
	obs := append(testObservations(), dataset.Observation{ISO3C: "FRA", Year: 2000, Value: math.Inf(1), Type: "x"})
	svc, err := Init(context.Background(), config.Default(), stubBoundaries{}, stubObservations{obs: obs}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(svc.SetupRoutes())
	defer srv.Close()
	client := newClient(t)

	resp, frame := postYear(t, client, srv.URL, `{"year":"2000"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, frame.Legend)
	assert.Equal(t, "50", frame.Legend.MaxLabel)
	assert.False(t, frame.Fills[1].HasData)

	var tip controller.Tooltip
	require.Equal(t, http.StatusOK, getJSON(t, client, srv.URL+"/api/tooltip/FRA", &tip))
	assert.Equal(t, []string{"France", controller.NoData}, tip.Lines)

	res, err := client.Get(srv.URL + "/map.svg?year=2000")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.NotContains(t, string(body), "Inf")
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	svc := newTestService(t, nil)

	rec := httptest.NewRecorder()
	svc.writeJSON(rec, map[string]float64{"value": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	svc.writeJSON(rec, map[string]int{"value": 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"value":1}`, rec.Body.String())
}

func TestPage_YearRequestsAreSerialized(t *testing.T) {
	// Slider moves made while a request is in flight collapse into one
	// follow-up request, and stale responses are never drawn.
	assert.Contains(t, pageSource, "if (sending) { queued = value; return; }")
	assert.Contains(t, pageSource, "if (f && queued === null) applyFrame(f);")
	assert.Contains(t, pageSource, "sendYear(next);")
}
