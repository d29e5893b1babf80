package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	RendersTotal.WithLabelValues("svg").Inc()
	TooltipsTotal.WithLabelValues("data").Inc()
	DatasetSize.WithLabelValues("regions").Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"choropleth_renders_total",
		"choropleth_tooltips_total",
		"choropleth_dataset_size",
		"choropleth_load_duration_ms",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestCounters(t *testing.T) {
	read := func() float64 {
		var m dto.Metric
		require.NoError(t, YearChangesTotal.Write(&m))
		return m.GetCounter().GetValue()
	}
	before := read()
	YearChangesTotal.Inc()
	assert.Equal(t, before+1, read())
}
