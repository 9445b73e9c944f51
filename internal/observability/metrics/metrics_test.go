package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "123"),
		attribute.String("representing_country_id", "456"),
		attribute.String("operation", "reorder"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("org_id"), attrs[0].Key)
	assert.Equal(t, attribute.Key("operation"), attrs[1].Key)
}

func TestHTTPMetricsCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinMiddleware(m))
	router.GET("/api/representing-countries/:id/workflow", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/representing-countries/"+id+"/workflow", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/representing-countries/:id/workflow", "200"))
	assert.Equal(t, float64(2), count)
}

func TestHTTPMetricsRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(reg)
	require.NoError(t, err)

	_, err = NewHTTPMetrics(reg)
	require.Error(t, err)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordWorkflowMutation(context.Background(), "1", "add_status")
	m.RecordCacheLookup(context.Background(), true)

	live, err := New(Config{ServiceName: "pathway"}, noop.NewMeterProvider())
	require.NoError(t, err)
	live.RecordSeededStatuses(context.Background(), "1", 12)
}
