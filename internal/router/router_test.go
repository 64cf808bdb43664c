package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	mw "github.com/guardiancare/server/internal/middleware"
)

func TestPanickingRequestIsCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(zap.NewNop(), mw.NewMetrics(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), Handlers{})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`guardiancare_http_requests_total{method="GET",route="/boom",status="500"} 1`)
}
