package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/risk"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestObserveStage(t *testing.T) {
	m := New()

	m.ObserveStage(analysis.StageSimilarity, time.Millisecond, nil)
	m.ObserveStage(analysis.StageMLPrediction, time.Millisecond, errors.New("unavailable"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.stageFailures.WithLabelValues(analysis.StageSimilarity)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageFailures.WithLabelValues(analysis.StageMLPrediction)))
}

func TestObserveAnalysis(t *testing.T) {
	m := New()
	level := risk.Dangerous

	m.ObserveAnalysis(&analysis.Result{AllergyRisk: &analysis.AllergyRisk{FinalRiskLevel: &level}})
	m.ObserveAnalysis(&analysis.Result{DegradedStages: []string{analysis.StageMLPrediction}, Cached: false})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.riskLevels.WithLabelValues("dangerous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("true", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("false", "false")))
}

func TestObserveRetrain(t *testing.T) {
	m := New()

	m.ObserveRetrain("allergy_risk", time.Second, nil)
	m.ObserveRetrain("allergy_risk", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrains.WithLabelValues("allergy_risk", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrains.WithLabelValues("allergy_risk", "failure")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/ping/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "allergy_guard_http_requests_total"))
}
