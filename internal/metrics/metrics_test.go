package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"smart-pantry-api/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveImport(t *testing.T) {
	m := New()
	m.ObserveImport(&model.ImportOutcome{
		SuccessCount: 2,
		FailedCount:  3,
		Errors: []model.ImportError{
			{Kind: model.MissingField},
			{Kind: model.UnknownCategory},
			{Kind: model.UnknownCategory},
		},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importedRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectedRecords.WithLabelValues("MissingField")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejectedRecords.WithLabelValues("UnknownCategory")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/abc", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pantry_http_request_duration_seconds_count{method="GET",route="/items/{id}",status="418"} 1`)
}
