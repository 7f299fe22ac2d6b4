package kit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("linkcart", ChiRoutePatternOrPath))
	r.Get("/links/{key}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "key") == "9" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("hello"))
	})

	for _, path := range []string{"/links/1", "/links/2", "/links/9"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("linkcart", "GET", "/links/{key}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("linkcart", "GET", "/links/{key}", "404")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Bytes.WithLabelValues("linkcart", "/links/{key}")))
	assert.Zero(t, testutil.ToFloat64(m.InFlight.WithLabelValues("linkcart")))

	n, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStatusWriter_Flush(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr}

	var w http.ResponseWriter = sw
	f, ok := w.(http.Flusher)
	require.True(t, ok)
	f.Flush()

	assert.True(t, rr.Flushed)
	assert.Equal(t, http.StatusOK, sw.code())
}
