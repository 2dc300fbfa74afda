package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/characters/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/characters/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	m.DomainEvents.WithLabelValues("PLAYER_JOINED").Inc()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	want := `http_requests_total{method="GET",path="/api/characters/{id}",status="418"} 2`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
	if !strings.Contains(body, `redsheet_domain_events_total{type="PLAYER_JOINED"} 1`) {
		t.Error("metrics output missing domain event counter")
	}
}
