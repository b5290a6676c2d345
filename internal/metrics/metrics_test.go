package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAPIRequest(t *testing.T) {
	c := NewCollector("rentacars")
	c.ObserveAPIRequest("clientes", "list", 200, 10*time.Millisecond)
	c.ObserveAPIRequest("clientes", "list", 200, 10*time.Millisecond)
	c.ObserveAPIRequest("rentas", "create", 0, time.Millisecond)

	if got := testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("clientes", "list", "200")); got != 2 {
		t.Fatalf("clientes list = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("rentas", "create", "error")); got != 1 {
		t.Fatalf("rentas create errors = %v, want 1", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveAPIRequest("carros", "list", 500, time.Second)
	c.SetActiveSessions(3)
	c.AddSwept(1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("rentacars")
	c.SetActiveSessions(4)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "rentacars_console_sessions_active 4") {
		t.Fatalf("gauge missing from output:\n%s", body)
	}
}
