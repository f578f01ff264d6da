package prometheus

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-storeauth/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_CountsByOperationAndStatus(t *testing.T) {
	recorder, err := NewRecorder(Config{})
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	recorder.IncCounter(ctx, "storeauth.get_store.total", 1, map[string]string{"operation": "get_store", "status": "success"})
	recorder.IncCounter(ctx, "storeauth.get_store.total", 2, map[string]string{"operation": "get_store", "status": "success"})
	recorder.IncCounter(ctx, "storeauth.uninstall_store.total", 1, map[string]string{"status": "failure"})
	recorder.ObserveHistogram(ctx, "storeauth.get_store.duration_ms", 12, map[string]string{"operation": "get_store", "status": "success"})

	if got := testutil.ToFloat64(recorder.operations.WithLabelValues("get_store", "success")); got != 3 {
		t.Fatalf("expected 3 successful get_store operations, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.operations.WithLabelValues("uninstall_store", "failure")); got != 1 {
		t.Fatalf("expected operation derived from metric name, got %v", got)
	}
	if count := testutil.CollectAndCount(recorder.durations); count != 1 {
		t.Fatalf("expected one histogram series, got %d", count)
	}
}

func TestRecorder_ObservesServiceOperations(t *testing.T) {
	recorder, err := NewRecorder(Config{Namespace: "shop"})
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc, err := core.NewService(core.DefaultConfig(),
		core.WithTokenRepository(core.NewMemoryTokenRepository()),
		core.WithMetricsRecorder(recorder),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.DoesStoreExist(context.Background(), "acme.myshopify.com"); err != nil {
		t.Fatalf("does store exist: %v", err)
	}
	if count := testutil.CollectAndCount(recorder.operations); count != 1 {
		t.Fatalf("expected one counter series, got %d", count)
	}

	res := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(res, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "shop_operations_total") {
		t.Fatalf("expected exposed counter, got:\n%s", body)
	}
}

func TestNewRecorder_DuplicateRegistrationFails(t *testing.T) {
	first, err := NewRecorder(Config{})
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	if _, err := NewRecorder(Config{Registry: first.Registry()}); err == nil {
		t.Fatalf("expected duplicate collector registration to fail")
	}
}
