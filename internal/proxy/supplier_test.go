package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticSupplierRotates(t *testing.T) {
	t.Parallel()

	supplier := NewStaticSupplier([]string{"http://p1:8080", "http://p2:8080"})

	got := []string{supplier.Get(), supplier.Get(), supplier.Get()}
	want := []string{"http://p1:8080", "http://p2:8080", "http://p1:8080"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if supplier.Len() != 2 {
		t.Errorf("expected 2 proxies, got %d", supplier.Len())
	}
}

func TestEmptySupplier(t *testing.T) {
	t.Parallel()

	supplier := NewProxySupplier(context.Background(), nil, "http://shop.invalid/")
	if supplier.Get() != "" || supplier.Len() != 0 {
		t.Error("expected an empty supplier to hand out nothing")
	}
}

func TestNewProxySupplierDropsDeadProxies(t *testing.T) {
	t.Parallel()

	// Any server that answers an absolute-form request acts as a plain HTTP proxy here.
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer alive.Close()

	refusing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer refusing.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	supplier := NewProxySupplier(context.Background(), []string{deadURL, alive.URL, refusing.URL}, "http://shop.invalid/")

	if supplier.Len() != 1 {
		t.Fatalf("expected 1 usable proxy, got %d", supplier.Len())
	}
	if got := supplier.Get(); got != alive.URL {
		t.Errorf("expected %s, got %s", alive.URL, got)
	}
}
