package state

import (
	"context"
	"testing"
	"time"
)

func TestVisitedStoreKeys(t *testing.T) {
	t.Parallel()

	store := NewVisitedStore(nil, "catalog:visited:", "run-1", time.Hour)

	global := store.Set("global")
	brand := store.Set("brand:https://shop.example/brand/acme")

	if global.key != "catalog:visited:run-1:global" {
		t.Errorf("unexpected key %s", global.key)
	}
	if brand.key != "catalog:visited:run-1:brand:https://shop.example/brand/acme" {
		t.Errorf("unexpected key %s", brand.key)
	}
	if len(store.keys) != 2 {
		t.Errorf("expected 2 tracked keys, got %d", len(store.keys))
	}
}

func TestCleanupWithoutSets(t *testing.T) {
	t.Parallel()

	store := NewVisitedStore(nil, "catalog:visited:", "run-1", time.Hour)
	if err := store.Cleanup(context.Background()); err != nil {
		t.Errorf("expected no-op cleanup, got %v", err)
	}
}
