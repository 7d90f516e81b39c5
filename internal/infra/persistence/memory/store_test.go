package memory

import (
	"context"
	"errors"
	"testing"

	"exhibitcore/pkg/domain"
)

func TestStoreLoadSaveCopies(t *testing.T) {
	ctx := context.Background()
	by := "Sgt. Otieno"
	store := NewStore(domain.Exhibit{ID: "a", SerialNumber: "001-03-2025", CollectedBy: &by})

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	*loaded[0].CollectedBy = "tampered"
	loaded[0].SerialNumber = "tampered"
	again, _ := store.LoadAll(ctx)
	if again[0].SerialNumber != "001-03-2025" || *again[0].CollectedBy != by {
		t.Fatalf("load returned shared state: %+v", again[0])
	}

	next := []domain.Exhibit{{ID: "b"}}
	if err := store.SaveAll(ctx, next); err != nil {
		t.Fatalf("save: %v", err)
	}
	next[0].ID = "changed"
	after, _ := store.LoadAll(ctx)
	if len(after) != 1 || after[0].ID != "b" {
		t.Fatalf("save kept caller slice: %+v", after)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one save, got %d", store.Saves())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStoreEmptyLoadIsNotNil(t *testing.T) {
	got, err := NewStore().LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore()
	if _, err := store.LoadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation on load, got %v", err)
	}
	if err := store.SaveAll(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation on save, got %v", err)
	}
}
