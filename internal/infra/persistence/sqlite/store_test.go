package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"exhibitcore/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "nested", "exhibits.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleExhibit(id, serial string) domain.Exhibit {
	return domain.Exhibit{
		ID:               id,
		SerialNumber:     serial,
		DateReceived:     domain.MustParseDate("2025-03-14"),
		Station:          "Central",
		Remarks:          domain.RemarksUnexploited,
		CollectionStatus: domain.StatusNotCollected,
	}
}

func TestStoreEmptyDatabaseLoadsEmpty(t *testing.T) {
	store := newTestStore(t)
	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty collection, got %#v", got)
	}
}

func TestStoreSaveLoadAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exhibits.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.SaveAll(ctx, []domain.Exhibit{sampleExhibit("a", "001-03-2025")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveAll(ctx, []domain.Exhibit{sampleExhibit("a", "001-03-2025"), sampleExhibit("b", "002-03-2025")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[1].SerialNumber != "002-03-2025" {
		t.Fatalf("unexpected reload %+v", got)
	}
	var rows int
	if err := reopened.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single state row, got %d", rows)
	}
}

func TestStoreCorruptPayload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.DB().ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES('exhibits', '{broken')`); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}
	if _, err := store.LoadAll(ctx); err == nil {
		t.Fatalf("expected decode error for corrupt payload")
	}
}

func TestStoreClosedDatabase(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_ = store.Close()
	if _, err := store.LoadAll(ctx); err == nil {
		t.Fatalf("expected load error after close")
	}
	if err := store.SaveAll(ctx, nil); err == nil {
		t.Fatalf("expected save error after close")
	}
}
