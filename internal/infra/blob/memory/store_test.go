package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"exhibitcore/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	md := map[string]string{"count": "2"}
	info, err := s.Put(ctx, "exhibits/a.json", bytes.NewReader([]byte("[1,2]")), core.PutOptions{ContentType: "application/json", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	md["count"] = "mutated"
	if info.Size != 5 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "exhibits/a.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := s.Get(ctx, "exhibits/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "[1,2]" || got.Metadata["count"] != "2" {
		t.Fatalf("metadata or data leaked: %+v %q", got, b)
	}
	got.Metadata["count"] = "changed"
	again, rc, _ := s.Get(ctx, "exhibits/a.json")
	_ = rc.Close()
	if again.Metadata["count"] != "2" {
		t.Fatalf("returned metadata aliases stored map")
	}
	if _, err := s.Put(ctx, "other/b.json", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, _ := s.List(ctx, "exhibits/")
	if len(list) != 1 || list[0].Key != "exhibits/a.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key != "exhibits/a.json" {
		t.Fatalf("expected sorted full list, got %+v", all)
	}
	if ok, _ := s.Delete(ctx, "exhibits/a.json"); !ok {
		t.Fatalf("expected delete true")
	}
	if ok, _ := s.Delete(ctx, "exhibits/a.json"); ok {
		t.Fatalf("expected delete false on missing key")
	}
	if _, _, err := s.Get(ctx, "exhibits/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestMemoryStorePutErrors(t *testing.T) {
	s := New()
	if _, err := s.Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
	if _, err := s.Put(context.Background(), "k", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected reader error")
	}
	if list, _ := s.List(context.Background(), ""); len(list) != 0 {
		t.Fatalf("failed put stored data: %+v", list)
	}
}
