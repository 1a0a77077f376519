package localfs

import (
	"context"
	"testing"
)

func TestBackend_PutGetExists(t *testing.T) {
	dir := t.TempDir()
	b := New(dir, "uRing")
	ctx := context.Background()

	ok, err := b.Exists(ctx, "latest.json")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Fatal("Exists() = true before Put")
	}

	if err := b.Put(ctx, "latest.json", []byte(`{"version":"v1"}`), "application/json", ""); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ok, err = b.Exists(ctx, "latest.json")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v, want true, nil", ok, err)
	}

	data, err := b.Get(ctx, "latest.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != `{"version":"v1"}` {
		t.Errorf("Get() = %q", data)
	}
}

func TestBackend_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	b := New(dir, "uRing")
	ctx := context.Background()

	_ = b.Put(ctx, "snapshots/v1/detail/a.json", []byte("{}"), "application/json", "")
	_ = b.Put(ctx, "snapshots/v1/detail/b.json", []byte("{}"), "application/json", "")
	_ = b.Put(ctx, "snapshots/v1/_SUCCESS", []byte("v1"), "text/plain", "")

	keys, err := b.List(ctx, "snapshots/v1/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("List() = %v, want 3 entries", keys)
	}

	if err := b.Delete(ctx, "snapshots/v1/_SUCCESS"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	ok, _ := b.Exists(ctx, "snapshots/v1/_SUCCESS")
	if ok {
		t.Error("Exists() = true after Delete")
	}

	// Deleting an already-absent key is not an error.
	if err := b.Delete(ctx, "snapshots/v1/_SUCCESS"); err != nil {
		t.Errorf("Delete() of missing key error = %v, want nil", err)
	}
}
