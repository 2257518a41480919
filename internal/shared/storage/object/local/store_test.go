package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"assistant-backend/internal/shared/storage/object"
	"assistant-backend/internal/shared/util"
)

func TestPutThenOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "images/u1/a.png", "image/png", strings.NewReader("pngbytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("pngbytes")) {
		t.Fatalf("Put size = %d", n)
	}

	rc, err := store.Open(ctx, "/images/u1/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "pngbytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestOpenMissingAndInvalidKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.Open(ctx, "images/none.png"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Open(ctx, "../secret"); !errors.Is(err, util.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := store.Put(ctx, "a/../../b", "text/plain", strings.NewReader("x")); !errors.Is(err, util.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey on put, got %v", err)
	}
}
