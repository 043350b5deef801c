// ABOUTME: Tests for the room image store
// ABOUTME: Covers insert-only semantics and the absent-image negative result

package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestSaveAndGetImage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	if err := store.SaveImage(ctx, "RoomA", data, "image/png"); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	got, contentType, err := store.GetImage(ctx, "RoomA")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("GetImage bytes mismatch: got %v, want %v", got, data)
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want %q", contentType, "image/png")
	}
}

func TestSaveImage_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveImage(ctx, "RoomA", []byte("first"), "image/jpeg"); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	err := store.SaveImage(ctx, "RoomA", []byte("second"), "image/jpeg")
	if !errors.Is(err, ErrImageExists) {
		t.Errorf("expected ErrImageExists, got %v", err)
	}

	// Original bytes stay intact
	got, _, err := store.GetImage(ctx, "RoomA")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("image bytes = %q, want original %q", got, "first")
	}
}

func TestGetImage_Absent(t *testing.T) {
	store := newTestStore(t)

	// An absent image is a negative result, not a failure
	_, _, err := store.GetImage(context.Background(), "never-stored")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
