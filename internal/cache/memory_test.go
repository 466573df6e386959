package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "songs:all"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := m.Set(ctx, "songs:all", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, err := m.Get(ctx, "songs:all")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != `[]` {
		t.Fatalf("expected stored value, got %q", value)
	}

	exists, err := m.Exists(ctx, "songs:all")
	if err != nil || !exists {
		t.Fatalf("expected key to exist, got %v / %v", exists, err)
	}

	if err := m.Delete(ctx, "songs:all"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "songs:all"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "song:1", []byte(`{}`), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := m.Get(ctx, "song:1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}

	ttl, err := m.TTL(ctx, "song:1")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl != -1 {
		t.Fatalf("expected -1 for missing key, got %v", ttl)
	}
}

func TestMemoryDeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	keys := []string{"album:1:songs", "album:2:songs", "album:31:songs"}
	for _, key := range keys {
		if err := m.Set(ctx, key, []byte(`[]`), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	if err := m.Set(ctx, "songs:all", []byte(`[]`), time.Minute); err != nil {
		t.Fatalf("Set songs:all: %v", err)
	}

	if err := m.DeletePattern(ctx, AlbumSongsPattern); err != nil {
		t.Fatalf("DeletePattern: %v", err)
	}

	for _, key := range keys {
		if exists, _ := m.Exists(ctx, key); exists {
			t.Fatalf("expected %s to be deleted", key)
		}
	}
	if exists, _ := m.Exists(ctx, "songs:all"); !exists {
		t.Fatal("expected songs:all to survive the pattern delete")
	}
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"album:*:songs", "album:7:songs", true},
		{"album:*:songs", "album:7:tracks", false},
		{"album:*:songs", "song:7", false},
		{"songs:all", "songs:all", true},
		{"songs:all", "songs:all:extra", false},
		{"song:*", "song:42", true},
		{SongPattern, "songs:all", false},
	}

	for _, tc := range tests {
		if got := globMatch(tc.pattern, tc.key); got != tc.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tc.pattern, tc.key, got, tc.want)
		}
	}
}

func TestKeyGrammar(t *testing.T) {
	if got := SongKey(42); got != "song:42" {
		t.Fatalf("SongKey(42) = %q", got)
	}
	if got := AlbumSongsKey(7); got != "album:7:songs" {
		t.Fatalf("AlbumSongsKey(7) = %q", got)
	}
	if AllSongsKey != "songs:all" || AllAlbumsKey != "albums:all" {
		t.Fatal("collection key grammar changed")
	}
}
