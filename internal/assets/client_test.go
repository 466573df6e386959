package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", zerolog.Nop()), server, &hits
}

func TestUploadSuccess(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/upload/playlist-thumbnails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://media.example/playlist-thumbnails/thumb-abc.jpg",
			"public_id":  "playlist-thumbnails/thumb-abc",
		})
	})

	url, err := client.Upload(context.Background(), bytes.Repeat([]byte{0xFF}, 1024), "image/jpeg", CategoryPlaylistThumbnails)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://media.example/playlist-thumbnails/thumb-abc.jpg" {
		t.Fatalf("unexpected URL %q", url)
	}
}

func TestUploadValidationFailsBeforeNetwork(t *testing.T) {
	client, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name     string
		data     []byte
		mimeType string
		category string
		want     error
	}{
		{"oversized image", bytes.Repeat([]byte{1}, maxImageBytes+1), "image/png", CategoryPlaylistThumbnails, ErrAssetTooLarge},
		{"oversized audio", bytes.Repeat([]byte{1}, maxAudioBytes+1), "audio/mpeg", CategorySongs, ErrAssetTooLarge},
		{"bad mime for image category", []byte("x"), "audio/mpeg", CategorySongThumbnails, ErrUnsupportedMedia},
		{"bad mime for audio category", []byte("x"), "image/png", CategorySongs, ErrUnsupportedMedia},
		{"empty payload", nil, "image/png", CategoryPlaylistThumbnails, ErrUnsupportedMedia},
		{"unknown category", []byte("x"), "image/png", "videos", ErrUnknownCategory},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Upload(context.Background(), tc.data, tc.mimeType, tc.category)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if IsRetryable(err) {
				t.Fatal("validation errors must not be retryable")
			}
		})
	}

	if got := atomic.LoadInt32(hits); got != 0 {
		t.Fatalf("expected no network calls for invalid payloads, got %d", got)
	}
}

func TestUploadServerErrorIsRetryable(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "store unavailable", http.StatusBadGateway)
	})

	_, err := client.Upload(context.Background(), []byte("data"), "image/png", CategoryPlaylistThumbnails)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Fatalf("5xx upload failure should be retryable, got %v", err)
	}
}

func TestUploadRejectedIsFatal(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad image", http.StatusUnprocessableEntity)
	})

	_, err := client.Upload(context.Background(), []byte("data"), "image/png", CategoryPlaylistThumbnails)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Fatalf("4xx rejection must not be retryable, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	var deletes int32
	client, server, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if r.URL.Path != "/assets/playlist-thumbnails/thumb-abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// First call succeeds, the object is then gone.
		if atomic.AddInt32(&deletes, 1) > 1 {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	assetURL := server.URL + "/playlist-thumbnails/thumb-abc.jpg"

	if err := client.Delete(context.Background(), assetURL); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := client.Delete(context.Background(), assetURL); err != nil {
		t.Fatalf("second delete must succeed on 404: %v", err)
	}
}

func TestDeleteEmptyURLIsNoop(t *testing.T) {
	client, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	if err := client.Delete(context.Background(), ""); err != nil {
		t.Fatalf("Delete(\"\"): %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 0 {
		t.Fatalf("expected no network call for empty URL, got %d", got)
	}
}
