package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAddPlaylistForwardsCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/playlists" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("credential not forwarded, got %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["playlistId"] != "42" {
			t.Errorf("unexpected playlistId %q", body["playlistId"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.AddPlaylist(context.Background(), "caller-token", 42); err != nil {
		t.Fatalf("AddPlaylist: %v", err)
	}
}

func TestAddPlaylistDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already linked", http.StatusConflict)
	}))
	defer server.Close()

	err := NewClient(server.URL).AddPlaylist(context.Background(), "tok", 42)
	if !errors.Is(err, ErrDuplicatePlaylist) {
		t.Fatalf("expected ErrDuplicatePlaylist, got %v", err)
	}
}

func TestAddPlaylistUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewClient(server.URL).AddPlaylist(context.Background(), "tok", 42)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAddPlaylistTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.AddPlaylist(ctx, "tok", 42)
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestAddPlaylistServerErrorIsTimeoutClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewClient(server.URL).AddPlaylist(context.Background(), "tok", 42)
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected retryable upstream error, got %v", err)
	}
}

func TestRemovePlaylistIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/users/playlists/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// Membership list no longer contains the id.
		http.NotFound(w, r)
	}))
	defer server.Close()

	if err := NewClient(server.URL).RemovePlaylist(context.Background(), "tok", 42); err != nil {
		t.Fatalf("RemovePlaylist on absent id must be a no-op, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "ok",
			"data": map[string]any{
				"id":       "65a1b2c3d4e5f60718293a4b",
				"name":     "Asha",
				"email":    "asha@example.com",
				"role":     "user",
				"playlist": []string{"7"},
			},
		})
	}))
	defer server.Close()

	user, err := NewClient(server.URL).Profile(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if user.ID != "65a1b2c3d4e5f60718293a4b" || len(user.Playlists) != 1 {
		t.Fatalf("unexpected profile %+v", user)
	}
}
