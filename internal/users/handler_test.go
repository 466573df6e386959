package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"soundstream/shared/go/models"
)

type fakeMembershipStore struct {
	users map[string][]string
}

func newFakeMembershipStore(userIDs ...string) *fakeMembershipStore {
	s := &fakeMembershipStore{users: make(map[string][]string)}
	for _, id := range userIDs {
		s.users[id] = []string{}
	}
	return s
}

func (s *fakeMembershipStore) ByID(_ context.Context, userID string) (*models.User, error) {
	playlists, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &models.User{ID: userID, Name: "Test User", Role: "user", Playlists: playlists}, nil
}

func (s *fakeMembershipStore) AddPlaylist(_ context.Context, userID, playlistID string) error {
	playlists, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	for _, id := range playlists {
		if id == playlistID {
			return ErrPlaylistLinked
		}
	}
	s.users[userID] = append(playlists, playlistID)
	return nil
}

func (s *fakeMembershipStore) RemovePlaylist(_ context.Context, userID, playlistID string) error {
	playlists, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	kept := playlists[:0]
	for _, id := range playlists {
		if id != playlistID {
			kept = append(kept, id)
		}
	}
	s.users[userID] = kept
	return nil
}

func (s *fakeMembershipStore) Playlists(_ context.Context, userID string) ([]string, error) {
	playlists, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return playlists, nil
}

const testSecret = "test-secret-test-secret"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestHandler(store MembershipStore) http.Handler {
	return NewHandler(store, NewAuthenticator(testSecret), zerolog.Nop()).Routes()
}

func TestAddPlaylistDuplicateRejected(t *testing.T) {
	store := newFakeMembershipStore("user-1")
	handler := newTestHandler(store)
	token := signToken(t, "user-1")

	push := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/users/playlists", strings.NewReader(`{"playlistId":"42"}`))
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	if w := push(); w.Code != http.StatusOK {
		t.Fatalf("first push: status %d", w.Code)
	}
	if w := push(); w.Code != http.StatusConflict {
		t.Fatalf("duplicate push: expected 409, got %d", w.Code)
	}

	playlists, _ := store.Playlists(context.Background(), "user-1")
	count := 0
	for _, id := range playlists {
		if id == "42" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("membership list must contain the id exactly once, found %d", count)
	}
}

func TestRemovePlaylistIdempotent(t *testing.T) {
	store := newFakeMembershipStore("user-1")
	handler := newTestHandler(store)
	token := signToken(t, "user-1")

	remove := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodDelete, "/api/v1/users/playlists/42", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	// Removing an id that was never linked is a success.
	if w := remove(); w.Code != http.StatusOK {
		t.Fatalf("remove of absent id: expected 200, got %d", w.Code)
	}
	if w := remove(); w.Code != http.StatusOK {
		t.Fatalf("second remove: expected 200, got %d", w.Code)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	handler := newTestHandler(newFakeMembershipStore("user-1"))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestProfileQueryParameterFallback(t *testing.T) {
	handler := newTestHandler(newFakeMembershipStore("user-1"))
	token := signToken(t, "user-1")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile?authorization="+token, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via query credential, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBadTokenRejected(t *testing.T) {
	handler := newTestHandler(newFakeMembershipStore("user-1"))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
}
