package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"soundstream/internal/identity"
	"soundstream/shared/go/models"
)

// MembershipStore captures the persistence needs of the identity handlers,
// so tests can substitute an in-memory fake for the document store.
type MembershipStore interface {
	ByID(ctx context.Context, userID string) (*models.User, error)
	AddPlaylist(ctx context.Context, userID, playlistID string) error
	RemovePlaylist(ctx context.Context, userID, playlistID string) error
	Playlists(ctx context.Context, userID string) ([]string, error)
}

// Handler serves the identity service's HTTP surface.
type Handler struct {
	store MembershipStore
	auth  *Authenticator
	log   zerolog.Logger
}

// NewHandler wires the handler to its store and authenticator.
func NewHandler(store MembershipStore, auth *Authenticator, log zerolog.Logger) *Handler {
	return &Handler{store: store, auth: auth, log: log}
}

// Routes returns the identity service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/profile", h.handleProfile)
	mux.HandleFunc("/api/v1/users/playlists", h.handlePlaylists)
	mux.HandleFunc("/api/v1/users/playlists/", h.handlePlaylist)
	return mux
}

// authenticate resolves the caller or writes the failure response itself.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := identity.TokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "NO_TOKEN", "authentication token required")
		return "", false
	}
	userID, err := h.auth.UserID(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
		return "", false
	}
	return userID, true
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	user, err := h.store.ByID(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User profile retrieved successfully",
		"data":    user,
	})
}

func (h *Handler) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		playlists, err := h.store.Playlists(r.Context(), userID)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": playlists})

	case http.MethodPost:
		var req struct {
			PlaylistID string `json:"playlistId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "playlistId is required")
			return
		}
		if err := h.store.AddPlaylist(r.Context(), userID, req.PlaylistID); err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Playlist added to user successfully"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	playlistID := strings.TrimPrefix(r.URL.Path, "/api/v1/users/playlists/")
	if playlistID == "" || strings.Contains(playlistID, "/") {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "playlist id is required")
		return
	}

	if err := h.store.RemovePlaylist(r.Context(), userID, playlistID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Playlist removed from user successfully"})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, ErrPlaylistLinked):
		writeError(w, http.StatusConflict, "PLAYLIST_LINKED", "playlist already linked to user")
	default:
		h.log.Error().Err(err).Msg("membership store failure")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"message": message, "errorCode": code})
}
