// Package httpapi is the catalog service's HTTP surface: public browse
// endpoints, playlist endpoints behind the forwarded credential, and admin
// mutations.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"soundstream/internal/app/catalog"
	"soundstream/internal/app/playlists"
	"soundstream/internal/assets"
	"soundstream/internal/identity"
	"soundstream/internal/store"
	"soundstream/shared/go/models"
)

// CatalogService is the browse and admin surface over the cached catalog.
type CatalogService interface {
	Albums(ctx context.Context) ([]*models.Album, bool, error)
	Songs(ctx context.Context) ([]*models.Song, bool, error)
	SongsByAlbum(ctx context.Context, albumID int64) (*models.Album, []*models.Song, bool, error)
	Song(ctx context.Context, id int64) (*models.Song, bool, error)
	AddAlbum(ctx context.Context, in catalog.AddAlbumInput) (*models.Album, error)
	AddSong(ctx context.Context, in catalog.AddSongInput) (*models.Song, error)
	UpdateSongThumbnail(ctx context.Context, songID int64, image []byte, mimeType string) (string, error)
	SetSongActive(ctx context.Context, songID int64, active bool) error
	DeleteSong(ctx context.Context, songID int64) error
	DeleteAlbum(ctx context.Context, albumID int64) error
	IncrementPlayCount(ctx context.Context, songID int64) (*models.Song, error)
}

// PlaylistService is the saga-backed playlist surface.
type PlaylistService interface {
	Create(ctx context.Context, token string, in playlists.CreateInput, ownerID string) (*models.Playlist, error)
	Delete(ctx context.Context, token string, playlistID int64, ownerID string) error
	Get(ctx context.Context, playlistID int64, callerID string) (*models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error)
	AddSong(ctx context.Context, playlistID, songID int64, callerID string) (*models.PlaylistSong, error)
	RemoveSong(ctx context.Context, playlistID, songID int64, callerID string) error
	Songs(ctx context.Context, playlistID int64, callerID string) ([]models.PlaylistEntry, error)
}

// IdentityVerifier resolves a forwarded credential to the caller.
type IdentityVerifier interface {
	Profile(ctx context.Context, token string) (*models.User, error)
}

// Server holds the handler dependencies.
type Server struct {
	catalog   CatalogService
	playlists PlaylistService
	identity  IdentityVerifier
	log       zerolog.Logger
}

// NewServer wires the HTTP surface to its services.
func NewServer(c CatalogService, p PlaylistService, id IdentityVerifier, log zerolog.Logger) *Server {
	return &Server{catalog: c, playlists: p, identity: id, log: log}
}

// Routes returns the catalog service mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/albums", s.handleAlbums)
	mux.HandleFunc("/api/v1/albums/", s.handleAlbumSubpath)
	mux.HandleFunc("/api/v1/songs", s.handleSongs)
	mux.HandleFunc("/api/v1/songs/", s.handleSongSubpath)

	mux.HandleFunc("/api/v1/playlists", s.handlePlaylists)
	mux.HandleFunc("/api/v1/playlists/", s.handlePlaylistSubpath)

	mux.HandleFunc("/api/v1/admin/albums", s.handleAdminAlbums)
	mux.HandleFunc("/api/v1/admin/albums/", s.handleAdminAlbumSubpath)
	mux.HandleFunc("/api/v1/admin/songs", s.handleAdminSongs)
	mux.HandleFunc("/api/v1/admin/songs/", s.handleAdminSongSubpath)

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller resolves the forwarded credential, writing the failure response
// itself when the credential is missing or refused.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (*models.User, string, bool) {
	token := identity.TokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "NO_TOKEN", "authentication token required")
		return nil, "", false
	}
	user, err := s.identity.Profile(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return nil, "", false
	}
	return user, token, true
}

// admin is caller plus a role gate.
func (s *Server) admin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, _, ok := s.caller(w, r)
	if !ok {
		return nil, false
	}
	if user.Role != "admin" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "admin role required")
		return nil, false
	}
	return user, true
}

// pathID parses the numeric id segment that follows prefix.
func pathID(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	segment, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", errors.New("invalid id in path")
	}
	return id, tail, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation), errors.Is(err, playlists.ErrValidation),
		errors.Is(err, assets.ErrUnsupportedMedia), errors.Is(err, assets.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, assets.ErrAssetTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "ASSET_TOO_LARGE", err.Error())
	case errors.Is(err, playlists.ErrNotFound), errors.Is(err, store.ErrPlaylistNotFound),
		errors.Is(err, store.ErrSongNotFound), errors.Is(err, store.ErrAlbumNotFound),
		errors.Is(err, store.ErrSongNotInPlaylist):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "credential rejected")
	case errors.Is(err, identity.ErrDuplicatePlaylist):
		writeError(w, http.StatusConflict, "DUPLICATE_PLAYLIST", "playlist already linked to user")
	case errors.Is(err, identity.ErrUpstreamTimeout), errors.Is(err, playlists.ErrAssetUpload):
		s.log.Error().Err(err).Msg("upstream dependency failed")
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "a backing service is unavailable")
	case errors.Is(err, identity.ErrUpstreamRejected):
		writeError(w, http.StatusBadRequest, "UPSTREAM_REJECTED", err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
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

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
