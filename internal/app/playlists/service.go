// Package playlists orchestrates playlist lifecycle across the catalog
// store, the media store and the identity service. Creation is a saga of
// ordered steps with reverse-order compensation, so a failure at any point
// leaves no partial artifact behind.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"soundstream/internal/assets"
	"soundstream/internal/identity"
	"soundstream/internal/store"
	"soundstream/shared/go/models"
)

var (
	// ErrValidation covers rejected input; nothing was attempted upstream.
	ErrValidation = errors.New("invalid playlist input")
	// ErrNotFound is returned when the playlist does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("playlist not found")
	// ErrAssetUpload wraps a failed thumbnail upload; the saga stops before
	// the catalog row exists.
	ErrAssetUpload = errors.New("thumbnail upload failed")
)

const maxNameLength = 120

// CatalogStore is the relational side of the saga.
type CatalogStore interface {
	InsertPlaylist(ctx context.Context, playlist *models.Playlist) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id int64, ownerID string) error
	GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error)
	AddSongToPlaylist(ctx context.Context, playlistID, songID int64) (*models.PlaylistSong, error)
	RemoveSongFromPlaylist(ctx context.Context, playlistID, songID int64) error
	ListPlaylistSongs(ctx context.Context, playlistID int64) ([]models.PlaylistEntry, error)
}

// Uploader is the media store side of the saga.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, category string) (string, error)
	Delete(ctx context.Context, assetURL string) error
}

// Membership is the identity service side of the saga. Calls forward the
// caller's own credential.
type Membership interface {
	AddPlaylist(ctx context.Context, token string, playlistID int64) error
	RemovePlaylist(ctx context.Context, token string, playlistID int64) error
}

// Service coordinates the three backends.
type Service struct {
	store      CatalogStore
	uploader   Uploader
	membership Membership
	log        zerolog.Logger
}

// NewService wires the orchestrator to its backends.
func NewService(st CatalogStore, up Uploader, mem Membership, log zerolog.Logger) *Service {
	return &Service{store: st, uploader: up, membership: mem, log: log}
}

// CreateInput carries everything needed to create a playlist. Thumbnail is
// optional; when present it is uploaded before the catalog row is written.
type CreateInput struct {
	Name          string
	Description   string
	IsPublic      bool
	Thumbnail     []byte
	ThumbnailMime string
}

func (in *CreateInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, maxNameLength)
	}
	if len(in.Thumbnail) > 0 && in.ThumbnailMime == "" {
		return fmt.Errorf("%w: thumbnail mime type is required", ErrValidation)
	}
	in.Name = name
	return nil
}

// sagaStep is one unit of the creation saga. run performs the forward
// action; compensate undoes it and is invoked in reverse order when a later
// step fails. A nil compensate means the step has nothing to undo.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// Create runs the playlist creation saga: upload the thumbnail, insert the
// catalog row, link the playlist into the caller's membership list. On the
// first failure every completed step is compensated in reverse order, so the
// caller either gets a fully linked playlist or nothing.
func (s *Service) Create(ctx context.Context, token string, in CreateInput, ownerID string) (*models.Playlist, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	var (
		thumbnailURL string
		playlist     *models.Playlist
	)

	steps := []sagaStep{
		{
			name: "upload thumbnail",
			run: func(ctx context.Context) error {
				if len(in.Thumbnail) == 0 {
					return nil
				}
				url, err := s.uploader.Upload(ctx, in.Thumbnail, in.ThumbnailMime, assets.CategoryPlaylistThumbnails)
				if err != nil {
					return fmt.Errorf("%w: %v", ErrAssetUpload, err)
				}
				thumbnailURL = url
				return nil
			},
			compensate: func(ctx context.Context) error {
				// Deleting a never-uploaded asset is a no-op, so this is
				// safe to run unconditionally.
				return s.uploader.Delete(ctx, thumbnailURL)
			},
		},
		{
			name: "insert catalog row",
			run: func(ctx context.Context) error {
				created, err := s.store.InsertPlaylist(ctx, &models.Playlist{
					UserID:      ownerID,
					Name:        in.Name,
					Description: in.Description,
					IsPublic:    in.IsPublic,
					Thumbnail:   thumbnailURL,
				})
				if err != nil {
					return fmt.Errorf("insert playlist: %w", err)
				}
				playlist = created
				return nil
			},
			compensate: func(ctx context.Context) error {
				if playlist == nil {
					return nil
				}
				return s.store.DeletePlaylist(ctx, playlist.ID, ownerID)
			},
		},
		{
			name: "link membership",
			run: func(ctx context.Context) error {
				return s.membership.AddPlaylist(ctx, token, playlist.ID)
			},
			// Terminal step, nothing after it can fail.
			compensate: nil,
		},
	}

	for i, step := range steps {
		if err := step.run(ctx); err != nil {
			s.log.Warn().Err(err).Str("step", step.name).Msg("playlist creation failed, compensating")
			s.compensate(ctx, steps[:i])
			return nil, err
		}
	}

	return playlist, nil
}

// compensate undoes completed steps in reverse order. Failures here are
// logged and never escalated: a failed asset delete leaks an object, a
// failed row delete leaves a row no membership list references. Neither
// changes the outcome the caller already has.
func (s *Service) compensate(ctx context.Context, completed []sagaStep) {
	// Compensation must run even when the original context is already
	// canceled or expired.
	ctx = context.WithoutCancel(ctx)
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.log.Error().Err(err).Str("step", step.name).Msg("saga compensation failed")
		}
	}
}

// Delete removes a playlist. The catalog row is authoritative, so it goes
// first; the membership unlink afterwards is best-effort. A failed unlink
// leaves a dangling id in the user's membership list, which readers already
// tolerate, so it is logged and swallowed.
func (s *Service) Delete(ctx context.Context, token string, playlistID int64, ownerID string) error {
	if err := s.store.DeletePlaylist(ctx, playlistID, ownerID); err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete playlist: %w", err)
	}

	if err := s.membership.RemovePlaylist(context.WithoutCancel(ctx), token, playlistID); err != nil {
		s.log.Error().Err(err).Int64("playlist_id", playlistID).
			Msg("membership unlink failed, dangling id left in user document")
	}
	return nil
}

// Get returns a playlist the caller may see: their own, or any public one.
func (s *Service) Get(ctx context.Context, playlistID int64, callerID string) (*models.Playlist, error) {
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !playlist.IsPublic && playlist.UserID != callerID {
		return nil, ErrNotFound
	}
	return playlist, nil
}

// ListByOwner returns the caller's playlists.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	return s.store.ListPlaylistsByOwner(ctx, ownerID)
}

// AddSong appends a song to a playlist the caller owns.
func (s *Service) AddSong(ctx context.Context, playlistID, songID int64, callerID string) (*models.PlaylistSong, error) {
	if err := s.authorizeOwner(ctx, playlistID, callerID); err != nil {
		return nil, err
	}
	entry, err := s.store.AddSongToPlaylist(ctx, playlistID, songID)
	if err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return nil, fmt.Errorf("%w: song %d", ErrValidation, songID)
		}
		return nil, err
	}
	return entry, nil
}

// RemoveSong drops a song from a playlist the caller owns.
func (s *Service) RemoveSong(ctx context.Context, playlistID, songID int64, callerID string) error {
	if err := s.authorizeOwner(ctx, playlistID, callerID); err != nil {
		return err
	}
	if err := s.store.RemoveSongFromPlaylist(ctx, playlistID, songID); err != nil {
		if errors.Is(err, store.ErrSongNotInPlaylist) {
			return fmt.Errorf("%w: song %d not in playlist", ErrNotFound, songID)
		}
		return err
	}
	return nil
}

// Songs returns a playlist's entries, in position order, for a playlist the
// caller may see.
func (s *Service) Songs(ctx context.Context, playlistID int64, callerID string) ([]models.PlaylistEntry, error) {
	if _, err := s.Get(ctx, playlistID, callerID); err != nil {
		return nil, err
	}
	return s.store.ListPlaylistSongs(ctx, playlistID)
}

func (s *Service) authorizeOwner(ctx context.Context, playlistID int64, callerID string) error {
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return ErrNotFound
		}
		return err
	}
	if playlist.UserID != callerID {
		return ErrNotFound
	}
	return nil
}

// IsRetryable reports whether a creation failure is worth retrying whole.
// Only upstream transport failures qualify; validation and explicit
// rejections are final.
func IsRetryable(err error) bool {
	return errors.Is(err, identity.ErrUpstreamTimeout)
}
