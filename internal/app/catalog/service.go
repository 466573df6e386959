// Package catalog serves the browse surface over the relational store with a
// read-through cache in front. Reads go cache-first; every mutation writes
// the store first and then invalidates the dependent keys, never the other
// way around. Cache failures degrade to store reads and are only logged.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"soundstream/internal/assets"
	"soundstream/internal/cache"
	"soundstream/shared/go/models"
)

// ErrValidation covers rejected catalog input.
var ErrValidation = errors.New("invalid catalog input")

// Store is the relational backend of the catalog.
type Store interface {
	InsertAlbum(ctx context.Context, album *models.Album) (*models.Album, error)
	GetAlbum(ctx context.Context, id int64) (*models.Album, error)
	ListAlbums(ctx context.Context) ([]*models.Album, error)
	DeleteAlbum(ctx context.Context, id int64) error

	InsertSong(ctx context.Context, song *models.Song) (*models.Song, error)
	GetSong(ctx context.Context, id int64) (*models.Song, error)
	ListSongs(ctx context.Context) ([]*models.Song, error)
	ListSongsByAlbum(ctx context.Context, albumID int64) ([]*models.Song, error)
	UpdateSongThumbnail(ctx context.Context, id int64, thumbnailURL string) (*int64, error)
	SetSongActive(ctx context.Context, id int64, active bool) (*int64, error)
	DeleteSong(ctx context.Context, id int64) (*int64, error)
	IncrementPlayCount(ctx context.Context, id int64) (*models.Song, error)
}

// Uploader is the media store side of song and thumbnail ingestion.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, category string) (string, error)
	Delete(ctx context.Context, assetURL string) error
}

// Service is the cache-fronted catalog.
type Service struct {
	store    Store
	cache    cache.Cache
	uploader Uploader
	log      zerolog.Logger
}

// NewService wires the catalog to its store, cache and media store.
func NewService(st Store, c cache.Cache, up Uploader, log zerolog.Logger) *Service {
	return &Service{store: st, cache: c, uploader: up, log: log}
}

// Albums returns the full album listing. The bool reports whether the
// response was served from cache.
func (s *Service) Albums(ctx context.Context) ([]*models.Album, bool, error) {
	var albums []*models.Album
	if s.cacheGet(ctx, cache.AllAlbumsKey, &albums) {
		return albums, true, nil
	}

	albums, err := s.store.ListAlbums(ctx)
	if err != nil {
		return nil, false, err
	}
	s.cacheSet(ctx, cache.AllAlbumsKey, albums, cache.AllAlbumsTTL)
	return albums, false, nil
}

// Songs returns the full song listing.
func (s *Service) Songs(ctx context.Context) ([]*models.Song, bool, error) {
	var songs []*models.Song
	if s.cacheGet(ctx, cache.AllSongsKey, &songs) {
		return songs, true, nil
	}

	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, false, err
	}
	s.cacheSet(ctx, cache.AllSongsKey, songs, cache.AllSongsTTL)
	return songs, false, nil
}

// SongsByAlbum returns an album with its active songs.
func (s *Service) SongsByAlbum(ctx context.Context, albumID int64) (*models.Album, []*models.Song, bool, error) {
	key := cache.AlbumSongsKey(albumID)

	var payload albumSongs
	if s.cacheGet(ctx, key, &payload) {
		return payload.Album, payload.Songs, true, nil
	}

	album, err := s.store.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, nil, false, err
	}
	songs, err := s.store.ListSongsByAlbum(ctx, albumID)
	if err != nil {
		return nil, nil, false, err
	}
	s.cacheSet(ctx, key, albumSongs{Album: album, Songs: songs}, cache.AlbumSongsTTL)
	return album, songs, false, nil
}

type albumSongs struct {
	Album *models.Album  `json:"album"`
	Songs []*models.Song `json:"songs"`
}

// Song returns a single song.
func (s *Service) Song(ctx context.Context, id int64) (*models.Song, bool, error) {
	key := cache.SongKey(id)

	var song *models.Song
	if s.cacheGet(ctx, key, &song) && song != nil {
		return song, true, nil
	}

	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		return nil, false, err
	}
	s.cacheSet(ctx, key, song, cache.SongTTL)
	return song, false, nil
}

// AddAlbum creates an album, uploading its cover first when one is given.
func (s *Service) AddAlbum(ctx context.Context, in AddAlbumInput) (*models.Album, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	thumbnailURL := in.ThumbnailURL
	if len(in.Thumbnail) > 0 {
		url, err := s.uploader.Upload(ctx, in.Thumbnail, in.ThumbnailMime, assets.CategorySongThumbnails)
		if err != nil {
			return nil, fmt.Errorf("upload album cover: %w", err)
		}
		thumbnailURL = url
	}

	album, err := s.store.InsertAlbum(ctx, &models.Album{
		Title:       in.Title,
		Artist:      in.Artist,
		ReleaseDate: in.ReleaseDate,
		Description: in.Description,
		Thumbnail:   thumbnailURL,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.AllAlbumsKey)
	return album, nil
}

// AddAlbumInput carries a new album plus an optional cover image.
type AddAlbumInput struct {
	Title         string
	Artist        string
	ReleaseDate   string
	Description   string
	Thumbnail     []byte
	ThumbnailMime string
	ThumbnailURL  string
}

func (in AddAlbumInput) validate() error {
	if in.Title == "" || in.Artist == "" {
		return fmt.Errorf("%w: title and artist are required", ErrValidation)
	}
	return nil
}

// AddSongInput carries a new song's metadata plus its audio payload and an
// optional thumbnail.
type AddSongInput struct {
	Title         string
	Artist        string
	AlbumID       *int64
	Duration      string
	Genre         string
	Audio         []byte
	AudioMime     string
	Thumbnail     []byte
	ThumbnailMime string
}

func (in AddSongInput) validate() error {
	if in.Title == "" || in.Artist == "" {
		return fmt.Errorf("%w: title and artist are required", ErrValidation)
	}
	if len(in.Audio) == 0 {
		return fmt.Errorf("%w: audio payload is required", ErrValidation)
	}
	return nil
}

// AddSong uploads the audio (and thumbnail when given), inserts the song and
// invalidates the listings the new row appears in. A failed insert deletes
// the just-uploaded assets so nothing leaks.
func (s *Service) AddSong(ctx context.Context, in AddSongInput) (*models.Song, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	audioURL, err := s.uploader.Upload(ctx, in.Audio, in.AudioMime, assets.CategorySongs)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	var thumbnailURL string
	if len(in.Thumbnail) > 0 {
		thumbnailURL, err = s.uploader.Upload(ctx, in.Thumbnail, in.ThumbnailMime, assets.CategorySongThumbnails)
		if err != nil {
			s.bestEffortDelete(ctx, audioURL)
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	song, err := s.store.InsertSong(ctx, &models.Song{
		Title:     in.Title,
		Artist:    in.Artist,
		AlbumID:   in.AlbumID,
		Duration:  in.Duration,
		Genre:     in.Genre,
		AudioURL:  audioURL,
		Thumbnail: thumbnailURL,
	})
	if err != nil {
		s.bestEffortDelete(ctx, audioURL)
		s.bestEffortDelete(ctx, thumbnailURL)
		return nil, err
	}

	keys := []string{cache.AllSongsKey}
	if song.AlbumID != nil {
		keys = append(keys, cache.AlbumSongsKey(*song.AlbumID))
	}
	s.invalidate(ctx, keys...)
	return song, nil
}

// UpdateSongThumbnail replaces a song's thumbnail with a freshly uploaded
// image.
func (s *Service) UpdateSongThumbnail(ctx context.Context, songID int64, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: image payload is required", ErrValidation)
	}

	url, err := s.uploader.Upload(ctx, image, mimeType, assets.CategorySongThumbnails)
	if err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}

	albumID, err := s.store.UpdateSongThumbnail(ctx, songID, url)
	if err != nil {
		s.bestEffortDelete(ctx, url)
		return "", err
	}

	s.invalidateSong(ctx, songID, albumID)
	return url, nil
}

// SetSongActive toggles a song's visibility.
func (s *Service) SetSongActive(ctx context.Context, songID int64, active bool) error {
	albumID, err := s.store.SetSongActive(ctx, songID, active)
	if err != nil {
		return err
	}
	s.invalidateSong(ctx, songID, albumID)
	return nil
}

// DeleteSong removes a song. When the deleted row carried no album id the
// service cannot address a single album listing, so it falls back to
// clearing every album:*:songs key.
func (s *Service) DeleteSong(ctx context.Context, songID int64) error {
	albumID, err := s.store.DeleteSong(ctx, songID)
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.SongKey(songID), cache.AllSongsKey)
	if albumID != nil {
		s.invalidate(ctx, cache.AlbumSongsKey(*albumID))
		return nil
	}
	s.invalidatePattern(ctx, cache.AlbumSongsPattern)
	return nil
}

// DeleteAlbum removes an album; its songs survive, disassociated.
func (s *Service) DeleteAlbum(ctx context.Context, albumID int64) error {
	if err := s.store.DeleteAlbum(ctx, albumID); err != nil {
		return err
	}
	// Detached songs now render without an album id, so the song listing
	// and every cached single-song entry are stale too. The detached ids
	// are not known here, hence the pattern.
	s.invalidate(ctx, cache.AllAlbumsKey, cache.AlbumSongsKey(albumID), cache.AllSongsKey)
	s.invalidatePattern(ctx, cache.SongPattern)
	return nil
}

// IncrementPlayCount bumps the play counter and returns the updated song.
func (s *Service) IncrementPlayCount(ctx context.Context, songID int64) (*models.Song, error) {
	song, err := s.store.IncrementPlayCount(ctx, songID)
	if err != nil {
		return nil, err
	}

	keys := []string{cache.SongKey(songID), cache.AllSongsKey}
	if song.AlbumID != nil {
		keys = append(keys, cache.AlbumSongsKey(*song.AlbumID))
	}
	s.invalidate(ctx, keys...)
	return song, nil
}

// cacheGet reads and deserializes a cached value. Any failure, including a
// payload that no longer deserializes, counts as a miss.
func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	raw, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache payload unreadable, falling back to store")
		return false
	}
	return true
}

// cacheSet serializes and stores a value. Failures are logged only; the
// caller already has the data.
func (s *Service) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache payload marshal failed")
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func (s *Service) invalidatePattern(ctx context.Context, pattern string) {
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log.Warn().Err(err).Str("pattern", pattern).Msg("cache pattern invalidation failed")
	}
}

func (s *Service) invalidateSong(ctx context.Context, songID int64, albumID *int64) {
	keys := []string{cache.SongKey(songID), cache.AllSongsKey}
	if albumID != nil {
		keys = append(keys, cache.AlbumSongsKey(*albumID))
	}
	s.invalidate(ctx, keys...)
}

func (s *Service) bestEffortDelete(ctx context.Context, assetURL string) {
	if assetURL == "" {
		return
	}
	if err := s.uploader.Delete(ctx, assetURL); err != nil {
		s.log.Error().Err(err).Str("asset", assetURL).Msg("asset cleanup failed, object leaked")
	}
}
