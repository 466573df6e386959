package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundstream/shared/go/models"
)

const songColumns = `id, title, artist, album_id, COALESCE(thumbnail, ''), duration,
	audio_url, COALESCE(genre, ''), play_count, is_active, created_at`

func scanSong(row interface{ Scan(...any) error }) (*models.Song, error) {
	var song models.Song
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.AlbumID, &song.Thumbnail,
		&song.Duration, &song.AudioURL, &song.Genre, &song.PlayCount, &song.IsActive, &song.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// InsertSong persists a new song. AlbumID, when set, must reference an
// existing album.
func (s *Store) InsertSong(ctx context.Context, song *models.Song) (*models.Song, error) {
	if song == nil {
		return nil, errors.New("song is required")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO songs (title, artist, album_id, thumbnail, duration, audio_url, genre, play_count, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, TRUE, $8)
		RETURNING id, play_count, is_active, created_at`,
		song.Title, song.Artist, song.AlbumID, nullIfEmpty(song.Thumbnail), song.Duration,
		song.AudioURL, nullIfEmpty(song.Genre), time.Now().UTC(),
	).Scan(&song.ID, &song.PlayCount, &song.IsActive, &song.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("insert song: %w", err)
	}
	return song, nil
}

// GetSong returns a song by id regardless of active state.
func (s *Store) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	song, err := scanSong(s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// ListSongs returns the whole song catalog.
func (s *Store) ListSongs(ctx context.Context) ([]*models.Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

// ListSongsByAlbum returns the album's active songs.
func (s *Store) ListSongsByAlbum(ctx context.Context, albumID int64) ([]*models.Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE album_id = $1 AND is_active = TRUE
		ORDER BY id ASC`, albumID)
	if err != nil {
		return nil, fmt.Errorf("list album songs: %w", err)
	}
	defer rows.Close()
	return collectSongs(rows)
}

func collectSongs(rows *sql.Rows) ([]*models.Song, error) {
	songs := make([]*models.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// UpdateSongThumbnail stores the new thumbnail URL and reports the song's
// album id so the caller can invalidate the album's cached listing.
func (s *Store) UpdateSongThumbnail(ctx context.Context, id int64, thumbnailURL string) (*int64, error) {
	var albumID *int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET thumbnail = $1
		WHERE id = $2
		RETURNING album_id`, thumbnailURL, id).Scan(&albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update song thumbnail: %w", err)
	}
	return albumID, nil
}

// SetSongActive toggles the song's visibility in listings and reports its
// album id for cache invalidation.
func (s *Store) SetSongActive(ctx context.Context, id int64, active bool) (*int64, error) {
	var albumID *int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET is_active = $1
		WHERE id = $2
		RETURNING album_id`, active, id).Scan(&albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set song active: %w", err)
	}
	return albumID, nil
}

// DeleteSong removes a song row and reports its album id when it had one.
func (s *Store) DeleteSong(ctx context.Context, id int64) (*int64, error) {
	var albumID *int64
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM songs
		WHERE id = $1
		RETURNING album_id`, id).Scan(&albumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete song: %w", err)
	}
	return albumID, nil
}

// IncrementPlayCount bumps an active song's play count and returns the
// updated row.
func (s *Store) IncrementPlayCount(ctx context.Context, id int64) (*models.Song, error) {
	song, err := scanSong(s.db.QueryRowContext(ctx, `
		UPDATE songs
		SET play_count = play_count + 1
		WHERE id = $1 AND is_active = TRUE
		RETURNING `+songColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment play count: %w", err)
	}
	return song, nil
}
