package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundstream/shared/go/models"
)

// InsertPlaylist persists a new playlist row and returns it with generated
// fields filled in. Deleting this row is the saga's compensation for a
// failed membership link, so nothing else is written here.
func (s *Store) InsertPlaylist(ctx context.Context, playlist *models.Playlist) (*models.Playlist, error) {
	if playlist == nil {
		return nil, errors.New("playlist is required")
	}

	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlists (user_id, name, description, is_public, thumbnail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`,
		playlist.UserID, playlist.Name, nullIfEmpty(playlist.Description), playlist.IsPublic,
		nullIfEmpty(playlist.Thumbnail), now,
	).Scan(&playlist.ID, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	return playlist, nil
}

// DeletePlaylist removes a playlist owned by ownerID. Membership rows go
// with it through the ON DELETE CASCADE foreign key.
func (s *Store) DeletePlaylist(ctx context.Context, id int64, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlists
		WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// GetPlaylist returns a single playlist by id.
func (s *Store) GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error) {
	var (
		playlist    models.Playlist
		description sql.NullString
		thumbnail   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, is_public, thumbnail, created_at, updated_at
		FROM playlists
		WHERE id = $1`, id).Scan(&playlist.ID, &playlist.UserID, &playlist.Name, &description,
		&playlist.IsPublic, &thumbnail, &playlist.CreatedAt, &playlist.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	playlist.Description = description.String
	playlist.Thumbnail = thumbnail.String
	return &playlist, nil
}

// ListPlaylistsByOwner returns all playlists belonging to one user.
func (s *Store) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, is_public, thumbnail, created_at, updated_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*models.Playlist, 0)
	for rows.Next() {
		var (
			playlist    models.Playlist
			description sql.NullString
			thumbnail   sql.NullString
		)
		if err := rows.Scan(&playlist.ID, &playlist.UserID, &playlist.Name, &description,
			&playlist.IsPublic, &thumbnail, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlist.Description = description.String
		playlist.Thumbnail = thumbnail.String
		playlists = append(playlists, &playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// AddSongToPlaylist appends a song at the next position. Position values
// within one playlist are a dense sequence starting at 1, assigned here
// inside the transaction so concurrent adds cannot collide.
func (s *Store) AddSongToPlaylist(ctx context.Context, playlistID, songID int64) (*models.PlaylistSong, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var position int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) + 1
		FROM playlist_songs
		WHERE playlist_id = $1`, playlistID).Scan(&position); err != nil {
		return nil, fmt.Errorf("next position: %w", err)
	}

	entry := models.PlaylistSong{
		PlaylistID: playlistID,
		SongID:     songID,
		Position:   position,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id, position, added_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, added_at`,
		playlistID, songID, position, time.Now().UTC(),
	).Scan(&entry.ID, &entry.AddedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("insert playlist song: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit playlist song: %w", err)
	}
	tx = nil

	return &entry, nil
}

// RemoveSongFromPlaylist deletes a membership row.
func (s *Store) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlist_songs
		WHERE playlist_id = $1 AND song_id = $2`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("delete playlist song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotInPlaylist
	}
	return nil
}

// ListPlaylistSongs returns the playlist's songs joined with album
// summaries, ordered by position.
func (s *Store) ListPlaylistSongs(ctx context.Context, playlistID int64) ([]models.PlaylistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.artist, s.album_id, COALESCE(s.thumbnail, ''), s.duration,
		       s.audio_url, COALESCE(s.genre, ''), s.play_count, s.is_active, s.created_at,
		       ps.position, ps.added_at,
		       a.title, a.artist, a.thumbnail
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		LEFT JOIN albums a ON a.id = s.album_id
		WHERE ps.playlist_id = $1
		ORDER BY ps.position ASC`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist songs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.PlaylistEntry, 0)
	for rows.Next() {
		var (
			entry       models.PlaylistEntry
			albumTitle  sql.NullString
			albumArtist sql.NullString
			albumThumb  sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Artist, &entry.AlbumID, &entry.Thumbnail,
			&entry.Duration, &entry.AudioURL, &entry.Genre, &entry.PlayCount, &entry.IsActive,
			&entry.CreatedAt, &entry.Position, &entry.AddedAt,
			&albumTitle, &albumArtist, &albumThumb); err != nil {
			return nil, fmt.Errorf("scan playlist song: %w", err)
		}
		if entry.AlbumID != nil {
			entry.Album = &models.AlbumSummary{
				ID:        *entry.AlbumID,
				Title:     albumTitle.String,
				Artist:    albumArtist.String,
				Thumbnail: albumThumb.String,
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist songs: %w", err)
	}
	return entries, nil
}
