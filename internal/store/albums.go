package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundstream/shared/go/models"
)

// InsertAlbum persists a new album.
func (s *Store) InsertAlbum(ctx context.Context, album *models.Album) (*models.Album, error) {
	if album == nil {
		return nil, errors.New("album is required")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO albums (title, artist, release_date, description, thumbnail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		album.Title, album.Artist, album.ReleaseDate, album.Description, album.Thumbnail,
		time.Now().UTC(),
	).Scan(&album.ID, &album.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert album: %w", err)
	}
	return album, nil
}

// GetAlbum returns a single album by id.
func (s *Store) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	var album models.Album
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, artist, release_date, description, thumbnail, created_at
		FROM albums
		WHERE id = $1`, id).Scan(&album.ID, &album.Title, &album.Artist, &album.ReleaseDate,
		&album.Description, &album.Thumbnail, &album.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get album: %w", err)
	}
	return &album, nil
}

// ListAlbums returns the whole album catalog.
func (s *Store) ListAlbums(ctx context.Context) ([]*models.Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, release_date, description, thumbnail, created_at
		FROM albums
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	albums := make([]*models.Album, 0)
	for rows.Next() {
		var album models.Album
		if err := rows.Scan(&album.ID, &album.Title, &album.Artist, &album.ReleaseDate,
			&album.Description, &album.Thumbnail, &album.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, &album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate albums: %w", err)
	}
	return albums, nil
}

// DeleteAlbum removes an album. Dependent songs are disassociated, not
// deleted: their album_id goes NULL in the same transaction.
func (s *Store) DeleteAlbum(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		UPDATE songs
		SET album_id = NULL
		WHERE album_id = $1`, id); err != nil {
		return fmt.Errorf("detach album songs: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlbumNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit album delete: %w", err)
	}
	tx = nil

	return nil
}
