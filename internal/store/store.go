// Package store provides catalog persistence backed by Postgres. Every
// operation spans at most one relational transaction; nothing in here talks
// to the identity store.
package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrPlaylistNotFound signals a missing playlist, or one the caller
	// does not own. The two are deliberately indistinguishable.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrSongNotFound signals a missing or inactive song.
	ErrSongNotFound = errors.New("song not found")
	// ErrAlbumNotFound signals a missing album.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrSongNotInPlaylist signals a membership row that does not exist.
	ErrSongNotInPlaylist = errors.New("song not in playlist")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
