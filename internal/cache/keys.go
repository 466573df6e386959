package cache

import (
	"strconv"
	"time"
)

// Cache keys live in one place so the grammar cannot drift between the read
// and invalidation paths. The exact shapes are shared with other services
// reading the same cache.
const (
	AllSongsKey  = "songs:all"
	AllAlbumsKey = "albums:all"

	// AlbumSongsPattern covers every album:<id>:songs key, for mutations
	// where the affected album id is not known precisely.
	AlbumSongsPattern = "album:*:songs"

	// SongPattern covers every song:<id> key, for mutations that change a
	// field on an unknown set of songs at once. Does not match songs:all.
	SongPattern = "song:*"
)

// Endpoint TTLs: shorter for data that changes more often or whose staleness
// is more visible.
const (
	AllAlbumsTTL  = 30 * time.Minute
	AllSongsTTL   = 15 * time.Minute
	AlbumSongsTTL = 10 * time.Minute
	SongTTL       = 5 * time.Minute
)

// SongKey addresses a single song.
func SongKey(id int64) string {
	return "song:" + strconv.FormatInt(id, 10)
}

// AlbumSongsKey addresses the joined song listing of one album.
func AlbumSongsKey(albumID int64) string {
	return "album:" + strconv.FormatInt(albumID, 10) + ":songs"
}
