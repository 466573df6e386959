package models

import "time"

// Playlist is the catalog-side record of a user playlist. UserID holds the
// identity-service user id (hex document id), not a catalog foreign key.
type Playlist struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistSong is a playlist membership row. Positions within one playlist
// form a dense sequence starting at 1, assigned at insertion time.
type PlaylistSong struct {
	ID         int64     `json:"id"`
	PlaylistID int64     `json:"playlistId"`
	SongID     int64     `json:"songId"`
	Position   int       `json:"position"`
	AddedAt    time.Time `json:"addedAt"`
}

// PlaylistEntry is a song joined with its membership row and album summary,
// as returned by the playlist songs listing.
type PlaylistEntry struct {
	Song
	Position int           `json:"position"`
	AddedAt  time.Time     `json:"addedAt"`
	Album    *AlbumSummary `json:"album"`
}
