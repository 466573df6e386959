package models

import "time"

// Song is a catalog song. AlbumID is nil for singles and for songs whose
// album has been deleted (album deletion disassociates, it never cascades).
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	AlbumID   *int64    `json:"albumId"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  string    `json:"duration"`
	AudioURL  string    `json:"audioUrl"`
	Genre     string    `json:"genre,omitempty"`
	PlayCount int       `json:"playCount"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
