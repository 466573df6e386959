package models

import "time"

// User is the identity-service user document. Playlists is the membership
// list: the authoritative record of which playlists the user owns, stored as
// stringified catalog playlist ids.
type User struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	Role           string    `json:"role" bson:"role"`
	Playlists      []string  `json:"playlist" bson:"playlist"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}
