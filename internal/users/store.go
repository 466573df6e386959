// Package users holds the identity service internals: the Mongo-backed user
// store whose membership list is authoritative for playlist reachability,
// bearer-token verification, and the HTTP surface the catalog service calls.
package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"soundstream/shared/go/models"
)

var (
	// ErrUserNotFound signals the user document does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrPlaylistLinked signals a duplicate membership push.
	ErrPlaylistLinked = errors.New("playlist already in membership list")
)

// Store provides user persistence backed by the document store.
type Store struct {
	users *mongo.Collection
}

// NewStore sets up a Store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{users: db.Collection("users")}
}

// ByID returns the user document, password field excluded.
func (s *Store) ByID(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad id %q", ErrUserNotFound, userID)
	}

	var user models.User
	// _id is excluded because it is an ObjectID, not the hex string the
	// model carries; it is restored from the input below.
	err = s.users.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"password": 0, "_id": 0}),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID = userID
	return &user, nil
}

// AddPlaylist pushes a playlist id into the user's membership list. A push
// of an id already present is rejected, never silently deduplicated, so the
// caller can distinguish a retry from a real conflict.
func (s *Store) AddPlaylist(ctx context.Context, userID, playlistID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrUserNotFound, userID)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "playlist": bson.M{"$ne": playlistID}},
		bson.M{"$addToSet": bson.M{"playlist": playlistID}},
	)
	if err != nil {
		return fmt.Errorf("add playlist membership: %w", err)
	}
	if res.MatchedCount == 0 {
		// Either the user is missing or the id is already present.
		count, err := s.users.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrPlaylistLinked
	}
	return nil
}

// RemovePlaylist pulls a playlist id from the membership list. Pulling an id
// that is not present is a no-op, so retries are always safe.
func (s *Store) RemovePlaylist(ctx context.Context, userID, playlistID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: bad id %q", ErrUserNotFound, userID)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"playlist": playlistID}},
	)
	if err != nil {
		return fmt.Errorf("remove playlist membership: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Playlists returns the user's membership list.
func (s *Store) Playlists(ctx context.Context, userID string) ([]string, error) {
	user, err := s.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Playlists, nil
}
