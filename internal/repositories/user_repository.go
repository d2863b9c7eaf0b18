package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/follow-graph/backend/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyFollowing = errors.New("already following")
)

// UserRepository is the keyed user store behind the social graph. AddFollow and
// RemoveFollow change both ends of an edge as one logical step; each backend makes
// that step as atomic as its engine allows.
type UserRepository interface {
	// EnsureUser inserts a fresh record for id if none exists.
	EnsureUser(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs returns the records that exist among ids, sorted by ID.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// GetUsers returns every record, sorted by ID.
	GetUsers(ctx context.Context) ([]models.User, error)
	// AddFollow records followerID -> followeeID and bumps the followee's daily
	// counter for day. Returns ErrAlreadyFollowing if the edge exists.
	AddFollow(ctx context.Context, followerID, followeeID, day string) error
	// RemoveFollow drops the edge if present and decrements the followee's counter
	// unconditionally, clamping at zero when floorAtZero is set.
	RemoveFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error
	Ping(ctx context.Context) error
}
