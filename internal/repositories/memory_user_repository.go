package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/anonto42/follow-graph/backend/internal/models"
)

// MemoryUserRepository implements UserRepository in process memory
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) EnsureUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		r.users[id] = models.NewUser(id)
	}
	return nil
}

func (r *MemoryUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []models.User{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := r.users[id]; ok {
			users = append(users, *cloneUser(u))
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *MemoryUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *cloneUser(u))
	}
	sortUsers(users)
	return users, nil
}

func (r *MemoryUserRepository) AddFollow(ctx context.Context, followerID, followeeID, day string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	if !ok {
		return ErrUserNotFound
	}
	followee, ok := r.users[followeeID]
	if !ok {
		return ErrUserNotFound
	}
	if follower.IsFollowing(followeeID) {
		return ErrAlreadyFollowing
	}

	followee.FollowCount = models.NextFollowCount(followee.LastFollowDate, followee.FollowCount, day)
	followee.LastFollowDate = &day
	if !followee.HasFollower(followerID) {
		followee.Followers = append(followee.Followers, followerID)
	}
	follower.Following = append(follower.Following, followeeID)
	return nil
}

func (r *MemoryUserRepository) RemoveFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	if !ok {
		return ErrUserNotFound
	}
	followee, ok := r.users[followeeID]
	if !ok {
		return ErrUserNotFound
	}

	follower.Following = models.Remove(follower.Following, followeeID)
	followee.Followers = models.Remove(followee.Followers, followerID)
	followee.FollowCount = models.NextUnfollowCount(followee.FollowCount, floorAtZero)
	return nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	if u.LastFollowDate != nil {
		d := *u.LastFollowDate
		c.LastFollowDate = &d
	}
	return &c
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
