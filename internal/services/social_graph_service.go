package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/anonto42/follow-graph/backend/internal/models"
	"github.com/anonto42/follow-graph/backend/internal/repositories"
)

// Options tunes policy choices of the social graph
type Options struct {
	// FloorFollowCount clamps follow_count at zero on unfollow.
	FloorFollowCount bool
	// Now supplies the current time; defaults to time.Now.
	Now func() time.Time
}

// SocialGraphService owns follow edges and the queries derived from them
type SocialGraphService struct {
	userRepository repositories.UserRepository
	floor          bool
	now            func() time.Time
	logger         *slog.Logger
}

// NewSocialGraphService creates a new SocialGraphService
func NewSocialGraphService(userRepo repositories.UserRepository, opts Options, logger *slog.Logger) *SocialGraphService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SocialGraphService{
		userRepository: userRepo,
		floor:          opts.FloorFollowCount,
		now:            opts.Now,
		logger:         logger,
	}
}

// Follow makes followerID follow followeeID, creating either user on first sight
func (s *SocialGraphService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return missing("follower_id", "followee_id")
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	if err := s.materialize(ctx, followerID, followeeID); err != nil {
		return err
	}

	today := models.DateOf(s.now())
	if err := s.userRepository.AddFollow(ctx, followerID, followeeID, today); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user followed",
		slog.String("follower_id", followerID),
		slog.String("followee_id", followeeID),
		slog.String("day", today),
	)
	return nil
}

// Unfollow removes the edge followerID -> followeeID. It succeeds even when no edge
// existed, and the followee's counter is decremented either way. Self-unfollow is
// rejected like self-follow since that edge can never exist.
func (s *SocialGraphService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return missing("follower_id", "followee_id")
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	if err := s.materialize(ctx, followerID, followeeID); err != nil {
		return err
	}
	if err := s.userRepository.RemoveFollow(ctx, followerID, followeeID, s.floor); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user unfollowed",
		slog.String("follower_id", followerID),
		slog.String("followee_id", followeeID),
	)
	return nil
}

// FollowerCount returns the daily follow counter of an existing user
func (s *SocialGraphService) FollowerCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserNotFound
	}
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.FollowCount, nil
}

// CommonFollowers returns users following both user1ID and user2ID, sorted by ID
func (s *SocialGraphService) CommonFollowers(ctx context.Context, user1ID, user2ID string) ([]models.UserSummary, error) {
	if user1ID == "" || user2ID == "" {
		return nil, missing("user1_id", "user2_id")
	}
	user1, err := s.userRepository.GetUserByID(ctx, user1ID)
	if err != nil {
		return nil, err
	}
	user2, err := s.userRepository.GetUserByID(ctx, user2ID)
	if err != nil {
		return nil, err
	}

	common := intersect(user1.Followers, user2.Followers)
	if len(common) == 0 {
		return []models.UserSummary{}, nil
	}
	users, err := s.userRepository.GetUsersByIDs(ctx, common)
	if err != nil {
		return nil, err
	}

	result := make([]models.UserSummary, 0, len(users))
	for i := range users {
		result = append(result, users[i].Summary())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListUsers returns every user record
func (s *SocialGraphService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepository.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

func (s *SocialGraphService) materialize(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := s.userRepository.EnsureUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(a))
	for _, id := range a {
		in[id] = true
	}
	var out []string
	for _, id := range b {
		if in[id] {
			out = append(out, id)
			delete(in, id)
		}
	}
	sort.Strings(out)
	return out
}
