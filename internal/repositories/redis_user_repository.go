package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/anonto42/follow-graph/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisUsersKey  = "users"
	fieldUsername  = "username"
	fieldLastDate  = "last_follow_date"
	fieldFollowCnt = "follow_count"
)

// RedisUserRepository implements UserRepository on Redis. Each user is a hash plus
// two sets; edge changes run as Lua scripts over both users.
type RedisUserRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisUserRepository creates a new RedisUserRepository; prefix namespaces keys
func NewRedisUserRepository(rdb *redis.Client, prefix string) *RedisUserRepository {
	return &RedisUserRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisUserRepository) userKey(id string) string      { return r.prefix + "user:" + id }
func (r *RedisUserRepository) followersKey(id string) string { return r.prefix + "user:" + id + ":followers" }
func (r *RedisUserRepository) followingKey(id string) string { return r.prefix + "user:" + id + ":following" }
func (r *RedisUserRepository) indexKey() string              { return r.prefix + redisUsersKey }

// EnsureUser creates the user hash if missing; HSETNX keeps it idempotent
func (r *RedisUserRepository) EnsureUser(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, r.userKey(id), fieldUsername, models.UsernameFor(id))
		pipe.HSetNX(ctx, r.userKey(id), fieldFollowCnt, 0)
		pipe.SAdd(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", id, err)
	}
	return nil
}

// GetUserByID loads a user hash and its two sets
func (r *RedisUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.load(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// GetUsersByIDs loads the users that exist among ids
func (r *RedisUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	return r.load(ctx, ids)
}

// GetUsers loads every indexed user
func (r *RedisUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	ids, err := r.rdb.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	return r.load(ctx, ids)
}

// AddFollow checks the edge, applies the daily counter rule and writes both sets in
// one script, so concurrent follows of the same user never conflict
func (r *RedisUserRepository) AddFollow(ctx context.Context, followerID, followeeID, day string) error {
	keys := []string{
		r.userKey(followerID), r.userKey(followeeID),
		r.followingKey(followerID), r.followersKey(followeeID),
	}
	res, err := addFollowScript.Run(ctx, r.rdb, keys, followerID, followeeID, day).Int()
	if err != nil {
		return fmt.Errorf("add follow: %w", err)
	}
	return scriptResult(res)
}

// RemoveFollow drops the edge and decrements the counter in one script
func (r *RedisUserRepository) RemoveFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error {
	keys := []string{
		r.userKey(followerID), r.userKey(followeeID),
		r.followingKey(followerID), r.followersKey(followeeID),
	}
	floor := "0"
	if floorAtZero {
		floor = "1"
	}
	res, err := removeFollowScript.Run(ctx, r.rdb, keys, followerID, followeeID, floor).Int()
	if err != nil {
		return fmt.Errorf("remove follow: %w", err)
	}
	return scriptResult(res)
}

// Ping checks the connection
func (r *RedisUserRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// KEYS: follower hash, followee hash, follower following set, followee followers set
// ARGV: follower id, followee id, day
var addFollowScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 or redis.call('EXISTS', KEYS[2]) == 0 then
	return -1
end
if redis.call('SISMEMBER', KEYS[3], ARGV[2]) == 1 then
	return 0
end
if redis.call('HGET', KEYS[2], 'last_follow_date') == ARGV[3] then
	redis.call('HINCRBY', KEYS[2], 'follow_count', 1)
else
	redis.call('HSET', KEYS[2], 'follow_count', 1, 'last_follow_date', ARGV[3])
end
redis.call('SADD', KEYS[4], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[2])
return 1
`)

// KEYS as addFollowScript; ARGV: follower id, followee id, floor flag
var removeFollowScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 or redis.call('EXISTS', KEYS[2]) == 0 then
	return -1
end
redis.call('SREM', KEYS[3], ARGV[2])
redis.call('SREM', KEYS[4], ARGV[1])
local n = redis.call('HINCRBY', KEYS[2], 'follow_count', -1)
if ARGV[3] == '1' and n < 0 then
	redis.call('HSET', KEYS[2], 'follow_count', 0)
end
return 1
`)

func scriptResult(code int) error {
	switch code {
	case -1:
		return ErrUserNotFound
	case 0:
		return ErrAlreadyFollowing
	}
	return nil
}

// load fetches hashes and sets for ids in one pipeline, skipping unknown IDs
func (r *RedisUserRepository) load(ctx context.Context, ids []string) ([]models.User, error) {
	type pending struct {
		id        string
		hash      *redis.MapStringStringCmd
		followers *redis.StringSliceCmd
		following *redis.StringSliceCmd
	}

	seen := make(map[string]bool, len(ids))
	cmds := make([]pending, 0, len(ids))
	pipe := r.rdb.Pipeline()
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		cmds = append(cmds, pending{
			id:        id,
			hash:      pipe.HGetAll(ctx, r.userKey(id)),
			followers: pipe.SMembers(ctx, r.followersKey(id)),
			following: pipe.SMembers(ctx, r.followingKey(id)),
		})
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
	}

	users := make([]models.User, 0, len(cmds))
	for _, c := range cmds {
		h := c.hash.Val()
		if len(h) == 0 {
			continue
		}
		u := models.User{
			ID:        c.id,
			Username:  h[fieldUsername],
			Followers: c.followers.Val(),
			Following: c.following.Val(),
		}
		if d := h[fieldLastDate]; d != "" {
			u.LastFollowDate = &d
		}
		if n, err := strconv.ParseInt(h[fieldFollowCnt], 10, 64); err == nil {
			u.FollowCount = n
		}
		u.Normalize()
		sort.Strings(u.Followers)
		sort.Strings(u.Following)
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
