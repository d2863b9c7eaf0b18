package models

import "time"

// DateLayout is the UTC calendar-date format stored in last_follow_date
const DateLayout = "2006-01-02"

// User is a node in the follow graph. Followers and Following are sets of user IDs.
type User struct {
	ID             string   `json:"id" bson:"_id"`
	Username       string   `json:"username" bson:"username"`
	Followers      []string `json:"followers" bson:"followers"`
	Following      []string `json:"following" bson:"following"`
	LastFollowDate *string  `json:"last_follow_date" bson:"last_follow_date"`
	FollowCount    int64    `json:"follow_count" bson:"follow_count"`
}

// UserSummary is the {id, username} pair returned by common-follower queries
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewUser builds the record created the first time an ID is seen
func NewUser(id string) *User {
	return &User{
		ID:        id,
		Username:  UsernameFor(id),
		Followers: []string{},
		Following: []string{},
	}
}

// UsernameFor derives the username assigned at first sight
func UsernameFor(id string) string {
	return "user_" + id
}

// DateOf renders t as a UTC calendar date
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NextFollowCount applies the daily counter rule for one new follow. The counter
// restarts from zero when the stored date is not today.
func NextFollowCount(lastFollowDate *string, count int64, today string) int64 {
	if lastFollowDate == nil || *lastFollowDate != today {
		return 1
	}
	return count + 1
}

// NextUnfollowCount decrements the counter, optionally clamping at zero
func NextUnfollowCount(count int64, floorAtZero bool) int64 {
	count--
	if floorAtZero && count < 0 {
		return 0
	}
	return count
}

// Summary returns the public {id, username} view of u
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// HasFollower reports whether id is in u's followers set
func (u *User) HasFollower(id string) bool {
	return contains(u.Followers, id)
}

// IsFollowing reports whether u follows id
func (u *User) IsFollowing(id string) bool {
	return contains(u.Following, id)
}

// Normalize replaces nil sets so they serialize as empty arrays
func (u *User) Normalize() {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns ids without id, preserving order
func Remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// FollowRequest is the body of /follow and /unfollow
type FollowRequest struct {
	FollowerID string `json:"follower_id" validate:"required"`
	FolloweeID string `json:"followee_id" validate:"required"`
}

// FollowerCountRequest is the body of /followers
type FollowerCountRequest struct {
	UserID string `json:"user_id"`
}

// CommonFollowersRequest is the body of /common_followers
type CommonFollowersRequest struct {
	User1ID string `json:"user1_id" validate:"required"`
	User2ID string `json:"user2_id" validate:"required"`
}
