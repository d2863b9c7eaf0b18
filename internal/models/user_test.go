package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNextFollowCount(t *testing.T) {
	tests := []struct {
		name  string
		last  *string
		count int64
		today string
		want  int64
	}{
		{name: "never followed", last: nil, count: 0, today: "2024-05-01", want: 1},
		{name: "same day", last: strPtr("2024-05-01"), count: 3, today: "2024-05-01", want: 4},
		{name: "new day resets", last: strPtr("2024-04-30"), count: 7, today: "2024-05-01", want: 1},
		{name: "negative count on new day", last: strPtr("2024-04-30"), count: -2, today: "2024-05-01", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextFollowCount(tt.last, tt.count, tt.today))
		})
	}
}

func TestNextUnfollowCount(t *testing.T) {
	assert.Equal(t, int64(2), NextUnfollowCount(3, false))
	assert.Equal(t, int64(-1), NextUnfollowCount(0, false))
	assert.Equal(t, int64(0), NextUnfollowCount(0, true))
	assert.Equal(t, int64(4), NextUnfollowCount(5, true))
}

func TestDateOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	ts := time.Date(2024, 5, 2, 3, 0, 0, 0, loc) // 2024-05-01T18:00Z
	assert.Equal(t, "2024-05-01", DateOf(ts))
}

func TestNewUser(t *testing.T) {
	u := NewUser("42")

	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "user_42", u.Username)
	assert.Empty(t, u.Followers)
	assert.NotNil(t, u.Followers)
	assert.Empty(t, u.Following)
	assert.Nil(t, u.LastFollowDate)
	assert.Zero(t, u.FollowCount)
}

func TestRemove(t *testing.T) {
	ids := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "c"}, Remove(ids, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, []string{"a", "b", "c"}, Remove(ids, "z"))
}
