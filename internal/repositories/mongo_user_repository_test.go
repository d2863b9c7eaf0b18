package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestFollowPipeline(t *testing.T) {
	p := followPipeline("$evil", "2024-05-01")
	require.Len(t, p, 1)
	require.Equal(t, "$set", p[0][0].Key)

	fields, ok := p[0][0].Value.(bson.D)
	require.True(t, ok)
	require.Len(t, fields, 3)
	assert.Equal(t, "follow_count", fields[0].Key)
	assert.Equal(t, "last_follow_date", fields[1].Key)
	assert.Equal(t, bson.M{"$literal": "2024-05-01"}, fields[1].Value)
	assert.Equal(t, "followers", fields[2].Key)

	// IDs are wrapped in $literal so they are never read as field paths
	raw, err := bson.MarshalExtJSON(bson.D{{Key: "p", Value: p}}, false, false)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"$literal":"$evil"}`)
}

func TestUnfollowPipeline(t *testing.T) {
	plain := unfollowPipeline("a", false)
	fields := plain[0][0].Value.(bson.D)
	assert.Equal(t, "follow_count", fields[0].Key)
	_, clamped := fields[0].Value.(bson.M)["$max"]
	assert.False(t, clamped)

	floored := unfollowPipeline("a", true)
	fields = floored[0][0].Value.(bson.D)
	_, clamped = fields[0].Value.(bson.M)["$max"]
	assert.True(t, clamped)
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func counted(n int) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func commandNames(events []*event.CommandStartedEvent) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.CommandName
	}
	return names
}

func TestMongoUserRepository_EnsureUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.EnsureUser(context.Background(), "a"))
		cmd := mt.GetStartedEvent().Command.String()
		assert.Contains(mt, cmd, `"$setOnInsert"`)
		assert.Contains(mt, cmd, `"upsert": true`)
	})

	mt.Run("concurrent insert wins", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "duplicate key"}))

		assert.NoError(mt, repo.EnsureUser(context.Background(), "a"))
	})
}

func TestMongoUserRepository_AddFollow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("new edge", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(1), updated(1))

		require.NoError(mt, repo.AddFollow(ctx, "a", "b", "2024-05-01"))
		assert.Equal(mt, []string{"update", "update"}, commandNames(mt.GetAllStartedEvents()))
	})

	mt.Run("already following", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(0), counted(1))

		assert.ErrorIs(mt, repo.AddFollow(ctx, "a", "b", "2024-05-01"), ErrAlreadyFollowing)
		assert.Equal(mt, []string{"update", "aggregate"}, commandNames(mt.GetAllStartedEvents()),
			"followee must not be touched")
	})

	mt.Run("unknown follower", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(0), counted(0))

		assert.ErrorIs(mt, repo.AddFollow(ctx, "ghost", "b", "2024-05-01"), ErrUserNotFound)
	})

	mt.Run("unknown followee rolls back following", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(1), updated(0), updated(1))

		assert.ErrorIs(mt, repo.AddFollow(ctx, "a", "ghost", "2024-05-01"), ErrUserNotFound)

		events := mt.GetAllStartedEvents()
		require.Equal(mt, []string{"update", "update", "update"}, commandNames(events))
		rollback := events[2].Command.String()
		assert.Contains(mt, rollback, `"$pull"`)
		assert.Contains(mt, rollback, `"ghost"`)
	})

	mt.Run("followee write error rolls back following", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(
			updated(1),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline", Name: "BadValue"}),
			updated(1),
		)

		err := repo.AddFollow(ctx, "a", "b", "2024-05-01")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrUserNotFound)
		assert.Len(mt, mt.GetAllStartedEvents(), 3)
	})
}

func TestMongoUserRepository_AddFollowInTransaction(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("commits both updates", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, true)
		mt.AddMockResponses(updated(1), updated(1), mtest.CreateSuccessResponse())

		require.NoError(mt, repo.AddFollow(ctx, "a", "b", "2024-05-01"))

		events := mt.GetAllStartedEvents()
		require.Equal(mt, []string{"update", "update", "commitTransaction"}, commandNames(events))
		_, err := events[0].Command.LookupErr("startTransaction")
		assert.NoError(mt, err, "first write opens the transaction")
	})

	mt.Run("aborts instead of compensating", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, true)
		mt.AddMockResponses(updated(1), updated(0), mtest.CreateSuccessResponse())

		assert.ErrorIs(mt, repo.AddFollow(ctx, "a", "ghost", "2024-05-01"), ErrUserNotFound)
		assert.Equal(mt, []string{"update", "update", "abortTransaction"}, commandNames(mt.GetAllStartedEvents()))
	})
}

func TestMongoUserRepository_RemoveFollow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("floored", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(1), updated(1))

		require.NoError(mt, repo.RemoveFollow(ctx, "a", "b", true))
		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Contains(mt, events[0].Command.String(), `"$pull"`)
		assert.Contains(mt, events[1].Command.String(), `"$max"`)
	})

	mt.Run("unknown follower", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(0))

		assert.ErrorIs(mt, repo.RemoveFollow(ctx, "ghost", "b", false), ErrUserNotFound)
		assert.Len(mt, mt.GetAllStartedEvents(), 1)
	})

	mt.Run("unknown followee", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB, false)
		mt.AddMockResponses(updated(1), updated(0))

		assert.ErrorIs(mt, repo.RemoveFollow(ctx, "a", "ghost", false), ErrUserNotFound)
	})
}
