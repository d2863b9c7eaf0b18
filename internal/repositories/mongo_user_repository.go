package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/follow-graph/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements UserRepository for MongoDB, one document per user
type MongoUserRepository struct {
	client          *mongo.Client
	collection      *mongo.Collection
	useTransactions bool
}

// NewMongoUserRepository creates a new MongoUserRepository. With useTransactions set,
// both halves of an edge change inside one multi-document transaction, which needs a
// replica set or sharded cluster.
func NewMongoUserRepository(db *mongo.Database, useTransactions bool) *MongoUserRepository {
	return &MongoUserRepository{
		client:          db.Client(),
		collection:      db.Collection("users"),
		useTransactions: useTransactions,
	}
}

// EnsureUser upserts a fresh user document if the ID is new
func (r *MongoUserRepository) EnsureUser(ctx context.Context, id string) error {
	u := models.NewUser(id)
	update := bson.M{
		"$setOnInsert": bson.M{
			"username":         u.Username,
			"followers":        bson.A{},
			"following":        bson.A{},
			"last_follow_date": nil,
			"follow_count":     int64(0),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("ensure user %s: %w", id, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Normalize()
	return &user, nil
}

// GetUsersByIDs retrieves the users whose IDs are in ids
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// GetUsers retrieves all users from MongoDB
func (r *MongoUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	return r.find(ctx, bson.D{})
}

func (r *MongoUserRepository) find(ctx context.Context, filter interface{}) ([]models.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

// AddFollow records a follow edge and bumps the followee's daily counter
func (r *MongoUserRepository) AddFollow(ctx context.Context, followerID, followeeID, day string) error {
	if !r.useTransactions {
		return r.addFollow(ctx, followerID, followeeID, day, true)
	}
	return r.inTransaction(ctx, func(sc context.Context) error {
		return r.addFollow(sc, followerID, followeeID, day, false)
	})
}

// RemoveFollow drops a follow edge and decrements the followee's counter
func (r *MongoUserRepository) RemoveFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error {
	if !r.useTransactions {
		return r.removeFollow(ctx, followerID, followeeID, floorAtZero)
	}
	return r.inTransaction(ctx, func(sc context.Context) error {
		return r.removeFollow(sc, followerID, followeeID, floorAtZero)
	})
}

// Ping checks connectivity to the primary
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoUserRepository) inTransaction(ctx context.Context, fn func(sc context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// addFollow claims the edge on the follower document first. The filter on
// "following" makes the existence check and the write a single atomic operation.
func (r *MongoUserRepository) addFollow(ctx context.Context, followerID, followeeID, day string, compensate bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": followerID, "following": bson.M{"$ne": followeeID}},
		bson.M{"$addToSet": bson.M{"following": followeeID}},
	)
	if err != nil {
		return fmt.Errorf("add following: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missingOr(ctx, followerID, ErrAlreadyFollowing)
	}

	res, err = r.collection.UpdateOne(ctx, bson.M{"_id": followeeID}, followPipeline(followerID, day))
	if err == nil && res.MatchedCount == 0 {
		err = ErrUserNotFound
	}
	if err != nil {
		if compensate {
			r.rollbackFollowing(ctx, followerID, followeeID)
		}
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("add follower: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) removeFollow(ctx context.Context, followerID, followeeID string, floorAtZero bool) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": followeeID}},
	)
	if err != nil {
		return fmt.Errorf("remove following: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	res, err = r.collection.UpdateOne(ctx, bson.M{"_id": followeeID}, unfollowPipeline(followerID, floorAtZero))
	if err != nil {
		return fmt.Errorf("remove follower: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// missingOr returns ErrUserNotFound when id has no document, otherwise fallback
func (r *MongoUserRepository) missingOr(ctx context.Context, id string, fallback error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return fallback
}

func (r *MongoUserRepository) rollbackFollowing(ctx context.Context, followerID, followeeID string) {
	// best effort; the caller already has the primary error
	_, _ = r.collection.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": followeeID}},
	)
}

// followPipeline adds followerID to followers and applies the daily counter rule in
// one update. All expressions in a $set stage read the pre-update document.
func followPipeline(followerID, day string) mongo.Pipeline {
	follower := bson.M{"$literal": followerID}
	followers := bson.M{"$ifNull": bson.A{"$followers", bson.A{}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "follow_count", Value: bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$last_follow_date", bson.M{"$literal": day}}},
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$follow_count", 0}}, 1}},
				1,
			}}},
			{Key: "last_follow_date", Value: bson.M{"$literal": day}},
			{Key: "followers", Value: bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{follower, followers}},
				followers,
				bson.M{"$concatArrays": bson.A{followers, bson.A{follower}}},
			}}},
		}}},
	}
}

func unfollowPipeline(followerID string, floorAtZero bool) mongo.Pipeline {
	var count interface{} = bson.M{"$subtract": bson.A{bson.M{"$ifNull": bson.A{"$follow_count", 0}}, 1}}
	if floorAtZero {
		count = bson.M{"$max": bson.A{0, count}}
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "follow_count", Value: count},
			{Key: "followers", Value: bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$followers", bson.A{}}},
				"cond":  bson.M{"$ne": bson.A{"$$this", bson.M{"$literal": followerID}}},
			}}},
		}}},
	}
}
