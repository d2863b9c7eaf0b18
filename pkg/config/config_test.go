package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/anonto42/follow-graph/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "MONGO_URI", "MONGO_DATABASE", "MONGO_TRANSACTIONS", "FOLLOW_COUNT_FLOOR", "REDIS_DB"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://localhost:27017/", cfg.MongoURI)
	assert.Equal(t, "following_system", cfg.MongoDatabase)
	assert.False(t, cfg.MongoTransactions)
	assert.False(t, cfg.FloorFollowCount)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("MONGO_TRANSACTIONS", "true")
	t.Setenv("FOLLOW_COUNT_FLOOR", "1")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.True(t, cfg.MongoTransactions)
	assert.True(t, cfg.FloorFollowCount)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FOLLOW_COUNT_FLOOR", "sometimes")
	t.Setenv("REDIS_DB", "first")

	cfg := Load()
	assert.False(t, cfg.FloorFollowCount)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestInitDB(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := InitDB(&Config{StoreBackend: StoreMemory}, logger)
	require.NoError(t, err)
	defer db.CloseDB()

	repo, err := db.UserRepository()
	require.NoError(t, err)
	assert.IsType(t, &repositories.MemoryUserRepository{}, repo)

	_, err = InitDB(&Config{StoreBackend: "cassandra"}, logger)
	assert.Error(t, err)
}
