package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/follow-graph/backend/internal/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the connection of the configured store backend
type DB struct {
	Backend  string
	Postgres *gorm.DB
	Mongo    *mongo.Client
	Redis    *redis.Client

	cfg    *Config
	logger *slog.Logger
}

// InitDB opens and pings the store selected by cfg.StoreBackend
func InitDB(cfg *Config, logger *slog.Logger) (*DB, error) {
	db := &DB{Backend: cfg.StoreBackend, cfg: cfg, logger: logger}

	var err error
	switch cfg.StoreBackend {
	case StoreMongo:
		db.Mongo, err = initMongo(cfg.MongoURI, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
	case StorePostgres:
		db.Postgres, err = initPostgres(cfg.PostgresUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	case StoreRedis:
		db.Redis, err = initRedis(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	case StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart.")
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	logger.Info("Store initialized", slog.String("backend", cfg.StoreBackend))
	return db, nil
}

// UserRepository builds the repository for the open backend
func (db *DB) UserRepository() (repositories.UserRepository, error) {
	switch {
	case db.Mongo != nil:
		return repositories.NewMongoUserRepository(db.Mongo.Database(db.cfg.MongoDatabase), db.cfg.MongoTransactions), nil
	case db.Postgres != nil:
		repo := repositories.NewPostgresUserRepository(db.Postgres)
		if err := repo.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
		db.logger.Info("PostgreSQL auto-migrations completed.")
		return repo, nil
	case db.Redis != nil:
		return repositories.NewRedisUserRepository(db.Redis, db.cfg.RedisKeyPrefix), nil
	default:
		return repositories.NewMemoryUserRepository(), nil
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string, logger *slog.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMonitor(NewMongoMonitor(logger))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func initRedis(cfg *Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// CloseDB closes the open connection
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.logger.Error("Error getting SQL DB from GORM", "err", err)
		} else if err := sqlDB.Close(); err != nil {
			db.logger.Error("Error closing PostgreSQL connection", "err", err)
		} else {
			db.logger.Info("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("Error closing MongoDB connection", "err", err)
		} else {
			db.logger.Info("MongoDB connection closed.")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			db.logger.Error("Error closing Redis connection", "err", err)
		} else {
			db.logger.Info("Redis connection closed.")
		}
	}
}
