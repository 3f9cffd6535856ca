package database

import (
	"context"
	"fmt"
	"log/slog"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/config"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the two stores: accounts in PostgreSQL, complaints in MongoDB.
type Database struct {
	Postgres *gorm.DB
	Mongo    *mongo.Database
	client   *mongo.Client
}

// InitDB connects to both stores, migrates the users table and makes
// sure the complaint indexes exist.
func InitDB(ctx context.Context, cfg *config.Config) (*Database, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if !cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	pgDB, err := gorm.Open(postgres.Open(cfg.Postgres.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	slog.Info("running postgres migrations")
	if err := pgDB.AutoMigrate(&model.User{}); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	mongoDB := client.Database(cfg.Mongo.Database)

	if _, err := mongoDB.Collection(repository.ComplaintsCollection).Indexes().CreateMany(connectCtx, ComplaintIndexes()); err != nil {
		return nil, fmt.Errorf("create complaint indexes: %w", err)
	}

	slog.Info("connected to postgres and mongo", "mongo_db", cfg.Mongo.Database)
	return &Database{Postgres: pgDB, Mongo: mongoDB, client: client}, nil
}

// ComplaintIndexes back the listing filters and the analytics range scans.
func ComplaintIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "reportedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "location.building", Value: 1}, {Key: "location.room", Value: 1}}},
	}
}

// Close disconnects from both stores.
func (d *Database) Close(ctx context.Context) error {
	var firstErr error
	if sqlDB, err := d.Postgres.DB(); err == nil {
		firstErr = sqlDB.Close()
	}
	if d.client != nil {
		if err := d.client.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewRedisClient returns nil when no address is configured or the server
// does not answer; callers then fall back to in-process state.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, using in-process fallbacks", "addr", cfg.Addr, "error", err)
		_ = rdb.Close()
		return nil
	}
	slog.Info("connected to redis", "addr", cfg.Addr)
	return rdb
}
