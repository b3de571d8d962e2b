package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/nano-midea/threads/internal/models"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
}

// InitDB connects to PostgreSQL and MongoDB and migrates the reply and like
// edge tables.
func InitDB(ctx context.Context, cfg *Config) (*DB, error) {
	if cfg.PostgresConnStr == "" {
		return nil, errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI environment variable not set")
	}

	postgresDB, err := initPostgres(cfg.PostgresConnStr, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := postgresDB.WithContext(ctx).AutoMigrate(&models.Reply{}, &models.LikeEdge{}); err != nil {
		return nil, fmt.Errorf("failed to migrate PostgreSQL: %w", err)
	}

	mongoClient, err := initMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &DB{
		Postgres: postgresDB,
		Mongo:    mongoClient,
		MongoDB:  mongoClient.Database(cfg.MongoDatabase),
	}, nil
}

// initPostgres opens the PostgreSQL connection using GORM
func initPostgres(connStr, env string) (*gorm.DB, error) {
	level := logger.Warn
	if env == "production" {
		level = logger.Error
	}

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	slog.Info("connected to PostgreSQL")
	return db, nil
}

// initMongo opens the MongoDB connection
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("connected to MongoDB")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			slog.Error("getting SQL DB from GORM", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			slog.Error("closing PostgreSQL connection", "error", err)
		} else {
			slog.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			slog.Error("closing MongoDB connection", "error", err)
		} else {
			slog.Info("MongoDB connection closed")
		}
	}
}
