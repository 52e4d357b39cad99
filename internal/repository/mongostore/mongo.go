package mongostore

import (
	"context"
	"fmt"
	"time"

	"guardians/internal/config"
	"guardians/internal/domain"
	"guardians/internal/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	QuizzesCollection  = "quizzes"
	AttemptsCollection = "quiz_attempts"
)

// Connect opens a client, pings the primary and returns the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Get().Info("connected to MongoDB", zap.String("database", cfg.Database))
	return client, client.Database(cfg.Database), nil
}

// Disconnect closes the client, logging instead of failing.
func Disconnect(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB", zap.Error(err))
	}
}

func quizIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
}

// attemptIndexes carries the unique (quiz, user, number) key attempt numbering relies on.
func attemptIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "quiz_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "attempt_number", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uq_quiz_attempts_number"),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "quiz_id", Value: 1}, {Key: "status", Value: 1}}},
	}
}

// EnsureIndexes creates the indexes of both collections. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(QuizzesCollection).Indexes().CreateMany(ctx, quizIndexes()); err != nil {
		return fmt.Errorf("failed to create quiz indexes: %w", err)
	}
	if _, err := db.Collection(AttemptsCollection).Indexes().CreateMany(ctx, attemptIndexes()); err != nil {
		return fmt.Errorf("failed to create attempt indexes: %w", err)
	}
	return nil
}

// passthroughTransactionManager runs fn directly. Every store write is a
// single-document operation, so standalone servers without sessions work.
type passthroughTransactionManager struct{}

// NewTransactionManager returns the domain.TransactionManager used with the Mongo backend.
func NewTransactionManager() domain.TransactionManager {
	return passthroughTransactionManager{}
}

func (passthroughTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
