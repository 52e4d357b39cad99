package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardians/internal/domain"
	"guardians/internal/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// DefaultNumberRetries bounds how often an insert is retried after a duplicate attempt number.
const DefaultNumberRetries = 5

// AttemptStore implements domain.AttemptRepository on a MongoDB collection.
// Attempt numbers rely on the unique (quiz_id, user_id, attempt_number) index
// created by EnsureIndexes.
type AttemptStore struct {
	collection    *mongo.Collection
	numberRetries int
}

func NewAttemptStore(db *mongo.Database, numberRetries int) domain.AttemptRepository {
	if numberRetries <= 0 {
		numberRetries = DefaultNumberRetries
	}
	return &AttemptStore{collection: db.Collection(AttemptsCollection), numberRetries: numberRetries}
}

func buildAttemptFilter(filter domain.AttemptFilter) bson.M {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.QuizID != "" {
		query["quiz_id"] = filter.QuizID
	}
	return query
}

// completedStatsPipeline averages the completed attempts of one quiz into a single document.
func completedStatsPipeline(quizID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "quiz_id", Value: quizID},
			{Key: "status", Value: string(domain.AttemptCompleted)},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_percentage", Value: bson.D{{Key: "$avg", Value: "$percentage"}}},
			{Key: "avg_time_spent", Value: bson.D{{Key: "$avg", Value: "$time_spent"}}},
			{Key: "pass_ratio", Value: bson.D{{Key: "$avg", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$passed", 1, 0}},
			}}}},
		}}},
	}
}

// nextAttemptNumber returns the highest stored number plus one.
func (s *AttemptStore) nextAttemptNumber(ctx context.Context, quizID, userID string) (int, error) {
	var last struct {
		AttemptNumber int `bson:"attempt_number"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "attempt_number", Value: -1}}).
		SetProjection(bson.D{{Key: "attempt_number", Value: 1}})
	err := s.collection.FindOne(ctx, bson.M{"quiz_id": quizID, "user_id": userID}, opts).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 1, nil
		}
		return 0, err
	}
	return last.AttemptNumber + 1, nil
}

// CreateNextAttempt reads the next number and inserts; a duplicate key means
// a concurrent start took the number, so the read is repeated.
func (s *AttemptStore) CreateNextAttempt(ctx context.Context, attempt *domain.Attempt, maxAttempts int) error {
	var lastErr error
	for try := 0; try < s.numberRetries; try++ {
		next, err := s.nextAttemptNumber(ctx, attempt.QuizID, attempt.UserID)
		if err != nil {
			return fmt.Errorf("failed to read attempt number for quiz %s: %w", attempt.QuizID, err)
		}
		if maxAttempts > 0 && next > maxAttempts {
			return domain.ErrAttemptLimitReached
		}

		now := time.Now().UTC()
		attempt.AttemptNumber = next
		attempt.Status = domain.AttemptInProgress
		attempt.CreatedAt = now
		attempt.UpdatedAt = now

		_, err = s.collection.InsertOne(ctx, toAttemptDocument(attempt))
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to insert attempt for quiz %s: %w", attempt.QuizID, err)
		}
		lastErr = err
		logger.Get().Debug("attempt number taken, retrying",
			zap.String("quizID", attempt.QuizID),
			zap.String("userID", attempt.UserID),
			zap.Int("try", try+1))
	}
	return fmt.Errorf("failed to allocate attempt number after %d tries: %w", s.numberRetries, lastErr)
}

func (s *AttemptStore) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	var doc attemptDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt by id %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (s *AttemptStore) CountByQuizAndUser(ctx context.Context, quizID, userID string) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"quiz_id": quizID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts for quiz %s: %w", quizID, err)
	}
	return int(count), nil
}

// CompleteAttempt only matches an attempt that is still in progress.
func (s *AttemptStore) CompleteAttempt(ctx context.Context, attempt *domain.Attempt) (bool, error) {
	filter := bson.M{"_id": attempt.ID, "status": string(domain.AttemptInProgress)}
	update := bson.M{"$set": bson.M{
		"status":       string(attempt.Status),
		"answers":      toAnswerRecords(attempt.Answers),
		"score":        attempt.Score,
		"percentage":   attempt.Percentage,
		"passed":       attempt.Passed,
		"time_spent":   attempt.TimeSpent,
		"completed_at": attempt.CompletedAt,
		"updated_at":   attempt.UpdatedAt,
	}}
	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to complete attempt %s: %w", attempt.ID, err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *AttemptStore) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]*domain.Attempt, error) {
	opts := options.Find().SetSort(newestFirst())
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := s.collection.Find(ctx, buildAttemptFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find attempts: %w", err)
	}
	defer cursor.Close(ctx)

	attempts := make([]*domain.Attempt, 0)
	for cursor.Next(ctx) {
		var doc attemptDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode attempt: %w", err)
		}
		attempts = append(attempts, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return attempts, nil
}

func (s *AttemptStore) AggregateCompleted(ctx context.Context, quizID string) (*domain.AttemptAggregate, error) {
	cursor, err := s.collection.Aggregate(ctx, completedStatsPipeline(quizID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempts for quiz %s: %w", quizID, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count         int     `bson:"count"`
		AvgPercentage float64 `bson:"avg_percentage"`
		AvgTimeSpent  float64 `bson:"avg_time_spent"`
		PassRatio     float64 `bson:"pass_ratio"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode attempt aggregate: %w", err)
	}

	// $group yields no document when nothing matched
	if len(rows) == 0 {
		return &domain.AttemptAggregate{}, nil
	}
	return &domain.AttemptAggregate{
		Count:         rows[0].Count,
		AvgPercentage: rows[0].AvgPercentage,
		AvgTimeSpent:  rows[0].AvgTimeSpent,
		PassRatio:     rows[0].PassRatio,
	}, nil
}
