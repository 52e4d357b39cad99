package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"guardians/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuizStore implements domain.QuizRepository on a MongoDB collection.
type QuizStore struct {
	collection *mongo.Collection
}

// NewQuizStore creates a quiz store backed by the quizzes collection of db.
func NewQuizStore(db *mongo.Database) domain.QuizRepository {
	return &QuizStore{collection: db.Collection(QuizzesCollection)}
}

// buildQuizFilter translates a QuizFilter into a query document. Free text is
// quoted before it becomes a case-insensitive regex.
func buildQuizFilter(filter domain.QuizFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Difficulty != "" {
		query["difficulty"] = string(filter.Difficulty)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"tags": re},
		}
	}
	return query
}

func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if _, err := s.collection.InsertOne(ctx, toQuizDocument(quiz)); err != nil {
		return fmt.Errorf("failed to insert quiz %s: %w", quiz.ID, err)
	}
	return nil
}

func (s *QuizStore) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var doc quizDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, toQuizDocument(quiz))
	if err != nil {
		return fmt.Errorf("failed to update quiz %s: %w", quiz.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("quiz %s: %w", quiz.ID, mongo.ErrNoDocuments)
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, id string) (bool, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete quiz %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]*domain.Quiz, error) {
	cursor, err := s.collection.Find(ctx, buildQuizFilter(filter), options.Find().SetSort(newestFirst()))
	if err != nil {
		return nil, fmt.Errorf("failed to find quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	quizzes := make([]*domain.Quiz, 0)
	for cursor.Next(ctx) {
		var doc quizDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode quiz: %w", err)
		}
		quizzes = append(quizzes, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return quizzes, nil
}
