// Package storage opens the persistence backend selected by storage.backend.
package storage

import (
	"context"

	"guardians/internal/config"
	"guardians/internal/database"
	"guardians/internal/domain"
	"guardians/internal/repository"
	"guardians/internal/repository/mongostore"
)

type Storage struct {
	Quizzes  domain.QuizRepository
	Attempts domain.AttemptRepository
	Tx       domain.TransactionManager

	ping  func(ctx context.Context) error
	close func()
}

// Open connects to the SQL database or MongoDB. For mongo the indexes the
// attempt numbering relies on are created before Open returns.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Storage.Backend == config.StorageMongo {
		client, db, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			mongostore.Disconnect(client)
			return nil, err
		}
		return &Storage{
			Quizzes:  mongostore.NewQuizStore(db),
			Attempts: mongostore.NewAttemptStore(db, cfg.Attempts.MaxNumberRetries),
			Tx:       mongostore.NewTransactionManager(),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    func() { mongostore.Disconnect(client) },
		}, nil
	}

	db, err := database.NewSQLXDB(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		return nil, err
	}
	return &Storage{
		Quizzes:  repository.NewSQLXQuizRepository(db),
		Attempts: repository.NewSQLXAttemptRepository(db, cfg.Attempts.MaxNumberRetries),
		Tx:       repository.NewTransactionManagerAdapter(db),
		ping:     db.PingContext,
		close:    func() { _ = db.Close() },
	}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}
