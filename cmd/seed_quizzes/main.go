package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"guardians/cmd/seed_quizzes/internal/seedmodels"
	"guardians/internal/config"
	"guardians/internal/domain"
	"guardians/internal/logger"
	"guardians/internal/service"
	"guardians/internal/storage"

	"go.uber.org/zap"
)

const defaultSeedFilePath = "configs/seed/quizzes.yaml"

func main() {
	seedFilePath := flag.String("file", defaultSeedFilePath, "YAML quiz bank to import")
	author := flag.String("author", "seed", "createdBy recorded on imported quizzes")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		// If logger is not initialized yet, use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Loading seed data from file", zap.String("path", *seedFilePath))
	file, err := seedmodels.Load(*seedFilePath)
	if err != nil {
		log.Fatal("Failed to load seed file", zap.String("path", *seedFilePath), zap.Error(err))
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	// no cache: seeding writes straight to storage
	quizService := service.NewQuizService(store.Quizzes, service.NewQuizCache(store.Quizzes, nil, 0), store.Tx)

	created, skipped, failed := 0, 0, 0
	for _, sq := range file.Quizzes {
		exists, err := titleExists(ctx, quizService, sq.Title)
		if err != nil {
			log.Fatal("Failed to check existing quizzes", zap.Error(err))
		}
		if exists {
			log.Info("Quiz already present, skipping", zap.String("title", sq.Title))
			skipped++
			continue
		}

		quiz, err := quizService.CreateQuiz(ctx, sq.ToDomain(), *author)
		if err != nil {
			log.Error("Failed to create quiz", zap.String("title", sq.Title), zap.Error(err))
			failed++
			continue
		}
		if sq.Publish {
			if _, err := quizService.PublishQuiz(ctx, quiz.ID); err != nil {
				log.Error("Failed to publish quiz", zap.String("quizID", quiz.ID), zap.Error(err))
				failed++
				continue
			}
		}
		created++
	}

	log.Info("Quiz seeding completed",
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

// titleExists makes reruns idempotent: quizzes are matched by exact title.
func titleExists(ctx context.Context, quizService service.QuizService, title string) (bool, error) {
	quizzes, err := quizService.ListQuizzes(ctx, domain.QuizFilter{Query: title}, true)
	if err != nil {
		return false, err
	}
	for _, q := range quizzes {
		if strings.EqualFold(q.Title, title) {
			return true, nil
		}
	}
	return false, nil
}
