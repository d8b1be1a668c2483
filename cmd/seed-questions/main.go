package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/database"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/questionset"
	"github.com/stemsi/quizrunner/internal/repository"
)

// seed-questions replaces the questions table with a validated set, either
// the bundled one or a JSON file given with -file.
func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON question file (defaults to the bundled set)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		questions []model.Question
		err       error
	)
	if file == "" {
		questions = questionset.Builtin()
	} else if questions, err = questionset.LoadFile(file); err != nil {
		log.Fatal().Err(err).Msg("Failed to read question file")
	}

	if err := questionset.Validate(questions); err != nil {
		var ve *questionset.ValidationError
		if errors.As(err, &ve) {
			log.Fatal().
				Str("question_id", ve.QuestionID).
				Int("index", ve.Index).
				Str("reason", ve.Reason).
				Msg("Question set is invalid")
		}
		log.Fatal().Err(err).Msg("Question set is invalid")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewQuestionRepository(pool)
	if err := repo.ReplaceAll(ctx, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}

	log.Info().Int("count", len(questions)).Msg("Questions seeded")
}
