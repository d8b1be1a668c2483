package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizrunner/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListQuestions retrieves the whole question set in presentation order.
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, difficulty, question_type, prompt, options, answer_index, explanation
		 FROM questions
		 ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.Difficulty, &q.Type, &q.Prompt, &q.Options, &q.AnswerIndex, &q.Explanation); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceAll replaces the stored set with questions, keeping their order.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	batch := &pgx.Batch{}
	for i, q := range questions {
		batch.Queue(
			`INSERT INTO questions (id, position, category, difficulty, question_type, prompt, options, answer_index, explanation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			q.ID, i+1, q.Category, q.Difficulty, q.Type, q.Prompt, q.Options, q.AnswerIndex, q.Explanation,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}

	return tx.Commit(ctx)
}
