package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizrunner/internal/model"
)

// JudgmentRepository writes the judgment audit log.
type JudgmentRepository struct {
	pool *pgxpool.Pool
}

// NewJudgmentRepository creates a new JudgmentRepository.
func NewJudgmentRepository(pool *pgxpool.Pool) *JudgmentRepository {
	return &JudgmentRepository{pool: pool}
}

// InsertBatch appends many judgments in one round trip using UNNEST.
func (r *JudgmentRepository) InsertBatch(ctx context.Context, events []model.JudgmentEvent) error {
	if len(events) == 0 {
		return nil
	}

	n := len(events)
	sessionIDs := make([]uuid.UUID, 0, n)
	questionIDs := make([]string, 0, n)
	positions := make([]int, 0, n)
	selected := make([]int, 0, n)
	correct := make([]bool, 0, n)
	judgedAts := make([]time.Time, 0, n)

	for _, e := range events {
		sessionIDs = append(sessionIDs, e.SessionID)
		questionIDs = append(questionIDs, e.QuestionID)
		positions = append(positions, e.Position)
		selected = append(selected, e.SelectedOption)
		correct = append(correct, e.Correct)
		judgedAts = append(judgedAts, e.JudgedAt)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO judgments (session_id, question_id, position, selected_option, correct, judged_at)
		 SELECT * FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::int[],
			$4::int[],
			$5::bool[],
			$6::timestamptz[]
		 )`,
		sessionIDs, questionIDs, positions, selected, correct, judgedAts,
	)
	return err
}

// Insert appends a single judgment.
func (r *JudgmentRepository) Insert(ctx context.Context, e model.JudgmentEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO judgments (session_id, question_id, position, selected_option, correct, judged_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.SessionID, e.QuestionID, e.Position, e.SelectedOption, e.Correct, e.JudgedAt,
	)
	return err
}
