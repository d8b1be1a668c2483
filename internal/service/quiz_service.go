package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/quiz"
	"github.com/stemsi/quizrunner/internal/repository"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = repository.ErrSessionNotFound

// SessionState is what a presentation layer needs to render one screen.
type SessionState struct {
	SessionID      uuid.UUID             `json:"session_id"`
	Mode           quiz.Mode             `json:"mode"`
	QuestionCount  int                   `json:"question_count"`
	CurrentIndex   int                   `json:"current_index"`
	Position       int                   `json:"position"`
	IsLast         bool                  `json:"is_last"`
	Question       *model.PublicQuestion `json:"question,omitempty"`
	SelectedOption *int                  `json:"selected_option"`
	IsAnswered     bool                  `json:"is_answered"`
	// Feedback is only present once the question on screen is judged.
	Feedback *Feedback     `json:"feedback,omitempty"`
	Progress quiz.Progress `json:"progress"`
}

// Feedback reveals the answer of a judged question.
type Feedback struct {
	Correct           bool   `json:"correct"`
	CorrectOption     int    `json:"correct_option"`
	CorrectOptionText string `json:"correct_option_text"`
	Explanation       string `json:"explanation"`
}

// QuizService runs quiz sessions for many players. Each session is owned
// independently; calls on the same id are serialised.
type QuizService struct {
	questions []model.Question
	store     repository.SessionStore
	publisher JudgmentPublisher
	locks     *sessionLocks
	now       func() time.Time
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService over a validated question set.
// publisher may be nil when the judgment log is disabled.
func NewQuizService(
	questions []model.Question,
	store repository.SessionStore,
	publisher JudgmentPublisher,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		questions: questions,
		store:     store,
		publisher: publisher,
		locks:     newSessionLocks(),
		now:       time.Now,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Questions returns the public view of the question set.
func (s *QuizService) Questions() []model.PublicQuestion {
	out := make([]model.PublicQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = model.NewPublicQuestion(q, i+1)
	}
	return out
}

// Start begins a new run and returns its id and first screen.
func (s *QuizService) Start(ctx context.Context) (*SessionState, error) {
	id := uuid.New()

	sess, err := quiz.New(s.questions)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, id.String(), sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	logger.ForSession(s.log, id.String()).Info().
		Int("questions", sess.QuestionCount()).
		Msg("Quiz session started")

	return buildState(id, sess), nil
}

// State returns the current screen of a session.
func (s *QuizService) State(ctx context.Context, id uuid.UUID) (*SessionState, error) {
	var state *SessionState
	err := s.view(ctx, id, func(sess *quiz.Session) {
		state = buildState(id, sess)
	})
	return state, err
}

// Select records a tentative choice for the current question.
func (s *QuizService) Select(ctx context.Context, id uuid.UUID, option int) (*SessionState, error) {
	return s.apply(ctx, id, func(sess *quiz.Session) error {
		return sess.SelectOption(option)
	})
}

// Judge finalizes the selected option and returns the outcome with the new screen.
func (s *QuizService) Judge(ctx context.Context, id uuid.UUID) (*quiz.Judgment, *SessionState, error) {
	var (
		judgment quiz.Judgment
		question model.Question
	)
	state, err := s.apply(ctx, id, func(sess *quiz.Session) error {
		var err error
		question, _ = sess.CurrentQuestion()
		judgment, err = sess.Judge()
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.ForSession(s.log, id.String()).Debug().
		Int("position", judgment.Position).
		Bool("correct", judgment.Correct).
		Int("streak", judgment.Streak).
		Msg("Answer judged")

	s.publish(ctx, model.JudgmentEvent{
		SessionID:      id,
		QuestionID:     question.ID,
		Position:       judgment.Position,
		SelectedOption: judgment.SelectedOption,
		Correct:        judgment.Correct,
		JudgedAt:       s.now().UTC(),
	})

	return &judgment, state, nil
}

// Next advances to the following question or to the result screen.
func (s *QuizService) Next(ctx context.Context, id uuid.UUID) (*SessionState, error) {
	state, err := s.apply(ctx, id, func(sess *quiz.Session) error {
		return sess.Next()
	})
	if err == nil && state.Mode == quiz.ModeResult {
		logger.ForSession(s.log, id.String()).Info().
			Int("answered", state.Progress.Answered).
			Int("correct", state.Progress.Correct).
			Msg("Quiz session finished")
	}
	return state, err
}

// Previous re-opens the preceding question.
func (s *QuizService) Previous(ctx context.Context, id uuid.UUID) (*SessionState, error) {
	return s.apply(ctx, id, func(sess *quiz.Session) error {
		return sess.Previous()
	})
}

// Reset restarts the run, discarding all progress. A nil count restarts
// over the whole question set.
func (s *QuizService) Reset(ctx context.Context, id uuid.UUID, count *int) (*SessionState, error) {
	n := len(s.questions)
	if count != nil {
		n = *count
	}
	state, err := s.apply(ctx, id, func(sess *quiz.Session) error {
		return sess.Reset(n)
	})
	if err == nil {
		logger.ForSession(s.log, id.String()).Info().Int("questions", n).Msg("Quiz session reset")
	}
	return state, err
}

// ReturnToQuiz leaves the result screen keeping all progress.
func (s *QuizService) ReturnToQuiz(ctx context.Context, id uuid.UUID) (*SessionState, error) {
	return s.apply(ctx, id, func(sess *quiz.Session) error {
		return sess.ReturnToQuiz()
	})
}

// Report derives the final report of a session.
func (s *QuizService) Report(ctx context.Context, id uuid.UUID) (*quiz.Report, error) {
	var report quiz.Report
	err := s.view(ctx, id, func(sess *quiz.Session) {
		report = sess.ComputeReport()
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// End discards a session.
func (s *QuizService) End(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.store.Get(ctx, id.String()); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id.String()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logger.ForSession(s.log, id.String()).Info().Msg("Quiz session ended")
	return nil
}

// ─── Internal helpers ───────────────────────────────────────────────

// apply loads a session, runs op and stores the result. Nothing is stored
// when op fails.
func (s *QuizService) apply(ctx context.Context, id uuid.UUID, op func(*quiz.Session) error) (*SessionState, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, id.String(), sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return buildState(id, sess), nil
}

func (s *QuizService) view(ctx context.Context, id uuid.UUID, read func(*quiz.Session)) error {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	read(sess)
	return nil
}

func (s *QuizService) load(ctx context.Context, id uuid.UUID) (*quiz.Session, error) {
	snap, err := s.store.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess, err := quiz.Restore(s.questions, snap)
	if err != nil {
		// A snapshot that no longer fits the question set is unusable.
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Discarding corrupt session")
		_ = s.store.Delete(ctx, id.String())
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *QuizService) publish(ctx context.Context, event model.JudgmentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// The audit log is best effort; the answer itself is already stored.
		s.log.Error().Err(err).Str("session_id", event.SessionID.String()).Msg("Failed to queue judgment")
	}
}

func buildState(id uuid.UUID, sess *quiz.Session) *SessionState {
	state := &SessionState{
		SessionID:     id,
		Mode:          sess.Mode(),
		QuestionCount: sess.QuestionCount(),
		CurrentIndex:  sess.CurrentIndex(),
		Position:      sess.Position(),
		IsLast:        sess.IsLast(),
		IsAnswered:    sess.IsAnswered(),
		Progress:      sess.Progress(),
	}

	if choice, ok := sess.SelectedOption(); ok {
		state.SelectedOption = &choice
	}

	q, ok := sess.CurrentQuestion()
	if !ok {
		return state
	}
	pq := model.NewPublicQuestion(q, sess.Position())
	state.Question = &pq

	if sess.IsAnswered() && state.SelectedOption != nil {
		state.Feedback = &Feedback{
			Correct:           *state.SelectedOption == q.AnswerIndex,
			CorrectOption:     q.AnswerIndex,
			CorrectOptionText: q.CorrectOption(),
			Explanation:       q.Explanation,
		}
	}
	return state
}
