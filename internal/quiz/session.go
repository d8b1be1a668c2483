package quiz

import (
	"fmt"

	"github.com/stemsi/quizrunner/internal/model"
)

// Mode enumerates the screens a session can be on.
type Mode string

const (
	ModeQuiz   Mode = "QUIZ"
	ModeResult Mode = "RESULT"
)

// WrongEntry records one incorrect judgment.
type WrongEntry struct {
	Position           int    `json:"position"`
	QuestionText       string `json:"question_text"`
	SelectedOptionText string `json:"selected_option_text"`
	CorrectOptionText  string `json:"correct_option_text"`
	Explanation        string `json:"explanation"`
}

// Judgment is the outcome of Judge, returned so callers need no second lookup.
type Judgment struct {
	Position          int    `json:"position"`
	Correct           bool   `json:"correct"`
	SelectedOption    int    `json:"selected_option"`
	CorrectOption     int    `json:"correct_option"`
	CorrectOptionText string `json:"correct_option_text"`
	Explanation       string `json:"explanation"`
	Streak            int    `json:"streak"`
}

// Session is the state of one player's run through a question set.
//
// A Session has a single owner and is not safe for concurrent use. Every
// operation either completes fully or returns an error and leaves the
// state untouched.
type Session struct {
	questions []model.Question
	total     int

	mode         Mode
	currentIndex int
	selected     *int
	answered     bool

	answeredCount int
	correctCount  int
	streak        int

	// finalAnswers is keyed by 1-based position and holds the latest judgment.
	finalAnswers map[int]bool
	wrongLog     []WrongEntry
}

// New starts a session over the whole ordered question set. The set is
// shared read-only and must already be validated.
func New(questions []model.Question) (*Session, error) {
	s := &Session{questions: questions}
	if err := s.Reset(len(questions)); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards all progress and restarts the run over the first
// questionCount questions.
func (s *Session) Reset(questionCount int) error {
	if questionCount < 0 {
		return fmt.Errorf("%w: question count %d is negative", ErrInvalidArgument, questionCount)
	}
	if questionCount > len(s.questions) {
		return fmt.Errorf("%w: question count %d exceeds the %d questions available",
			ErrInvalidArgument, questionCount, len(s.questions))
	}

	s.total = questionCount
	s.mode = ModeQuiz
	s.currentIndex = 0
	s.selected = nil
	s.answered = false
	s.answeredCount = 0
	s.correctCount = 0
	s.streak = 0
	s.finalAnswers = make(map[int]bool)
	s.wrongLog = nil
	return nil
}

// ─── Transitions ────────────────────────────────────────────────────

// SelectOption records a tentative choice for the current question.
func (s *Session) SelectOption(optionIndex int) error {
	if err := s.requireQuizMode(); err != nil {
		return err
	}
	if s.answered {
		return fmt.Errorf("%w: question %d is already judged", ErrInvalidState, s.Position())
	}

	q := s.questions[s.currentIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("%w: option %d out of range [0, %d)", ErrInvalidArgument, optionIndex, len(q.Options))
	}

	choice := optionIndex
	s.selected = &choice
	return nil
}

// Judge finalizes the selected option as the answer to the current question.
func (s *Session) Judge() (Judgment, error) {
	if err := s.requireQuizMode(); err != nil {
		return Judgment{}, err
	}
	if s.answered {
		return Judgment{}, fmt.Errorf("%w: question %d is already judged", ErrInvalidState, s.Position())
	}
	if s.selected == nil {
		return Judgment{}, fmt.Errorf("%w: no option selected", ErrInvalidState)
	}

	q := s.questions[s.currentIndex]
	pos := s.Position()
	selected := *s.selected
	correct := selected == q.AnswerIndex

	s.answered = true
	s.answeredCount++
	s.finalAnswers[pos] = correct
	if correct {
		s.correctCount++
		s.streak++
	} else {
		s.streak = 0
		s.wrongLog = append(s.wrongLog, WrongEntry{
			Position:           pos,
			QuestionText:       q.Prompt,
			SelectedOptionText: q.Options[selected],
			CorrectOptionText:  q.CorrectOption(),
			Explanation:        q.Explanation,
		})
	}

	return Judgment{
		Position:          pos,
		Correct:           correct,
		SelectedOption:    selected,
		CorrectOption:     q.AnswerIndex,
		CorrectOptionText: q.CorrectOption(),
		Explanation:       q.Explanation,
		Streak:            s.streak,
	}, nil
}

// Next moves to the following question, or to the result screen when the
// current question is the last one. The current question must be judged.
func (s *Session) Next() error {
	if err := s.requireQuizMode(); err != nil {
		return err
	}
	if !s.answered {
		return fmt.Errorf("%w: question %d must be judged before moving on", ErrInvalidState, s.Position())
	}

	if s.IsLast() {
		s.mode = ModeResult
		return nil
	}
	s.enter(s.currentIndex + 1)
	return nil
}

// Previous re-opens the preceding question for answering. Its earlier
// outcome stands until it is judged again.
func (s *Session) Previous() error {
	if err := s.requireQuizMode(); err != nil {
		return err
	}
	if s.currentIndex == 0 {
		return fmt.Errorf("%w: already at the first question", ErrInvalidState)
	}
	s.enter(s.currentIndex - 1)
	return nil
}

// ReturnToQuiz leaves the result screen and goes back to the last question
// without clearing any progress.
func (s *Session) ReturnToQuiz() error {
	if s.mode != ModeResult {
		return fmt.Errorf("%w: session is not showing results", ErrInvalidState)
	}
	s.mode = ModeQuiz
	return nil
}

func (s *Session) enter(index int) {
	s.currentIndex = index
	s.selected = nil
	s.answered = false
}

func (s *Session) requireQuizMode() error {
	if s.total == 0 {
		return fmt.Errorf("%w: session has no questions", ErrInvalidState)
	}
	if s.mode != ModeQuiz {
		return fmt.Errorf("%w: session is showing results", ErrInvalidState)
	}
	return nil
}

// ─── Accessors ──────────────────────────────────────────────────────

// Mode returns the screen the session is on.
func (s *Session) Mode() Mode { return s.mode }

// QuestionCount is the number of questions in this run.
func (s *Session) QuestionCount() int { return s.total }

// CurrentIndex is the 0-based index of the question on screen.
func (s *Session) CurrentIndex() int { return s.currentIndex }

// Position is the 1-based position of the question on screen.
func (s *Session) Position() int { return s.currentIndex + 1 }

// IsLast reports whether the question on screen is the last one.
func (s *Session) IsLast() bool { return s.currentIndex == s.total-1 }

// IsAnswered reports whether the question on screen was judged in this visit.
func (s *Session) IsAnswered() bool { return s.answered }

// AnsweredCount counts every judgment made, re-answers included.
func (s *Session) AnsweredCount() int { return s.answeredCount }

// CorrectCount counts every correct judgment, re-answers included.
func (s *Session) CorrectCount() int { return s.correctCount }

// Streak is the number of correct judgments since the last wrong one.
func (s *Session) Streak() int { return s.streak }

// SelectedOption returns the chosen option, ok is false when nothing is chosen.
func (s *Session) SelectedOption() (index int, ok bool) {
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

// CurrentQuestion returns the question on screen, ok is false for an empty run.
func (s *Session) CurrentQuestion() (model.Question, bool) {
	if s.total == 0 {
		return model.Question{}, false
	}
	return s.questions[s.currentIndex], true
}

// FinalAnswer returns the latest judgment for a 1-based position.
func (s *Session) FinalAnswer(position int) (correct bool, judged bool) {
	correct, judged = s.finalAnswers[position]
	return correct, judged
}

// WrongLog returns a copy of every incorrect judgment, stale ones included.
func (s *Session) WrongLog() []WrongEntry {
	out := make([]WrongEntry, len(s.wrongLog))
	copy(out, s.wrongLog)
	return out
}
