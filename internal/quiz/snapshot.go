package quiz

import (
	"fmt"

	"github.com/stemsi/quizrunner/internal/model"
)

// Snapshot is the serialisable form of a Session, used by session stores
// that keep state outside the process heap.
type Snapshot struct {
	QuestionCount  int          `json:"question_count"`
	Mode           Mode         `json:"mode"`
	CurrentIndex   int          `json:"current_index"`
	SelectedOption *int         `json:"selected_option,omitempty"`
	IsAnswered     bool         `json:"is_answered"`
	AnsweredCount  int          `json:"answered_count"`
	CorrectCount   int          `json:"correct_count"`
	Streak         int          `json:"streak"`
	FinalAnswers   map[int]bool `json:"final_answers"`
	WrongLog       []WrongEntry `json:"wrong_log"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		QuestionCount: s.total,
		Mode:          s.mode,
		CurrentIndex:  s.currentIndex,
		IsAnswered:    s.answered,
		AnsweredCount: s.answeredCount,
		CorrectCount:  s.correctCount,
		Streak:        s.streak,
		FinalAnswers:  make(map[int]bool, len(s.finalAnswers)),
		WrongLog:      s.WrongLog(),
	}
	if s.selected != nil {
		choice := *s.selected
		snap.SelectedOption = &choice
	}
	for pos, correct := range s.finalAnswers {
		snap.FinalAnswers[pos] = correct
	}
	return snap
}

// Restore rebuilds a session over questions from snap. Snapshots that break
// the session invariants are rejected with ErrInvalidArgument.
func Restore(questions []model.Question, snap Snapshot) (*Session, error) {
	if err := checkSnapshot(questions, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	s := &Session{
		questions:     questions,
		total:         snap.QuestionCount,
		mode:          snap.Mode,
		currentIndex:  snap.CurrentIndex,
		answered:      snap.IsAnswered,
		answeredCount: snap.AnsweredCount,
		correctCount:  snap.CorrectCount,
		streak:        snap.Streak,
		finalAnswers:  make(map[int]bool, len(snap.FinalAnswers)),
	}
	if snap.SelectedOption != nil {
		choice := *snap.SelectedOption
		s.selected = &choice
	}
	for pos, correct := range snap.FinalAnswers {
		s.finalAnswers[pos] = correct
	}
	if len(snap.WrongLog) > 0 {
		s.wrongLog = make([]WrongEntry, len(snap.WrongLog))
		copy(s.wrongLog, snap.WrongLog)
	}
	return s, nil
}

func checkSnapshot(questions []model.Question, snap Snapshot) error {
	n := snap.QuestionCount
	if n < 0 || n > len(questions) {
		return fmt.Errorf("question count %d outside [0, %d]", n, len(questions))
	}
	if snap.Mode != ModeQuiz && snap.Mode != ModeResult {
		return fmt.Errorf("unknown mode %q", snap.Mode)
	}
	if n == 0 {
		if snap.CurrentIndex != 0 || snap.Mode != ModeQuiz {
			return fmt.Errorf("empty run must sit on index 0 in quiz mode")
		}
	} else if snap.CurrentIndex < 0 || snap.CurrentIndex >= n {
		return fmt.Errorf("current index %d outside [0, %d)", snap.CurrentIndex, n)
	}
	if snap.SelectedOption != nil {
		if n == 0 {
			return fmt.Errorf("selection without questions")
		}
		opts := len(questions[snap.CurrentIndex].Options)
		if *snap.SelectedOption < 0 || *snap.SelectedOption >= opts {
			return fmt.Errorf("selected option %d outside [0, %d)", *snap.SelectedOption, opts)
		}
	}
	if snap.IsAnswered && snap.SelectedOption == nil {
		return fmt.Errorf("answered question without a selection")
	}
	if snap.Mode == ModeResult && (!snap.IsAnswered || snap.CurrentIndex != n-1) {
		return fmt.Errorf("result mode requires the last question to be judged")
	}
	if snap.AnsweredCount < 0 || snap.CorrectCount < 0 || snap.Streak < 0 ||
		snap.CorrectCount > snap.AnsweredCount || snap.Streak > snap.CorrectCount {
		return fmt.Errorf("inconsistent counters")
	}
	for pos := range snap.FinalAnswers {
		if pos < 1 || pos > n {
			return fmt.Errorf("final answer for position %d outside [1, %d]", pos, n)
		}
	}
	for _, entry := range snap.WrongLog {
		if entry.Position < 1 || entry.Position > n {
			return fmt.Errorf("wrong log position %d outside [1, %d]", entry.Position, n)
		}
	}
	return nil
}
