package model

// Question represents a single multiple-choice question of the quiz set.
// Field rules are checked by the questionset package when the set is loaded.
type Question struct {
	ID          string   `json:"id" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Difficulty  int      `json:"difficulty" validate:"min=1,max=5"`
	Type        string   `json:"type" validate:"required"`
	Prompt      string   `json:"prompt" validate:"required"`
	Options     []string `json:"options" validate:"min=2"`
	AnswerIndex int      `json:"answer_index" validate:"min=0"`
	Explanation string   `json:"explanation" validate:"required"`
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	return q.Options[q.AnswerIndex]
}

// PublicQuestion is the view of a question sent to players before they answer.
// It never carries the answer index or the explanation.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Position   int      `json:"position"`
	Category   string   `json:"category"`
	Difficulty int      `json:"difficulty"`
	Type       string   `json:"type"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
}

// NewPublicQuestion strips the answer from q. position is 1-based.
func NewPublicQuestion(q Question, position int) PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		Position:   position,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Options:    options,
	}
}
