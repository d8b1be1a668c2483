package model

import (
	"time"

	"github.com/google/uuid"
)

// JudgmentEvent is one judged answer, queued for the judgment audit log.
type JudgmentEvent struct {
	SessionID      uuid.UUID `json:"session_id"`
	QuestionID     string    `json:"question_id"`
	Position       int       `json:"position"`
	SelectedOption int       `json:"selected_option"`
	Correct        bool      `json:"correct"`
	JudgedAt       time.Time `json:"judged_at"`
}
