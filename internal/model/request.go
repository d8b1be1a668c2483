package model

// SelectOptionRequest is the body of POST /sessions/:id/select.
type SelectOptionRequest struct {
	Option *int `json:"option" binding:"required,min=0"`
}

// ResetRequest is the optional body of POST /sessions/:id/reset.
// A missing question_count restarts over the whole question set.
type ResetRequest struct {
	QuestionCount *int `json:"question_count" binding:"omitempty,min=0"`
}

// ListQuestionsQuery pages through GET /questions.
type ListQuestionsQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
