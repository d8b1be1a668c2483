package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
)

// QuizHandler handles quiz session endpoints.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/sessions
// Starts a new run over the loaded question set.
func (h *QuizHandler) StartSession(c *gin.Context) {
	state, err := h.quizService.Start(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": state})
}

// GetSession godoc
// GET /api/v1/sessions/:id
// Returns the current screen of a session.
func (h *QuizHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	state, err := h.quizService.State(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SelectOption godoc
// POST /api/v1/sessions/:id/select
// Records a tentative choice for the current question.
func (h *QuizHandler) SelectOption(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	state, err := h.quizService.Select(c.Request.Context(), id, *req.Option)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Judge godoc
// POST /api/v1/sessions/:id/judge
// Finalizes the selected option and reveals the answer.
func (h *QuizHandler) Judge(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	judgment, state, err := h.quizService.Judge(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"judgment": judgment, "session": state})
}

// Next godoc
// POST /api/v1/sessions/:id/next
// Moves to the next question, or to the result screen after the last one.
func (h *QuizHandler) Next(c *gin.Context) {
	h.transition(c, h.quizService.Next)
}

// Previous godoc
// POST /api/v1/sessions/:id/previous
// Re-opens the preceding question.
func (h *QuizHandler) Previous(c *gin.Context) {
	h.transition(c, h.quizService.Previous)
}

// ReturnToQuiz godoc
// POST /api/v1/sessions/:id/return
// Leaves the result screen without discarding progress.
func (h *QuizHandler) ReturnToQuiz(c *gin.Context) {
	h.transition(c, h.quizService.ReturnToQuiz)
}

// Reset godoc
// POST /api/v1/sessions/:id/reset
// Restarts the run. The body is optional: {"question_count": n}.
func (h *QuizHandler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req model.ResetRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	state, err := h.quizService.Reset(c.Request.Context(), id, req.QuestionCount)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// GetReport godoc
// GET /api/v1/sessions/:id/report
// Returns the score and the deduplicated list of mistakes.
func (h *QuizHandler) GetReport(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	report, err := h.quizService.Report(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// EndSession godoc
// DELETE /api/v1/sessions/:id
// Discards a session.
func (h *QuizHandler) EndSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.quizService.End(c.Request.Context(), id); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Session ended"})
}

// ─── Internal helpers ───────────────────────────────────────────────

type transitionFunc func(ctx context.Context, id uuid.UUID) (*service.SessionState, error)

func (h *QuizHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	state, err := fn(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// sessionID parses the :id route parameter and answers the request itself
// when it is not a UUID.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
