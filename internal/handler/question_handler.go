package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
)

const defaultQuestionsPerPage = 20

// QuestionHandler serves the loaded question set without its answers.
type QuestionHandler struct {
	quizService *service.QuizService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(quizService *service.QuizService) *QuestionHandler {
	return &QuestionHandler{quizService: quizService}
}

// ListQuestions godoc
// GET /api/v1/questions?page=1&per_page=20
// Lists the questions of the loaded set in run order.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var query model.ListQuestionsQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PerPage == 0 {
		query.PerPage = defaultQuestionsPerPage
	}

	all := h.quizService.Questions()
	start := min((query.Page-1)*query.PerPage, len(all))
	end := min(start+query.PerPage, len(all))

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"questions": all[start:end]},
		response.NewPagination(query.Page, query.PerPage, len(all)),
	)
}
