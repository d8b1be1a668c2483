package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/quiz"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/service"
)

// errorCode maps a service error onto the API error code sent to clients.
func errorCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, quiz.ErrInvalidState):
		return response.ErrInvalidState
	case errors.Is(err, quiz.ErrInvalidArgument):
		return response.ErrInvalidArgument
	case errors.Is(err, service.ErrSessionNotFound):
		return response.ErrSessionNotFound
	default:
		return response.ErrInternal
	}
}

// failFromError sends the response for err. Only unexpected errors are logged.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	code := errorCode(err)
	if code == response.ErrInternal {
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Fail(c, code)
}
