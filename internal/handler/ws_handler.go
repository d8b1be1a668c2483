package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
	ws "github.com/stemsi/quizrunner/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler drives a quiz session over a WebSocket.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Upgrades to WebSocket and accepts quiz actions as JSON frames. The current
// screen is pushed right after the upgrade.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// Reject unknown sessions before the upgrade so clients get a plain 404.
	state, err := h.quizService.State(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Player connected")

	if err := ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
		return
	}

	// The request context ends with the handler; actions outlive single frames.
	ctx := context.WithoutCancel(c.Request.Context())

	for {
		raw, err := ws.ReadFrame(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.dispatch(ctx, conn, id, raw); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, dropping connection")
			return
		}
	}
}

// dispatch runs one action and writes its reply. It only returns an error
// when the reply could not be written.
func (h *WSHandler) dispatch(ctx context.Context, conn *websocket.Conn, id uuid.UUID, raw []byte) error {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return writeCode(conn, response.ErrInvalidPayload, nil)
	}

	switch env.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

	case ws.ActionSelect:
		var req ws.SelectRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return writeCode(conn, response.ErrInvalidPayload, nil)
		}
		if fields := validator.Struct(&req); fields != nil {
			return writeCode(conn, response.ErrValidation, fields)
		}
		return h.writeState(conn, func() (*service.SessionState, error) {
			return h.quizService.Select(ctx, id, *req.Option)
		})

	case ws.ActionJudge:
		judgment, state, err := h.quizService.Judge(ctx, id)
		if err != nil {
			return h.writeErr(conn, err)
		}
		return ws.WriteTyped(conn, ws.JudgedResponse{Event: ws.EventJudged, Judgment: judgment, State: state})

	case ws.ActionNext:
		return h.writeState(conn, func() (*service.SessionState, error) {
			return h.quizService.Next(ctx, id)
		})

	case ws.ActionPrevious:
		return h.writeState(conn, func() (*service.SessionState, error) {
			return h.quizService.Previous(ctx, id)
		})

	case ws.ActionReturn:
		return h.writeState(conn, func() (*service.SessionState, error) {
			return h.quizService.ReturnToQuiz(ctx, id)
		})

	case ws.ActionReset:
		var req ws.ResetRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return writeCode(conn, response.ErrInvalidPayload, nil)
		}
		if fields := validator.Struct(&req); fields != nil {
			return writeCode(conn, response.ErrValidation, fields)
		}
		return h.writeState(conn, func() (*service.SessionState, error) {
			return h.quizService.Reset(ctx, id, req.QuestionCount)
		})

	case ws.ActionReport:
		report, err := h.quizService.Report(ctx, id)
		if err != nil {
			return h.writeErr(conn, err)
		}
		return ws.WriteTyped(conn, ws.ReportResponse{Event: ws.EventReport, Report: report})

	default:
		h.log.Warn().Str("action", string(env.Action)).Msg("Unknown action")
		return writeCode(conn, response.ErrInvalidPayload, map[string]string{"action": "unknown action: " + string(env.Action)})
	}
}

func (h *WSHandler) writeState(conn *websocket.Conn, fn func() (*service.SessionState, error)) error {
	state, err := fn()
	if err != nil {
		return h.writeErr(conn, err)
	}
	return ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state})
}

func (h *WSHandler) writeErr(conn *websocket.Conn, err error) error {
	code := errorCode(err)
	if code == response.ErrInternal {
		h.log.Error().Err(err).Msg("Action failed")
	}
	return writeCode(conn, code, nil)
}

func writeCode(conn *websocket.Conn, code response.ErrCode, fields map[string]string) error {
	return ws.WriteError(conn, string(code), response.GetMessage(code), fields)
}
