package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/handler"
	"github.com/stemsi/quizrunner/internal/middleware"
	"github.com/stemsi/quizrunner/internal/questionset"
	"github.com/stemsi/quizrunner/internal/repository"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
)

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	validator.Setup()

	log := zerolog.Nop()
	store := repository.NewMemorySessionStore(time.Hour)
	quizService := service.NewQuizService(questionset.Builtin(), store, nil, log)

	handlers := &Handlers{
		Quiz:     handler.NewQuizHandler(quizService, log),
		Question: handler.NewQuestionHandler(quizService),
		WS:       handler.NewWSHandler(quizService, log, nil),
		Health:   handler.NewHealthHandler(nil, log),
	}
	return SetupRouter(handlers, limiter, &config.Config{GinMode: gin.TestMode}, log)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type sessionBody struct {
	Session struct {
		SessionID      string `json:"session_id"`
		Mode           string `json:"mode"`
		Position       int    `json:"position"`
		SelectedOption *int   `json:"selected_option"`
		IsAnswered     bool   `json:"is_answered"`
		Question       *struct {
			ID          string `json:"id"`
			AnswerIndex *int   `json:"answer_index"`
		} `json:"question"`
		Feedback *struct {
			Correct bool `json:"correct"`
		} `json:"feedback"`
	} `json:"session"`
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decodeSession(t *testing.T, env envelope) sessionBody {
	t.Helper()
	var body sessionBody
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return body
}

func startSession(t *testing.T, r http.Handler) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/v1/sessions", "")
	if code != http.StatusCreated {
		t.Fatalf("start session: status %d", code)
	}
	return decodeSession(t, env).Session.SessionID
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	code, env := do(t, r, http.MethodGet, "/health", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"status":"ok"`) {
		t.Errorf("health = %d %s", code, env.Data)
	}
}

func TestListQuestions(t *testing.T) {
	r := newTestRouter(t, nil)

	code, env := do(t, r, http.MethodGet, "/api/v1/questions?per_page=2&page=2", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if env.Pagination == nil || env.Pagination.TotalItems != 3 || env.Pagination.TotalPages != 2 {
		t.Errorf("pagination = %+v", env.Pagination)
	}
	var body struct {
		Questions []map[string]any `json:"questions"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Questions) != 1 || body.Questions[0]["id"] != "q3" {
		t.Errorf("questions = %+v", body.Questions)
	}
	if _, leaked := body.Questions[0]["answer_index"]; leaked {
		t.Errorf("question list leaks the answer")
	}

	if code, env := do(t, r, http.MethodGet, "/api/v1/questions?per_page=0", ""); code != http.StatusOK || env.Error != nil {
		t.Errorf("per_page=0 uses the default, got %d %+v", code, env.Error)
	}
	if code, _ := do(t, r, http.MethodGet, "/api/v1/questions?page=-1", ""); code != http.StatusBadRequest {
		t.Errorf("page=-1 status = %d, want 400", code)
	}
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	id := startSession(t, r)
	base := "/api/v1/sessions/" + id

	code, env := do(t, r, http.MethodGet, base, "")
	if code != http.StatusOK {
		t.Fatalf("get session status = %d", code)
	}
	s := decodeSession(t, env).Session
	if s.Mode != "QUIZ" || s.Position != 1 || s.Question == nil || s.Question.AnswerIndex != nil {
		t.Errorf("initial session = %+v", s)
	}

	code, env = do(t, r, http.MethodPost, base+"/judge", "")
	if code != http.StatusConflict || env.Error == nil || env.Error.Code != "INVALID_STATE" {
		t.Errorf("judge without selection = %d %+v", code, env.Error)
	}

	answers := []int{1, 2, 1}
	for i, option := range answers {
		if i > 0 {
			if code, _ := do(t, r, http.MethodPost, base+"/next", ""); code != http.StatusOK {
				t.Fatalf("next status = %d", code)
			}
		}
		body, _ := json.Marshal(map[string]int{"option": option})
		if code, _ := do(t, r, http.MethodPost, base+"/select", string(body)); code != http.StatusOK {
			t.Fatalf("select status = %d", code)
		}
		code, env := do(t, r, http.MethodPost, base+"/judge", "")
		if code != http.StatusOK {
			t.Fatalf("judge status = %d", code)
		}
		s := decodeSession(t, env).Session
		if s.Feedback == nil || s.Feedback.Correct != (option == 1) {
			t.Errorf("question %d feedback = %+v", i+1, s.Feedback)
		}
	}

	code, env = do(t, r, http.MethodPost, base+"/next", "")
	if code != http.StatusOK || decodeSession(t, env).Session.Mode != "RESULT" {
		t.Fatalf("next after last question = %d %s", code, env.Data)
	}

	code, env = do(t, r, http.MethodGet, base+"/report", "")
	if code != http.StatusOK {
		t.Fatalf("report status = %d", code)
	}
	var report struct {
		Report struct {
			Total        int `json:"total"`
			CorrectCount int `json:"correct_count"`
			WrongCount   int `json:"wrong_count"`
			WrongEntries []struct {
				Position int `json:"position"`
			} `json:"wrong_entries"`
		} `json:"report"`
	}
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Report.Total != 3 || report.Report.CorrectCount != 2 || report.Report.WrongCount != 1 ||
		len(report.Report.WrongEntries) != 1 || report.Report.WrongEntries[0].Position != 2 {
		t.Errorf("report = %+v", report.Report)
	}

	if code, _ := do(t, r, http.MethodPost, base+"/next", ""); code != http.StatusConflict {
		t.Errorf("next in result mode status = %d, want 409", code)
	}
	if code, env := do(t, r, http.MethodPost, base+"/return", ""); code != http.StatusOK || decodeSession(t, env).Session.Mode != "QUIZ" {
		t.Errorf("return status = %d", code)
	}

	if code, _ := do(t, r, http.MethodPost, base+"/reset", `{"question_count":2}`); code != http.StatusOK {
		t.Errorf("reset status = %d", code)
	}
	if code, env := do(t, r, http.MethodPost, base+"/reset", `{"question_count":9}`); code != http.StatusBadRequest || env.Error.Code != "INVALID_ARGUMENT" {
		t.Errorf("reset(9) = %d %+v", code, env.Error)
	}
	if code, _ := do(t, r, http.MethodPost, base+"/reset", ""); code != http.StatusOK {
		t.Errorf("reset without body status = %d", code)
	}

	if code, _ := do(t, r, http.MethodDelete, base, ""); code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
	if code, env := do(t, r, http.MethodGet, base, ""); code != http.StatusNotFound || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("get after delete = %d %+v", code, env.Error)
	}
}

func TestSelectValidation(t *testing.T) {
	r := newTestRouter(t, nil)
	base := "/api/v1/sessions/" + startSession(t, r)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing option", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative option", `{"option":-1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", `{"option":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"out of range", `{"option":4}`, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"option zero", `{"option":0}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodPost, base+"/select", tt.body)
			if code != tt.status {
				t.Fatalf("status = %d, want %d", code, tt.status)
			}
			if tt.code != "" && (env.Error == nil || env.Error.Code != tt.code) {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestInvalidSessionID(t *testing.T) {
	r := newTestRouter(t, nil)
	code, env := do(t, r, http.MethodPost, "/api/v1/sessions/not-a-uuid/next", "")
	if code != http.StatusBadRequest || env.Error.Code != "INVALID_ID" {
		t.Errorf("invalid id = %d %+v", code, env.Error)
	}
}

func TestStartSessionRateLimited(t *testing.T) {
	r := newTestRouter(t, middleware.NewRateLimiter(1, time.Hour))
	startSession(t, r)
	code, env := do(t, r, http.MethodPost, "/api/v1/sessions", "")
	if code != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("second start = %d %+v", code, env.Error)
	}
}

func TestSessionStream(t *testing.T) {
	r := newTestRouter(t, nil)
	id := startSession(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}
	send := func(v any) map[string]any {
		t.Helper()
		if err := conn.WriteJSON(v); err != nil {
			t.Fatalf("write: %v", err)
		}
		return read()
	}

	if msg := read(); msg["event"] != "state" {
		t.Fatalf("first frame = %v, want state", msg)
	}
	if msg := send(map[string]any{"action": "ping"}); msg["event"] != "pong" {
		t.Errorf("ping reply = %v", msg)
	}
	if msg := send(map[string]any{"action": "judge"}); msg["event"] != "error" || msg["code"] != "INVALID_STATE" {
		t.Errorf("judge without selection = %v", msg)
	}
	if msg := send(map[string]any{"action": "select"}); msg["event"] != "error" || msg["code"] != "VALIDATION_ERROR" {
		t.Errorf("select without option = %v", msg)
	}
	if msg := send(map[string]any{"action": "select", "option": 1}); msg["event"] != "state" {
		t.Errorf("select reply = %v", msg)
	}
	msg := send(map[string]any{"action": "judge"})
	if msg["event"] != "judged" {
		t.Fatalf("judge reply = %v", msg)
	}
	if judgment, _ := msg["judgment"].(map[string]any); judgment["correct"] != true {
		t.Errorf("judgment = %v", msg["judgment"])
	}
	if msg := send(map[string]any{"action": "report"}); msg["event"] != "report" {
		t.Errorf("report reply = %v", msg)
	}
	if msg := send(map[string]any{"action": "dance"}); msg["event"] != "error" || msg["code"] != "INVALID_PAYLOAD" {
		t.Errorf("unknown action = %v", msg)
	}
}

func TestSessionStreamUnknownSession(t *testing.T) {
	r := newTestRouter(t, nil)
	code, env := do(t, r, http.MethodGet, "/ws/v1/sessions/6f1c1b1e-6a57-4f0c-9a3e-0d7c3b1c2a10/stream", "")
	if code != http.StatusNotFound || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("stream for unknown session = %d %+v", code, env.Error)
	}
}
