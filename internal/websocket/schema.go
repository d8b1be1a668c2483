package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionJudge    Action = "judge"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionReset    Action = "reset"
	ActionReturn   Action = "return"
	ActionReport   Action = "report"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SelectRequest chooses an option for the current question.
type SelectRequest struct {
	Action Action `json:"action"`
	Option *int   `json:"option" binding:"required,min=0"`
}

// ResetRequest restarts the run. QuestionCount is optional.
type ResetRequest struct {
	Action        Action `json:"action"`
	QuestionCount *int   `json:"question_count" binding:"omitempty,min=0"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventJudged Event = "judged"
	EventReport Event = "report"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateResponse carries the screen after any state-changing action.
type StateResponse struct {
	Event Event `json:"event"`
	State any   `json:"state"`
}

// JudgedResponse carries the outcome of a judge action with the new screen.
type JudgedResponse struct {
	Event    Event `json:"event"`
	Judgment any   `json:"judgment"`
	State    any   `json:"state"`
}

// ReportResponse carries the derived report.
type ReportResponse struct {
	Event  Event `json:"event"`
	Report any   `json:"report"`
}

// ErrorResponse reports a rejected action. Code matches the HTTP API codes.
type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
