package questionset

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/quizrunner/internal/model"
)

// ValidationError describes why a question set cannot be used.
// It is fatal at startup.
type ValidationError struct {
	QuestionID string // empty for set-level problems
	Index      int    // 0-based position in the set, -1 for set-level problems
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid question set: " + e.Reason
	}
	if e.QuestionID == "" {
		return fmt.Sprintf("invalid question set: question #%d: %s", e.Index+1, e.Reason)
	}
	return fmt.Sprintf("invalid question set: %s: %s", e.QuestionID, e.Reason)
}

// fieldRules checks the `validate` tags on model.Question, reporting fields
// by their JSON names.
var fieldRules = newFieldRules()

func newFieldRules() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the integrity of an ordered question set: it must be
// non-empty, ids must be unique, and every question must be well formed.
func Validate(questions []model.Question) error {
	if len(questions) == 0 {
		return &ValidationError{Index: -1, Reason: "questions is empty"}
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if err := fieldRules.Struct(q); err != nil {
			return &ValidationError{QuestionID: q.ID, Index: i, Reason: describe(err)}
		}
		if _, dup := seen[q.ID]; dup {
			return &ValidationError{QuestionID: q.ID, Index: i, Reason: "duplicate id"}
		}
		seen[q.ID] = struct{}{}

		if q.AnswerIndex >= len(q.Options) {
			return &ValidationError{
				QuestionID: q.ID,
				Index:      i,
				Reason:     fmt.Sprintf("answer_index %d out of range for %d options", q.AnswerIndex, len(q.Options)),
			}
		}
	}
	return nil
}

// describe turns the first failed field rule into a short reason.
func describe(err error) string {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}

	fe := ve[0]
	switch {
	case fe.Tag() == "required":
		return fe.Field() + " is empty"
	case fe.Field() == "options":
		return "options must have >= " + fe.Param() + " items"
	case fe.Field() == "difficulty":
		return "difficulty must be 1..5"
	case fe.Field() == "answer_index":
		return "answer_index out of range"
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}
