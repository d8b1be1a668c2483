package questionset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/model"
)

// Source names accepted by QUESTION_SOURCE.
const (
	SourceBuiltin  = "builtin"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Lister reads an ordered question set from a store.
type Lister interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
}

// LoadFile reads a JSON array of questions from path.
func LoadFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode question file %s: %w", path, err)
	}
	return questions, nil
}

// Loader picks the configured question source and validates what it returns.
type Loader struct {
	source string
	file   string
	db     Lister
	log    zerolog.Logger
}

// NewLoader creates a Loader. db may be nil unless source is "postgres".
func NewLoader(source, file string, db Lister, log zerolog.Logger) *Loader {
	return &Loader{
		source: source,
		file:   file,
		db:     db,
		log:    log.With().Str("component", "question_loader").Logger(),
	}
}

// Load returns the validated, read-only question set.
func (l *Loader) Load(ctx context.Context) ([]model.Question, error) {
	var (
		questions []model.Question
		err       error
	)

	switch l.source {
	case SourceBuiltin, "":
		questions = Builtin()
	case SourceFile:
		if l.file == "" {
			return nil, fmt.Errorf("question source %q needs QUESTION_FILE", SourceFile)
		}
		questions, err = LoadFile(l.file)
	case SourcePostgres:
		if l.db == nil {
			return nil, fmt.Errorf("question source %q needs a database", SourcePostgres)
		}
		questions, err = l.db.ListQuestions(ctx)
		if err != nil {
			err = fmt.Errorf("list questions: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown question source %q", l.source)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(questions); err != nil {
		return nil, err
	}

	l.log.Info().
		Str("source", l.source).
		Int("count", len(questions)).
		Msg("Question set loaded")

	return questions, nil
}
