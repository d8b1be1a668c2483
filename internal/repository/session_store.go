package repository

import (
	"context"
	"errors"

	"github.com/stemsi/quizrunner/internal/quiz"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("quiz session not found")

// SessionStore keeps one snapshot per quiz session id. Stores never share
// mutable state between sessions; callers get copies.
type SessionStore interface {
	Get(ctx context.Context, id string) (quiz.Snapshot, error)
	Save(ctx context.Context, id string, snap quiz.Snapshot) error
	Delete(ctx context.Context, id string) error
}
