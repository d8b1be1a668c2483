package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stemsi/quizrunner/internal/quiz"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Hour)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrSessionNotFound", err)
	}

	snap := quiz.Snapshot{QuestionCount: 3, Mode: quiz.ModeQuiz, FinalAnswers: map[int]bool{1: false}}
	if err := store.Save(ctx, "a", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's copy must not reach the store.
	snap.FinalAnswers[1] = true

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FinalAnswers[1] {
		t.Errorf("stored snapshot aliases the caller's map")
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemorySessionStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	snap := quiz.Snapshot{QuestionCount: 1, Mode: quiz.ModeQuiz}
	_ = store.Save(ctx, "idle", snap)
	_ = store.Save(ctx, "busy", snap)

	now = now.Add(8 * time.Minute)
	if _, err := store.Get(ctx, "busy"); err != nil {
		t.Fatalf("Get(busy): %v", err)
	}

	now = now.Add(5 * time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, err := store.Get(ctx, "idle"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("idle session should have expired, err = %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}
