package quiz

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSnapshotRoundTripThroughJSON(t *testing.T) {
	s := newSession(t)
	answer(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.SelectOption(2); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}

	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := Restore(threeQuestions(), snap)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(s.Snapshot(), restored.Snapshot()) {
		t.Fatalf("restored state differs:\n got %+v\nwant %+v", restored.Snapshot(), s.Snapshot())
	}

	// The restored session keeps working from where it stopped.
	j, err := restored.Judge()
	if err != nil {
		t.Fatalf("Judge on restored session: %v", err)
	}
	if j.Position != 2 || j.Correct {
		t.Errorf("judgment = %+v, want an incorrect answer at position 2", j)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newSession(t)
	answer(t, s, 0)
	snap := s.Snapshot()
	snap.FinalAnswers[1] = true
	snap.WrongLog[0].Position = 3

	if correct, _ := s.FinalAnswer(1); correct {
		t.Errorf("editing the snapshot changed the session's final answers")
	}
	if s.WrongLog()[0].Position != 1 {
		t.Errorf("editing the snapshot changed the session's wrong log")
	}
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	two := 2
	nine := 9
	valid := func() Snapshot {
		return Snapshot{QuestionCount: 3, Mode: ModeQuiz, FinalAnswers: map[int]bool{}}
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"count too large", func(s *Snapshot) { s.QuestionCount = 4 }},
		{"unknown mode", func(s *Snapshot) { s.Mode = "PAUSED" }},
		{"index out of range", func(s *Snapshot) { s.CurrentIndex = 3 }},
		{"selection out of range", func(s *Snapshot) { s.SelectedOption = &nine }},
		{"answered without selection", func(s *Snapshot) { s.IsAnswered = true }},
		{"result mode mid-run", func(s *Snapshot) { s.Mode = ModeResult; s.SelectedOption = &two; s.IsAnswered = true }},
		{"correct above answered", func(s *Snapshot) { s.CorrectCount = 1 }},
		{"final answer position", func(s *Snapshot) { s.FinalAnswers[0] = true }},
		{"wrong log position", func(s *Snapshot) { s.WrongLog = []WrongEntry{{Position: 4}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid()
			tt.mutate(&snap)
			if _, err := Restore(threeQuestions(), snap); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Restore err = %v, want ErrInvalidArgument", err)
			}
		})
	}

	if _, err := Restore(threeQuestions(), valid()); err != nil {
		t.Errorf("Restore(valid) = %v", err)
	}
}
