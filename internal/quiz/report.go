package quiz

import (
	"math"
	"sort"
)

// Report summarises a run from the final answer of each position.
// Questions that were never judged are counted neither correct nor wrong.
type Report struct {
	Total        int          `json:"total"`
	CorrectCount int          `json:"correct_count"`
	WrongCount   int          `json:"wrong_count"`
	WrongEntries []WrongEntry `json:"wrong_entries"`
}

// Unanswered is the number of positions with no judgment at all.
func (r Report) Unanswered() int {
	return r.Total - r.CorrectCount - r.WrongCount
}

// ComputeReport derives the final report without mutating the session.
//
// The raw answeredCount/correctCount counters double count revisited
// questions and are deliberately not used here.
func (s *Session) ComputeReport() Report {
	report := Report{Total: s.total, WrongEntries: []WrongEntry{}}

	for _, correct := range s.finalAnswers {
		if correct {
			report.CorrectCount++
		} else {
			report.WrongCount++
		}
	}

	// Later entries supersede earlier ones for the same position.
	latest := make(map[int]WrongEntry, report.WrongCount)
	for _, entry := range s.wrongLog {
		if correct, judged := s.finalAnswers[entry.Position]; judged && !correct {
			latest[entry.Position] = entry
		}
	}
	for _, entry := range latest {
		report.WrongEntries = append(report.WrongEntries, entry)
	}
	sort.Slice(report.WrongEntries, func(i, j int) bool {
		return report.WrongEntries[i].Position < report.WrongEntries[j].Position
	})

	return report
}

// Progress is the in-run status panel.
type Progress struct {
	// Answered, Correct and Remaining use the final answers, like the report.
	Answered  int `json:"answered"`
	Correct   int `json:"correct"`
	Remaining int `json:"remaining"`
	Streak    int `json:"streak"`
	// Accuracy is a 0–100 percentage over the raw judge events of this run.
	Accuracy int `json:"accuracy"`
}

// Progress reports the running status of the session.
func (s *Session) Progress() Progress {
	p := Progress{
		Answered: len(s.finalAnswers),
		Streak:   s.streak,
	}
	for _, correct := range s.finalAnswers {
		if correct {
			p.Correct++
		}
	}
	if p.Remaining = s.total - p.Answered; p.Remaining < 0 {
		p.Remaining = 0
	}
	if s.answeredCount > 0 {
		p.Accuracy = int(math.Round(float64(s.correctCount) / float64(s.answeredCount) * 100))
	}
	return p
}
