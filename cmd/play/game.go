package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/quizrunner/internal/quiz"
)

const nl = "\r\n"

// game binds single-key commands to a quiz session and renders each screen.
type game struct {
	sess    *quiz.Session
	out     io.Writer
	count   int
	message string
}

func newGame(sess *quiz.Session, out io.Writer) *game {
	return &game{sess: sess, out: out, count: sess.QuestionCount()}
}

// handle applies one key and reports whether the player asked to quit.
func (g *game) handle(key rune) (quit bool) {
	g.message = ""

	var err error
	switch {
	case key >= '1' && key <= '9':
		err = g.sess.SelectOption(int(key - '1'))
	case key == 'j' || key == '\r' || key == '\n':
		var j quiz.Judgment
		if j, err = g.sess.Judge(); err == nil {
			if j.Correct {
				g.message = fmt.Sprintf("Correct! Streak %d", j.Streak)
			} else {
				g.message = fmt.Sprintf("Wrong. The answer is %d: %s", j.CorrectOption+1, j.CorrectOptionText)
			}
		}
	case key == 'n':
		err = g.sess.Next()
	case key == 'p':
		err = g.sess.Previous()
	case key == 'b':
		err = g.sess.ReturnToQuiz()
	case key == 'r':
		err = g.sess.Reset(g.count)
	case key == 'q' || key == 3: // Ctrl-C arrives as a byte in raw mode
		return true
	default:
		g.message = "Unknown key. Press h for help."
		if key == 'h' || key == '?' {
			g.message = helpText
		}
	}

	switch {
	case errors.Is(err, quiz.ErrInvalidState):
		g.message = "Not possible right now."
	case errors.Is(err, quiz.ErrInvalidArgument):
		g.message = "No such option."
	}
	return false
}

const helpText = "1-9 select, j judge, n next, p previous, b back to quiz, r restart, q quit"

func (g *game) render() {
	var b strings.Builder

	if g.sess.Mode() == quiz.ModeResult {
		g.renderReport(&b)
	} else {
		g.renderQuestion(&b)
	}
	if g.message != "" {
		b.WriteString(nl + g.message + nl)
	}
	_, _ = io.WriteString(g.out, b.String())
}

func (g *game) renderQuestion(b *strings.Builder) {
	q, ok := g.sess.CurrentQuestion()
	if !ok {
		b.WriteString("No questions loaded." + nl)
		return
	}
	p := g.sess.Progress()

	fmt.Fprintf(b, "%sQuestion %d/%d  [%s, difficulty %d]  answered %d, correct %d, streak %d%s",
		nl, g.sess.Position(), g.sess.QuestionCount(), q.Category, q.Difficulty,
		p.Answered, p.Correct, p.Streak, nl)
	b.WriteString(q.Prompt + nl)

	selected, hasSelection := g.sess.SelectedOption()
	for i, opt := range q.Options {
		marker := " "
		if hasSelection && i == selected {
			marker = ">"
		}
		if g.sess.IsAnswered() && i == q.AnswerIndex {
			marker = "*"
		}
		fmt.Fprintf(b, " %s %d) %s%s", marker, i+1, opt, nl)
	}

	if g.sess.IsAnswered() {
		b.WriteString(q.Explanation + nl)
	}
}

func (g *game) renderReport(b *strings.Builder) {
	r := g.sess.ComputeReport()
	fmt.Fprintf(b, "%sResult: %d/%d correct, %d wrong%s", nl, r.CorrectCount, r.Total, r.WrongCount, nl)
	if len(r.WrongEntries) == 0 {
		b.WriteString("No mistakes to review." + nl)
	}
	for _, w := range r.WrongEntries {
		fmt.Fprintf(b, "%sQ%d. %s%s", nl, w.Position, w.QuestionText, nl)
		fmt.Fprintf(b, "   your answer: %s%s", w.SelectedOptionText, nl)
		fmt.Fprintf(b, "   correct:     %s%s", w.CorrectOptionText, nl)
		fmt.Fprintf(b, "   %s%s", w.Explanation, nl)
	}
	b.WriteString(nl + "b back to quiz, r restart, q quit" + nl)
}
