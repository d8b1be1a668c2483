package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/database"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/questionset"
	"github.com/stemsi/quizrunner/internal/quiz"
	"github.com/stemsi/quizrunner/internal/repository"
	"golang.org/x/term"
)

// play runs one quiz in the terminal. On a TTY keys act immediately; when
// stdin is piped, the first character of every line is read as a key.
func main() {
	var count int
	flag.IntVar(&count, "n", 0, "number of questions to play (0 = all)")
	flag.Parse()

	cfg := config.Load()
	// Logs go to stderr so they do not interleave with the quiz screen.
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lister questionset.Lister
	if cfg.QuestionSource == questionset.SourcePostgres {
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		lister = repository.NewQuestionRepository(pool)
	}

	questions, err := questionset.NewLoader(cfg.QuestionSource, cfg.QuestionFile, lister, zerolog.Nop()).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load questions")
	}

	sess, err := quiz.New(questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start quiz")
	}
	if count > 0 {
		if err := sess.Reset(count); err != nil {
			log.Fatal().Err(err).Int("n", count).Int("available", len(questions)).Msg("Question count out of range")
		}
	}

	g := newGame(sess, os.Stdout)
	g.message = helpText

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to switch terminal to raw mode")
		}
		defer term.Restore(fd, state)
		err = loop(g, bufio.NewReader(os.Stdin), readKey)
		if err != nil && !errors.Is(err, io.EOF) {
			term.Restore(fd, state)
			log.Fatal().Err(err).Msg("Failed to read input")
		}
	} else if err := loop(g, bufio.NewReader(os.Stdin), readLineKey); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	fmt.Print(nl)
}

type keyReader func(r *bufio.Reader) (rune, error)

func loop(g *game, in *bufio.Reader, next keyReader) error {
	g.render()
	for {
		key, err := next(in)
		if err != nil {
			return err
		}
		if g.handle(key) {
			return nil
		}
		g.render()
	}
}

func readKey(r *bufio.Reader) (rune, error) {
	key, _, err := r.ReadRune()
	return key, err
}

// readLineKey skips blank lines so scripted input can be spaced out.
func readLineKey(r *bufio.Reader) (rune, error) {
	for {
		line, err := r.ReadString('\n')
		for _, c := range line {
			if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
				return c, nil
			}
		}
		if err != nil {
			return 0, err
		}
	}
}
