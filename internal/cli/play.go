package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

// NewPlayCmd plays one quiz in the terminal against the real countdown.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg, false)

			d, err := openDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer d.close()

			source, err := d.questionSource(cfg, logger)
			if err != nil {
				return err
			}
			service := app.NewQuizService(memory.NewSessionStore(), source,
				app.WithLogger(logger),
				app.WithSessionOptions(sessionOptions(cfg)...),
			)
			return Play(cmd.Context(), service, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// Play drives a session from line-based input: a letter picks an answer, an empty line
// moves on, "r" restarts from the results screen and "q" quits.
func Play(ctx context.Context, service *app.QuizService, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Loading quiz...")
	snap, err := service.Start(ctx)
	if err != nil {
		fmt.Fprintln(out, "Error loading quiz data. Please check your connection and try again.")
		return err
	}
	id := snap.SessionID
	defer service.End(ctx, id)

	updates, cancel, err := service.Subscribe(ctx, id)
	if err != nil {
		return err
	}
	defer cancel()

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
	}()

	printQuestion(out, snap)
	last := snap.State
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			if s.State == domain.StateFinished && last != domain.StateFinished && s.FinishReason == domain.FinishTimeExpired {
				fmt.Fprintln(out, "\nTime's up!")
				printResult(out, s)
			}
			last = s.State
		case line, ok := <-lines:
			if !ok || line == "q" {
				return nil
			}
			if err := step(ctx, service, out, id, line); err != nil {
				return err
			}
		}
	}
}

// step applies one line of input and prints what changed.
func step(ctx context.Context, service *app.QuizService, out io.Writer, id, line string) error {
	snap, err := service.Snapshot(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case snap.State == domain.StateFinished && line == "r":
		if snap, err = service.Restart(ctx, id); err != nil {
			return err
		}
		printQuestion(out, snap)
	case snap.State != domain.StateActive:
		fmt.Fprintln(out, `Enter "r" to restart or "q" to quit.`)
	case line == "":
		if !snap.Answered {
			fmt.Fprintln(out, "Pick an answer first.")
			return nil
		}
		if snap, err = service.Advance(ctx, id); err != nil {
			return err
		}
		if snap.State == domain.StateFinished {
			printResult(out, snap)
		} else {
			printQuestion(out, snap)
		}
	default:
		idx, ok := letterIndex(line, len(snap.Answers))
		if !ok {
			fmt.Fprintf(out, "Enter a letter A-%c.\n", 'A'+len(snap.Answers)-1)
			return nil
		}
		if snap.Answered {
			fmt.Fprintln(out, "Already answered. Press Enter to continue.")
			return nil
		}
		if snap, err = service.Select(ctx, id, snap.Answers[idx]); err != nil {
			return err
		}
		printFeedback(out, snap)
	}
	return nil
}

func letterIndex(line string, count int) (int, bool) {
	line = strings.ToUpper(line)
	if len(line) != 1 {
		return 0, false
	}
	idx := int(line[0] - 'A')
	if idx < 0 || idx >= count {
		return 0, false
	}
	return idx, true
}

func printQuestion(out io.Writer, snap domain.Snapshot) {
	fmt.Fprintf(out, "\n[%s] Question %d of %d\n%s\n\n", snap.Clock, snap.QuestionNumber, snap.Total, snap.Question)
	for i, answer := range snap.Answers {
		fmt.Fprintf(out, "  %c. %s\n", 'A'+i, answer)
	}
	fmt.Fprintln(out)
}

func printFeedback(out io.Writer, snap domain.Snapshot) {
	if snap.SelectedCorrect != nil && *snap.SelectedCorrect {
		fmt.Fprint(out, "Correct!")
	} else {
		fmt.Fprint(out, "Wrong.")
	}
	if snap.IsLastQuestion {
		fmt.Fprintln(out, " Press Enter to see results.")
	} else {
		fmt.Fprintln(out, " Press Enter for the next question.")
	}
}

func printResult(out io.Writer, snap domain.Snapshot) {
	if snap.Result == nil {
		return
	}
	fmt.Fprintf(out, "\nQuiz Completed!\nYour Score: %d / %d\n%s\n", snap.Result.Score, snap.Result.Total, snap.Result.Message)
	fmt.Fprintln(out, `Enter "r" to restart or "q" to quit.`)
}
