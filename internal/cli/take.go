package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quizmaster/internal/app"
	"quizmaster/internal/quiz"
)

var errInputClosed = errors.New("input closed before the quiz finished")

// NewTakeCmd plays a quiz in the terminal and stores the result.
func NewTakeCmd(configPath *string) *cobra.Command {
	var (
		setID string
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "take [FILE]",
		Short: "Take a quiz in the terminal from a file or a stored question set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (setID == "") {
				return errors.New("pass either FILE or --set")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Quiz.Seed = seed
			}
			b, err := openBackend(ctx, cfg, logger.Level(zerolog.WarnLevel))
			if err != nil {
				return err
			}
			defer b.Close()

			service := app.NewQuizService(b.sets, b.results, b.sessions, app.WithSeed(cfg.Quiz.Seed))
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				set, err := service.Upload(ctx, filepath.Base(args[0]), data)
				if err != nil {
					return err
				}
				setID = set.ID
			}
			return playQuiz(ctx, service, setID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "id of a stored question set")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 seeds from the clock)")
	return cmd
}

func playQuiz(ctx context.Context, service *app.QuizService, setID string, in io.Reader, out io.Writer) error {
	snap, err := service.StartQuiz(ctx, setID)
	if err != nil {
		return err
	}
	lines := bufio.NewScanner(in)
	fmt.Fprintf(out, "%s (%d questions)\n", snap.QuestionSetName, snap.TotalQuestions)

	for snap.Phase == quiz.PhaseInProgress {
		renderQuestion(out, snap)
		for !snap.FeedbackVisible {
			if !lines.Scan() {
				return errInputClosed
			}
			input := strings.TrimSpace(lines.Text())
			if input == "" {
				if snap, err = service.SubmitAnswer(ctx); err != nil {
					return err
				}
				break
			}
			picks, err := parsePicks(input, len(snap.Question.Options))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			for _, idx := range picks {
				if snap, err = service.SelectAnswer(ctx, snap.Question.Options[idx]); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Selected: %s (Enter to submit)\n", strings.Join(snap.Selected, ", "))
		}

		renderFeedback(out, snap)
		if !lines.Scan() {
			return errInputClosed
		}
		if snap, err = service.Advance(ctx); err != nil {
			return err
		}
	}

	renderResult(out, snap)
	return nil
}

// parsePicks reads 1-based, comma or space separated option numbers.
func parsePicks(input string, options int) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	picks := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > options {
			return nil, fmt.Errorf("pick numbers between 1 and %d", options)
		}
		picks = append(picks, n-1)
	}
	return picks, nil
}

func renderQuestion(out io.Writer, snap quiz.Snapshot) {
	q := snap.Question
	fmt.Fprintf(out, "\nQuestion %d of %d\n%s\n", snap.QuestionNumber, snap.TotalQuestions, q.Question)
	if q.MultipleAnswer {
		fmt.Fprintln(out, "(select all that apply; picking a number again deselects it)")
	}
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintln(out, "Answer with option numbers, then Enter on an empty line to submit.")
}

func renderFeedback(out io.Writer, snap quiz.Snapshot) {
	fb := snap.Feedback
	if fb == nil {
		return
	}
	if fb.IsCorrect {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintln(out, "Incorrect")
		if len(fb.WrongSelected) > 0 {
			fmt.Fprintf(out, "  wrong picks: %s\n", strings.Join(fb.WrongSelected, ", "))
		}
	}
	fmt.Fprintf(out, "  correct answer(s): %s\n  %s\n", strings.Join(fb.CorrectAnswers, ", "), fb.Explanation)
	label := "Next question"
	if snap.QuestionNumber == snap.TotalQuestions {
		label = "Finish quiz"
	}
	fmt.Fprintf(out, "[Enter] %s\n", label)
}

func renderResult(out io.Writer, snap quiz.Snapshot) {
	r := snap.Result
	if r == nil {
		return
	}
	fmt.Fprintf(out, "\n%s\n%s: %d / %d (%d%%)\n", quiz.ScoreMessage(r.Percentage), r.QuestionSetName, r.Score, r.TotalQuestions, r.Percentage)
	for i, miss := range r.IncorrectAnswers {
		selected := strings.Join(miss.SelectedAnswers, ", ")
		if selected == "" {
			selected = "(nothing)"
		}
		fmt.Fprintf(out, "\n%d. %s\n   your answer: %s\n   correct: %s\n   %s\n",
			i+1, miss.Question, selected, strings.Join(miss.CorrectAnswers, ", "), miss.Explanation)
	}
}
