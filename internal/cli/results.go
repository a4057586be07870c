package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/export"
)

// NewResultsCmd lists, exports or clears the stored result history.
func NewResultsCmd(configPath *string) *cobra.Command {
	var (
		format   string
		out      string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show quiz history with summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "" && format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported export format %q (csv or xlsx)", format)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(ctx, cfg, logger.Level(zerolog.WarnLevel))
			if err != nil {
				return err
			}
			defer b.Close()
			service := app.NewQuizService(b.sets, b.results, b.sessions)

			if clearAll {
				if err := service.ClearResults(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "result history cleared")
				return nil
			}

			results, err := service.Results(ctx)
			if err != nil {
				return err
			}
			if format != "" {
				if out == "" {
					out = export.HistoryFilename(format)
				}
				if err := writeHistory(out, format, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d results to %s\n", len(results), out)
				return nil
			}

			stats, err := service.Stats(ctx)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), results, stats)
		},
	}
	cmd.Flags().StringVar(&format, "export", "", "write the history as csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "export destination (defaults to quiz-results.<format>)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every stored result")
	return cmd
}

func writeHistory(path, format string, results []domain.QuizResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if format == "xlsx" {
		return export.WriteXLSX(f, results)
	}
	return export.WriteCSV(f, results)
}

func printHistory(out io.Writer, results []domain.QuizResult, stats domain.ResultStats) error {
	if len(results) == 0 {
		fmt.Fprintln(out, "no quiz results yet")
		return nil
	}
	fmt.Fprintf(out, "quizzes taken: %d  average: %d%%  best: %d%%\n\n", stats.Count, stats.AveragePercentage, stats.BestPercentage)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUIZ\tSCORE\tPERCENT\tCOMPLETED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d%%\t%s\n",
			r.ID, r.QuestionSetName, r.Score, r.TotalQuestions, r.Percentage, r.CompletedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
