package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizmaster/internal/domain"
	"quizmaster/internal/quiz"
)

// NewValidateCmd checks a question-set file without storing it.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a question-set JSON file and list every problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				return domain.ErrMalformedUpload
			}

			out := cmd.OutOrStdout()
			result := quiz.Validate(doc)
			if result.IsValid {
				questions, _ := questionCount(doc)
				fmt.Fprintf(out, "%s: valid, %d questions\n", args[0], questions)
				return nil
			}
			for _, msg := range result.Errors {
				fmt.Fprintln(out, msg)
			}
			return fmt.Errorf("%s: %d validation errors", args[0], len(result.Errors))
		},
	}
}

func questionCount(doc any) (int, error) {
	questions, err := quiz.DecodeQuestions(doc)
	return len(questions), err
}
