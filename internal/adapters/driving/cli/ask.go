package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question against the knowledge index",
	Long: `Runs a single retrieval-augmented turn with no conversation history
and prints the grounded answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question must not be empty")
	}

	a, err := initApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.rag.Answer(cmd.Context(), question, nil)
	if err != nil {
		var pipelineErr *domain.PipelineError
		if errors.As(err, &pipelineErr) {
			return fmt.Errorf("pipeline failed at stage %s: %w", pipelineErr.Stage, pipelineErr.Err)
		}
		return err
	}

	cmd.Println(answer)
	return nil
}
