package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexchat/internal/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document into the knowledge index",
	Long: `Extracts text from the given PDF or plain text file, splits it into
chunks, embeds them and persists them in the local vector index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	mimeType := mimeTypeForPath(path)
	if mimeType == "" {
		return fmt.Errorf("unsupported file type %q (want .pdf, .txt or .md)", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	a, err := initApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	logger.Info("ingesting %s", path)
	result, err := a.knowledge.IngestFile(cmd.Context(), localUserID, filepath.Base(path), mimeType, data)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	cmd.Printf("Ingested %s: %d chunks indexed (%d total)\n", filepath.Base(path), result.ChunkCount, a.index.Count())
	return nil
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text", ".md":
		return "text/plain"
	default:
		return ""
	}
}
