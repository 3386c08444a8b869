// Package cli implements the lexchat command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexchat/internal/adapters/driven/auth"
	configfile "github.com/custodia-labs/lexchat/internal/adapters/driven/config/file"
	indexsqlite "github.com/custodia-labs/lexchat/internal/adapters/driven/index/sqlite"
	storesqlite "github.com/custodia-labs/lexchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexchat/internal/chunker"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
	"github.com/custodia-labs/lexchat/internal/core/services"
	"github.com/custodia-labs/lexchat/internal/logger"
	"github.com/custodia-labs/lexchat/internal/normalisers/pdf"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "lexchat",
	Short: "Chat backend with retrieval-augmented answers over your documents",
	Long: `lexchat is a chat backend that answers questions grounded in your
uploaded documents. It chunks and embeds PDFs into a local vector index
and serves authenticated multi-turn conversations over HTTP, WebSocket
or an interactive terminal session.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.lexchat)")
}

// Execute runs the CLI with the given build version.
func Execute(buildVersion string) {
	if buildVersion != "" {
		version = buildVersion
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired backend used by the commands.
type app struct {
	cfg       *configfile.Config
	store     *storesqlite.Store
	index     *indexsqlite.Index
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	rag       *services.RAGService
	knowledge *services.KnowledgeService
	chats     *services.ChatService
	users     *services.UserService
}

// close releases the app's resources in reverse wiring order.
func (a *app) close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if a.index != nil {
		a.index.Close()
	}
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// initApp wires the full backend from config and environment.
// needLLM skips LLM creation for commands that only ingest.
func initApp(needLLM bool) (*app, error) {
	cfg, err := configfile.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ai.EmbeddingConfig{
		Provider:   cfg.Embedding.Provider,
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, embedder: embedder}

	a.index, err = indexsqlite.Open(cfg.IndexPath(), embedder)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening vector index: %w", err)
	}
	logger.Debug("vector index at %s (%d chunks)", a.index.Path(), a.index.Count())

	a.store, err = storesqlite.NewStore(cfg.DataDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Pipeline.ChunkSize),
		chunker.WithOverlap(cfg.Pipeline.ChunkOverlap),
	)
	a.knowledge = services.NewKnowledgeService(splitter, a.index, a.store.DocumentStore(), pdf.New())

	if needLLM {
		a.llm, err = ai.CreateAndValidateLLMService(ai.LLMConfig{
			Provider:          cfg.LLM.Provider,
			APIKey:            os.Getenv("GROQ_API_KEY"),
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		})
		if err != nil {
			a.close()
			return nil, err
		}

		a.rag = services.NewRAGService(a.index, a.llm,
			services.WithTopK(cfg.Pipeline.TopK),
			services.WithHistoryWindow(cfg.Pipeline.HistoryWindow),
			services.WithPersona(cfg.Pipeline.Persona),
		)
		a.chats = services.NewChatService(a.store.ChatStore(), a.rag, cfg.Pipeline.HistoryWindow)
	}

	return a, nil
}

// initUsers wires the account service; it needs JWT_SECRET.
func (a *app) initUsers() error {
	issuer, err := auth.NewJWTIssuer(os.Getenv("JWT_SECRET"), 0)
	if err != nil {
		return err
	}
	a.users = services.NewUserService(a.store.UserStore(), issuer, auth.NewBcryptHasher(0))
	return nil
}
