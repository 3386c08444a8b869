// Package file loads and saves the TOML configuration file.
//
// Secrets (API keys, the JWT signing secret) are never written to the
// file; they come from the environment at startup.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration with defaults applied.
type Config struct {
	// DataDir holds the index and metadata database files.
	// Default: ~/.lexchat/data.
	DataDir string `toml:"data_dir"`

	Server    ServerConfig    `toml:"server"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Watch     WatchConfig     `toml:"watch"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address (default: :8080).
	Addr string `toml:"addr"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`
}

// LLMConfig selects the chat completion provider.
type LLMConfig struct {
	// Provider is "groq" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the chat model name.
	Model string `toml:"model"`

	// RequestsPerMinute throttles completion calls. Zero disables
	// throttling.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// PipelineConfig tunes retrieval and generation behaviour.
type PipelineConfig struct {
	// TopK is how many chunks retrieval returns (default: 4).
	TopK int `toml:"top_k"`

	// HistoryWindow is how many prior turns condition rewriting and
	// generation (default: 10).
	HistoryWindow int `toml:"history_window"`

	// ChunkSize is the chunker's target size in characters (default: 1000).
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the shared tail between adjacent chunks
	// (default: 100).
	ChunkOverlap int `toml:"chunk_overlap"`

	// Persona names the document corpus in answer prompts
	// (default: "Chartered Accountant Law").
	Persona string `toml:"persona"`
}

// WatchConfig configures the drop-folder ingestion watcher.
type WatchConfig struct {
	// Enabled turns the watcher on for the serve command.
	Enabled bool `toml:"enabled"`

	// Dir is the folder watched for new documents.
	// Default: <data_dir>/inbox.
	Dir string `toml:"dir"`
}

// Default pipeline values.
const (
	DefaultAddr          = ":8080"
	DefaultTopK          = 4
	DefaultHistoryWindow = 10
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 100
	DefaultPersona       = "Chartered Accountant Law"
)

// DefaultConfigDir returns ~/.lexchat.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".lexchat"), nil
}

// Load reads config.toml from configDir, applying defaults for missing
// values. A missing file yields the defaults. If configDir is empty,
// defaults to ~/.lexchat.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	cfg := defaults(configDir)

	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyFallbacks(cfg, configDir)

	return cfg, nil
}

// Save writes the configuration to config.toml in configDir.
func Save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Write with restricted permissions
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// defaults returns a fully populated default configuration.
func defaults(configDir string) *Config {
	dataDir := filepath.Join(configDir, "data")
	return &Config{
		DataDir: dataDir,
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Pipeline: PipelineConfig{
			TopK:          DefaultTopK,
			HistoryWindow: DefaultHistoryWindow,
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			Persona:       DefaultPersona,
		},
		Watch: WatchConfig{
			Dir: filepath.Join(dataDir, "inbox"),
		},
	}
}

// applyFallbacks restores defaults the file explicitly zeroed or
// omitted inside otherwise present sections.
func applyFallbacks(cfg *Config, configDir string) {
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(configDir, "data")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Pipeline.TopK <= 0 {
		cfg.Pipeline.TopK = DefaultTopK
	}
	if cfg.Pipeline.HistoryWindow <= 0 {
		cfg.Pipeline.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.Pipeline.ChunkSize <= 0 {
		cfg.Pipeline.ChunkSize = DefaultChunkSize
	}
	if cfg.Pipeline.ChunkOverlap < 0 {
		cfg.Pipeline.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.Pipeline.Persona == "" {
		cfg.Pipeline.Persona = DefaultPersona
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = filepath.Join(cfg.DataDir, "inbox")
	}
}

// IndexPath returns the vector index file location under the data dir.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}
