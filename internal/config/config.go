package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration that cannot be served. It is
// fatal: callers are expected to stop rather than fall back.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Document  DocumentConfig  `yaml:"document"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding LLMConfig       `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Server    ServerConfig    `yaml:"server"`
}

// DocumentConfig describes the single document the system answers
// questions about. Subject, Title and Topics feed the prompt
// templates.
type DocumentConfig struct {
	Path    string   `yaml:"path"`
	Subject string   `yaml:"subject"`
	Title   string   `yaml:"title"`
	Topics  []string `yaml:"topics"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// LLMConfig configures one model endpoint. The same shape serves the
// embedder and the generator; Temperature and MaxTokens only apply to
// generation.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	KeyEnv      string  `yaml:"key_env"`
	Model       string  `yaml:"model"`
	Dimensions  int     `yaml:"dimensions"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// APIKey resolves the credential: an inline key wins, otherwise the
// environment variable named by key_env is read.
func (c *LLMConfig) APIKey() string {
	if c.Key != "" {
		return c.Key
	}
	if c.KeyEnv != "" {
		return os.Getenv(c.KeyEnv)
	}
	return ""
}

type IndexConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
	Compress   bool   `yaml:"compress"`
}

type DatabaseConfig struct {
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Debug      bool   `yaml:"debug"`
	VectorSize int    `yaml:"vector_size"`
}

type RetrievalConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig reads, defaults and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the stock values.
func (c *Config) ApplyDefaults() {
	if c.Document.Subject == "" {
		c.Document.Subject = "Agentic AI"
	}
	if c.Document.Title == "" {
		c.Document.Title = "Agentic AI: An Executive's Guide to In-depth Understanding of Agentic AI"
	}
	if len(c.Document.Topics) == 0 {
		c.Document.Topics = []string{
			"Introduction to Agentic AI",
			"Anatomy of Agentic AI Systems",
			"Multi-Agent Systems",
			"Orchestrating Agentic AI",
			"Organizational Readiness",
			"Practical Applications",
		}
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Index.Backend == "" {
		c.Index.Backend = "chromem"
	}
	if c.Index.Path == "" {
		c.Index.Path = "./chromemdb"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "agentic_ai_ebook"
	}
	if c.Database.VectorSize == 0 {
		c.Database.VectorSize = c.Embedding.Dimensions
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.SimilarityThreshold == 0 {
		c.Retrieval.SimilarityThreshold = 0.5
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == "ollama" {
		c.Embedding.BaseURL = "http://localhost:11434"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.BaseURL = "https://api.groq.com/openai/v1"
		case "ollama":
			c.LLM.BaseURL = "http://localhost:11434"
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.1-8b-instant"
	}
	if c.LLM.KeyEnv == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.KeyEnv = "GEMINI_API_KEY"
		default:
			c.LLM.KeyEnv = "GROQ_API_KEY"
		}
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate fails fast on configuration the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, size)", ErrInvalidConfig, c.Chunking.Overlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.Retrieval.TopK)
	}
	if c.Retrieval.SimilarityThreshold < 0 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %v must be in [0, 1]", ErrInvalidConfig, c.Retrieval.SimilarityThreshold)
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("%w: index collection name is required", ErrInvalidConfig)
	}
	switch c.Index.Backend {
	case "chromem":
		if !c.Index.InMemory && c.Index.Path == "" {
			return fmt.Errorf("%w: index path is required for persistent chromem", ErrInvalidConfig)
		}
	case "pgvector":
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database dsn is required for pgvector", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidConfig, c.Index.Backend)
	}
	switch c.Embedding.Provider {
	case "local":
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("%w: embedding dimensions must be positive, got %d", ErrInvalidConfig, c.Embedding.Dimensions)
		}
	case "openai":
		if c.Embedding.APIKey() == "" {
			return fmt.Errorf("%w: embedding key not found (set %s)", ErrInvalidConfig, c.Embedding.KeyEnv)
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
		if c.LLM.APIKey() == "" {
			return fmt.Errorf("%w: LLM key not found (set %s)", ErrInvalidConfig, c.LLM.KeyEnv)
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: unknown LLM provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: LLM model is required", ErrInvalidConfig)
	}
	return nil
}
