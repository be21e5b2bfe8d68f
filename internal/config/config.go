// Package config loads pairjournal configuration from a YAML file with
// environment overrides. Missing files fall back to defaults so the binary
// runs with nothing but GEMINI_API_KEY set.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pairjournal configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig configures the SQLite entry store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LLMConfig configures the Gemini generation client.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the configured timeout, falling back to one
// minute on absent or malformed values.
func (c LLMConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// RetrievalConfig carries the question-interpretation heuristics. The
// stop-word list and minimum keyword length are best-effort guesses, kept
// configurable rather than baked into the interpreter.
type RetrievalConfig struct {
	StopWords           []string `yaml:"stop_words"`
	MinKeywordLen       int      `yaml:"min_keyword_len"`
	DateLimit           int      `yaml:"date_limit"`
	KeywordLimit        int      `yaml:"keyword_limit"`
	RecapLimitPerAuthor int      `yaml:"recap_limit_per_author"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			DatabasePath: "pairjournal.db",
		},
		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "60s",
		},
		Retrieval: RetrievalConfig{
			StopWords: []string{
				"what", "when", "where", "which", "who", "whom", "whose", "why", "how",
				"did", "does", "do", "was", "were", "is", "are", "have", "has", "had",
				"the", "a", "an", "and", "or", "but", "about", "with", "from", "into",
				"that", "this", "these", "those", "write", "wrote", "written", "journal",
				"entry", "entries", "tell", "me", "my", "your", "you", "i", "we", "our",
				"week", "day", "days",
			},
			MinKeywordLen:       3,
			DateLimit:           15,
			KeywordLimit:        10,
			RecapLimitPerAuthor: 5,
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("PAIRJOURNAL_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if addr := os.Getenv("PAIRJOURNAL_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if db := os.Getenv("PAIRJOURNAL_DB"); db != "" {
		c.Store.DatabasePath = db
	}
}

// Validate checks fields the server cannot run without.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set GEMINI_API_KEY)")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path is required")
	}
	return nil
}
