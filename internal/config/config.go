package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BOOK_DATASET_CHUNK_SIZE.
const EnvPrefix = "BOOK_DATASET_"

// Output modes.
const (
	ModeChunks = "chunks"
	ModePages  = "pages"
)

// Chunking strategies.
const (
	StrategyWord = "word"
	StrategyChar = "char"
)

// BookSpec describes one source document and the page range to take from it.
// Pages are 1-based and inclusive; EndPage 0 means "through the last page".
type BookSpec struct {
	Path      string `yaml:"path"`
	StartPage int    `yaml:"start_page"`
	EndPage   int    `yaml:"end_page"`
}

// IndexConfig controls the optional vector export of the generated records.
type IndexConfig struct {
	DBFile     string `yaml:"db_file" env:"DB_FILE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
	OllamaURL  string `yaml:"ollama_url" env:"OLLAMA_URL"`
	EmbedModel string `yaml:"embed_model" env:"EMBED_MODEL"`
}

// Enabled reports whether a vector export was requested.
func (c IndexConfig) Enabled() bool {
	return c.DBFile != ""
}

type Config struct {
	Author       string      `yaml:"author" env:"AUTHOR"`
	Prompt       string      `yaml:"prompt" env:"PROMPT"`
	OutputFile   string      `yaml:"output_file" env:"OUTPUT_FILE"`
	ReportFile   string      `yaml:"report_file" env:"REPORT_FILE"`
	Mode         string      `yaml:"mode" env:"MODE"`
	Strategy     string      `yaml:"strategy" env:"STRATEGY"`
	ChunkSize    int         `yaml:"chunk_size" env:"CHUNK_SIZE"`
	Overlap      float64     `yaml:"overlap" env:"OVERLAP"`
	WordsPerPage int         `yaml:"words_per_page" env:"WORDS_PER_PAGE"`
	Workers      int         `yaml:"workers" env:"WORKERS"`
	StableOrder  bool        `yaml:"stable_order" env:"STABLE_ORDER"`
	Exclude      []string    `yaml:"exclude" env:"EXCLUDE" envSeparator:","`
	MetricsFile  string      `yaml:"metrics_file" env:"METRICS_FILE"`
	Index        IndexConfig `yaml:"index" envPrefix:"INDEX_"`
	Books        []BookSpec  `yaml:"books"`
}

// DefaultConfig returns the configuration used for every key the file leaves out.
func DefaultConfig() *Config {
	return &Config{
		OutputFile:   "dataset.jsonl",
		Mode:         ModeChunks,
		Strategy:     StrategyWord,
		ChunkSize:    1024,
		Overlap:      0.25,
		WordsPerPage: 700,
		Index: IndexConfig{
			Collection: "dataset",
			OllamaURL:  "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
		},
	}
}

// Load reads a YAML config file, applies environment overrides and validates
// the result. Precedence: defaults, then the file, then the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Init(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init applies BOOK_DATASET_* environment variables to cfg.
func Init(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix})
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputFile) == "" {
		return fmt.Errorf("output_file must not be empty")
	}
	switch c.Mode {
	case ModeChunks, ModePages:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeChunks, ModePages, c.Mode)
	}
	switch c.Strategy {
	case StrategyWord, StrategyChar:
	default:
		return fmt.Errorf("strategy must be %q or %q, got %q", StrategyWord, StrategyChar, c.Strategy)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= 1 {
		return fmt.Errorf("overlap must be in [0, 1), got %g", c.Overlap)
	}
	if c.WordsPerPage <= 0 {
		return fmt.Errorf("words_per_page must be positive, got %d", c.WordsPerPage)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if len(c.Books) == 0 {
		return fmt.Errorf("books must list at least one entry")
	}
	for i, b := range c.Books {
		if strings.TrimSpace(b.Path) == "" {
			return fmt.Errorf("books[%d]: path must not be empty", i)
		}
		if b.EndPage != 0 && b.StartPage > b.EndPage {
			return fmt.Errorf("books[%d] %s: start_page %d is after end_page %d", i, b.Path, b.StartPage, b.EndPage)
		}
	}
	if c.Index.Enabled() {
		if c.Index.Collection == "" {
			return fmt.Errorf("index.collection must not be empty")
		}
		if c.Index.EmbedModel == "" {
			return fmt.Errorf("index.embed_model must not be empty")
		}
	}
	return nil
}

// ReportPath returns report_file, or "<output stem>_report.json" next to the dataset.
func (c *Config) ReportPath() string {
	if c.ReportFile != "" {
		return c.ReportFile
	}
	ext := filepath.Ext(c.OutputFile)
	return strings.TrimSuffix(c.OutputFile, ext) + "_report.json"
}

// PromptText is the prompt shared by every record of the run.
func (c *Config) PromptText() string {
	if c.Prompt != "" {
		return c.Prompt
	}
	return fmt.Sprintf("Write a passage in the style of %s.", c.Author)
}

// WorkerCount resolves workers, falling back to the number of CPUs.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
