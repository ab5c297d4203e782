package chunker

import (
	"fmt"
	"strings"
)

// Factory builds chunkers from a strategy name.
type Factory struct {
	config Config
}

// NewFactory creates a chunker factory for the given configuration.
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// GetChunker returns the chunker for a strategy: "word" (greedy word packing)
// or "char" (recursive separator-aware splitting).
func (f *Factory) GetChunker(strategy string) (Chunker, error) {
	if err := f.config.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(strategy) {
	case "", "word", "words":
		return NewWordChunker(f.config), nil
	case "char", "chars", "recursive":
		return NewRecursiveChunker(f.config), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %s", strategy)
	}
}
