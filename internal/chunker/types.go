package chunker

import (
	"encoding/json"
	"fmt"
)

// SpanUnit names the offset kind a chunker reports positions in.
type SpanUnit string

const (
	// UnitWord spans are 1-based half-open word positions: [start_word, end_word).
	UnitWord SpanUnit = "word"
	// UnitChar spans are 0-based half-open rune offsets: [start_char, end_char).
	UnitChar SpanUnit = "char"
)

// Span locates a chunk inside the concatenated text of its book.
type Span struct {
	Unit  SpanUnit
	Start int
	End   int
}

// MarshalJSON writes the span with unit-specific keys, e.g.
// {"start_word":1,"end_word":11}.
func (s Span) MarshalJSON() ([]byte, error) {
	if s.Unit == UnitChar {
		return json.Marshal(struct {
			Start int `json:"start_char"`
			End   int `json:"end_char"`
		}{s.Start, s.End})
	}
	return json.Marshal(struct {
		Start int `json:"start_word"`
		End   int `json:"end_word"`
	}{s.Start, s.End})
}

// Chunk is one bounded piece of a book's text.
type Chunk struct {
	Index int // 1-based, contiguous per book
	Text  string
	Span  Span
}

// Chunker splits a book's full text into ordered, possibly overlapping chunks.
type Chunker interface {
	// Chunk splits text. The result is deterministic for a given text and config.
	Chunk(text string) []Chunk

	// Name returns the strategy name used in reports and logs.
	Name() string

	// Unit returns the offset kind of the produced spans.
	Unit() SpanUnit
}

// Config holds the parameters shared by every chunker.
type Config struct {
	ChunkSize int     // budget in characters (runes), not words
	Overlap   float64 // fraction of a chunk repeated at the start of the next one
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= 1 {
		return fmt.Errorf("overlap must be in [0, 1), got %g", c.Overlap)
	}
	return nil
}
