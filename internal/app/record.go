package app

import (
	"book_dataset/internal/chunker"
	"book_dataset/internal/source"
)

// Record is one line of the fine-tuning dataset.
type Record struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ReportEntry describes how one book was segmented. Chunks holds the span of
// every emitted chunk in order; the chunk index is its position plus one.
type ReportEntry struct {
	Book       string         `json:"book"`
	Kind       source.Kind    `json:"kind"`
	StartPage  int            `json:"start_page"`
	EndPage    int            `json:"end_page"`
	TotalWords int            `json:"total_words"`
	TotalChars int            `json:"total_chars"`
	Strategy   string         `json:"strategy"`
	ChunkSize  int            `json:"chunk_size"`
	Overlap    float64        `json:"overlap"`
	NumChunks  int            `json:"num_chunks"`
	Chunks     []chunker.Span `json:"chunks"`
}
