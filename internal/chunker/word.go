package chunker

import (
	"strings"
	"unicode/utf8"
)

// WordChunker greedily packs whole words into chunks of at most ChunkSize
// characters and repeats the tail of each chunk at the start of the next.
type WordChunker struct {
	config Config
}

// NewWordChunker creates a word-packing chunker.
func NewWordChunker(config Config) *WordChunker {
	return &WordChunker{config: config}
}

func (w *WordChunker) Name() string {
	return "word"
}

func (w *WordChunker) Unit() SpanUnit {
	return UnitWord
}

// Chunk splits text on whitespace and packs words starting at cursor i while
// the single-space joined length fits the budget. A word longer than the
// budget forms a chunk on its own. The overlap is taken from the emitted
// chunk's word count, so its absolute size varies from chunk to chunk.
func (w *WordChunker) Chunk(text string) []Chunk {
	words := strings.Fields(text)
	var chunks []Chunk

	i := 0
	for i < len(words) {
		j := i
		length := 0
		for j < len(words) {
			add := utf8.RuneCountInString(words[j])
			if j > i {
				add++ // joining space
			}
			if length+add > w.config.ChunkSize {
				break
			}
			length += add
			j++
		}
		if j == i {
			j = i + 1
		}

		chunks = append(chunks, Chunk{
			Index: len(chunks) + 1,
			Text:  strings.Join(words[i:j], " "),
			Span:  Span{Unit: UnitWord, Start: i + 1, End: j + 1},
		})

		if j >= len(words) {
			break
		}
		i = j - overlapCount(j-i, w.config.Overlap)
	}

	return chunks
}
