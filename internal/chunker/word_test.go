package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleText builds a deterministic text with words of varied length and
// occasional line and paragraph breaks.
func sampleText(words int) string {
	vocab := []string{"a", "of", "the", "quiet", "morning", "lantern", "extraordinarily", "hé", "ёжик", "x"}
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			switch {
			case i%37 == 0:
				b.WriteString("\n\n")
			case i%11 == 0:
				b.WriteString("\n")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString(vocab[(i*7+i/3)%len(vocab)])
	}
	return b.String()
}

func TestWordChunker_AllWordsFitInOneChunk(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	c := NewWordChunker(Config{ChunkSize: 1024, Overlap: 0.25})

	chunks := c.Chunk(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, Span{Unit: UnitWord, Start: 1, End: 11}, chunks[0].Span)
}

func TestWordChunker_OversizedWordIsForced(t *testing.T) {
	word := strings.Repeat("a", 40)
	c := NewWordChunker(Config{ChunkSize: 10, Overlap: 0.25})

	chunks := c.Chunk(word)

	require.Len(t, chunks, 1)
	assert.Equal(t, word, chunks[0].Text)
	assert.Equal(t, Span{Unit: UnitWord, Start: 1, End: 2}, chunks[0].Span)
}

func TestWordChunker_OversizedWordsInSequence(t *testing.T) {
	long := strings.Repeat("b", 15)
	text := strings.Join([]string{long, long, long}, " ")
	c := NewWordChunker(Config{ChunkSize: 10, Overlap: 0.9})

	chunks := c.Chunk(text)

	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, long, ch.Text)
		assert.Equal(t, i+1, ch.Span.Start)
		assert.Equal(t, i+2, ch.Span.End)
	}
}

func TestWordChunker_Overlap(t *testing.T) {
	text := "a b c d e f g h"

	tests := []struct {
		name    string
		overlap float64
		want    []string
		spans   [][2]int
	}{
		{
			name:    "half",
			overlap: 0.5,
			want:    []string{"a b c", "c d e", "e f g", "g h"},
			spans:   [][2]int{{1, 4}, {3, 6}, {5, 8}, {7, 9}},
		},
		{
			name:    "none",
			overlap: 0,
			want:    []string{"a b c", "d e f", "g h"},
			spans:   [][2]int{{1, 4}, {4, 7}, {7, 9}},
		},
		{
			name:    "capped below chunk length",
			overlap: 0.99,
			want:    []string{"a b c", "b c d", "c d e", "d e f", "e f g", "f g h"},
			spans:   [][2]int{{1, 4}, {2, 5}, {3, 6}, {4, 7}, {5, 8}, {6, 9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWordChunker(Config{ChunkSize: 5, Overlap: tt.overlap})
			chunks := c.Chunk(text)

			require.Len(t, chunks, len(tt.want))
			for i, ch := range chunks {
				assert.Equal(t, tt.want[i], ch.Text)
				assert.Equal(t, tt.spans[i][0], ch.Span.Start, "chunk %d start", i+1)
				assert.Equal(t, tt.spans[i][1], ch.Span.End, "chunk %d end", i+1)
			}
		})
	}
}

func TestWordChunker_EmptyText(t *testing.T) {
	c := NewWordChunker(Config{ChunkSize: 100, Overlap: 0.25})
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk(" \n\t "))
}

func TestWordChunker_Properties(t *testing.T) {
	text := sampleText(1500)
	words := strings.Fields(text)

	for _, size := range []int{1, 7, 64, 300, 1024} {
		for _, overlap := range []float64{0, 0.1, 0.25, 0.5, 0.9} {
			t.Run(fmt.Sprintf("size=%d/overlap=%g", size, overlap), func(t *testing.T) {
				c := NewWordChunker(Config{ChunkSize: size, Overlap: overlap})
				chunks := c.Chunk(text)
				require.NotEmpty(t, chunks)

				for k, ch := range chunks {
					assert.Equal(t, k+1, ch.Index)
					assert.Equal(t, UnitWord, ch.Span.Unit)
					assert.Less(t, ch.Span.Start, ch.Span.End)
					assert.Equal(t, strings.Join(words[ch.Span.Start-1:ch.Span.End-1], " "), ch.Text)

					n := ch.Span.End - ch.Span.Start
					if n > 1 {
						assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), size)
					}

					if k > 0 {
						prev := chunks[k-1]
						assert.Greater(t, ch.Span.Start, prev.Span.Start, "start must advance")
						assert.LessOrEqual(t, ch.Span.Start, prev.Span.End, "no gap between chunks")
					}
				}

				last := chunks[len(chunks)-1]
				assert.Equal(t, len(words)+1, last.Span.End)
			})
		}
	}
}

func TestWordChunker_Deterministic(t *testing.T) {
	text := sampleText(800)
	c := NewWordChunker(Config{ChunkSize: 200, Overlap: 0.25})
	assert.Equal(t, c.Chunk(text), c.Chunk(text))
}
