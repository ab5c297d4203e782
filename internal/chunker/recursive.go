package chunker

// separators in priority order; "" means a hard cut at the budget.
var separators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text into windows of at most ChunkSize runes,
// ending each window at the strongest natural boundary it contains.
// Consecutive windows share about ChunkSize*Overlap runes.
type RecursiveChunker struct {
	config Config
}

// NewRecursiveChunker creates a separator-aware character chunker.
func NewRecursiveChunker(config Config) *RecursiveChunker {
	return &RecursiveChunker{config: config}
}

func (r *RecursiveChunker) Name() string {
	return "char"
}

func (r *RecursiveChunker) Unit() SpanUnit {
	return UnitChar
}

// Chunk returns chunks whose spans are rune offsets into text; the text of
// every chunk is exactly runes[Start:End]. The budget bounds a chunk's
// content: whitespace at the edges is absorbed into the neighbouring span, so
// spans cover the text without gaps and no chunk is whitespace only.
func (r *RecursiveChunker) Chunk(text string) []Chunk {
	runes := []rune(text)
	if !hasContent(runes) {
		return nil
	}

	size := r.config.ChunkSize
	overlap := int(float64(size) * r.config.Overlap)
	if overlap >= size {
		overlap = size - 1
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		content := skipSpace(runes, start)
		end := len(runes)
		if end-content > size {
			end = breakPoint(runes, content, content+size, overlap)
		}
		end = skipSpace(runes, end)

		chunks = append(chunks, Chunk{
			Index: len(chunks) + 1,
			Text:  string(runes[start:end]),
			Span:  Span{Unit: UnitChar, Start: start, End: end},
		})

		if end >= len(runes) {
			break
		}
		start = nextStart(runes, start, end, overlap)
	}

	return chunks
}

// breakPoint picks the end of the window [start, limit). It tries each
// separator in priority order and takes its last occurrence that still moves
// the window more than overlap runes past start.
func breakPoint(runes []rune, start, limit, overlap int) int {
	for _, sep := range separators {
		if sep == "" {
			return limit
		}
		sr := []rune(sep)
		for k := limit - len(sr); k >= start; k-- {
			end := k + len(sr)
			if end-start <= overlap {
				break
			}
			if matchAt(runes, k, sr) {
				return end
			}
		}
	}
	return limit
}

// nextStart steps back overlap runes from end and moves forward to the start
// of a word. Without a word boundary inside the overlap it keeps the cut.
// The result never points at whitespace unless it is end itself.
func nextStart(runes []rune, start, end, overlap int) int {
	if overlap == 0 {
		return end
	}
	next := end - overlap
	if next <= start {
		next = start + 1
	}
	p := next
	if !isBoundary(runes, p) {
		for p < end && !isSpaceRune(runes[p]) {
			p++
		}
		if p >= end {
			return next
		}
	}
	for p < end && isSpaceRune(runes[p]) {
		p++
	}
	return p
}

func isBoundary(runes []rune, i int) bool {
	return i == 0 || isSpaceRune(runes[i-1])
}

// skipSpace returns the first index at or after i that is not whitespace.
func skipSpace(runes []rune, i int) int {
	for i < len(runes) && isSpaceRune(runes[i]) {
		i++
	}
	return i
}
