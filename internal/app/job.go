package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"book_dataset/internal/chunker"
	"book_dataset/internal/config"
	"book_dataset/internal/source"
)

// Pipeline holds what every BookJob of a run shares.
type Pipeline struct {
	Prompt      string
	Mode        string // config.ModeChunks or config.ModePages
	Chunker     chunker.Chunker
	ChunkConfig chunker.Config
	Sources     source.Options
	Logger      *slog.Logger

	// resolve picks the document source; tests replace it.
	resolve func(path string, opts source.Options) (source.Source, error)
}

// Job binds one book to the pipeline. position is the book's index in the
// configuration and is used when output order must follow submission order.
func (p *Pipeline) Job(position int, book config.BookSpec) *BookJob {
	return &BookJob{Book: book, Position: position, pipeline: p}
}

// BookJob turns one book into records and, in chunk mode, a report entry.
// It is synchronous and shares no mutable state with other jobs.
type BookJob struct {
	Book     config.BookSpec
	Position int

	pipeline *Pipeline
}

// BookResult is what a finished BookJob hands back to the executor.
type BookResult struct {
	Position int
	Book     config.BookSpec
	Records  []Record
	Report   *ReportEntry // nil in page mode
	Words    int          // words in the extracted page range
	Duration time.Duration
}

// Run extracts, chunks and wraps the book. Any error is returned annotated
// with the book path and otherwise unchanged, so callers can still match
// source.NotFoundError and friends with errors.As.
func (j *BookJob) Run() (*BookResult, error) {
	p := j.pipeline
	started := time.Now()

	resolve := p.resolve
	if resolve == nil {
		resolve = source.Resolve
	}
	src, err := resolve(j.Book.Path, p.Sources)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", j.Book.Path, err)
	}

	ext, err := src.Extract(j.Book.Path, j.Book.StartPage, j.Book.EndPage)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", j.Book.Path, err)
	}

	text := strings.Join(ext.Pages, "\n")
	res := &BookResult{Position: j.Position, Book: j.Book, Words: len(strings.Fields(text))}
	if p.Mode == config.ModePages {
		res.Records = make([]Record, 0, len(ext.Pages))
		for _, page := range ext.Pages {
			res.Records = append(res.Records, p.record(page))
		}
	} else {
		chunks := p.Chunker.Chunk(text)

		res.Records = make([]Record, 0, len(chunks))
		spans := make([]chunker.Span, 0, len(chunks))
		for _, ch := range chunks {
			res.Records = append(res.Records, p.record(ch.Text))
			spans = append(spans, ch.Span)
		}

		res.Report = &ReportEntry{
			Book:       j.Book.Path,
			Kind:       src.Kind(),
			StartPage:  ext.StartPage,
			EndPage:    ext.EndPage,
			TotalWords: res.Words,
			TotalChars: utf8.RuneCountInString(text),
			Strategy:   p.Chunker.Name(),
			ChunkSize:  p.ChunkConfig.ChunkSize,
			Overlap:    p.ChunkConfig.Overlap,
			NumChunks:  len(chunks),
			Chunks:     spans,
		}
	}
	res.Duration = time.Since(started)

	p.logger().Info("Processed book",
		slog.String("book", j.Book.Path),
		slog.String("kind", string(src.Kind())),
		slog.Int("start_page", ext.StartPage),
		slog.Int("end_page", ext.EndPage),
		slog.Int("records", len(res.Records)),
		slog.Duration("elapsed", res.Duration))

	return res, nil
}

func (p *Pipeline) record(text string) Record {
	return Record{Prompt: p.Prompt, Completion: strings.TrimSpace(text)}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
