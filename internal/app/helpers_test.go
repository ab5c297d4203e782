package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"book_dataset/internal/chunker"
	"book_dataset/internal/config"
	"book_dataset/internal/source"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// numberedWords returns "w1 w2 ... wn".
func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "w" + strconv.Itoa(i+1)
	}
	return strings.Join(words, " ")
}

func writeBook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeSource serves fixed pages after an optional delay.
type fakeSource struct {
	pages []string
	delay time.Duration
	err   error
	calls *atomic.Int32
}

func (f *fakeSource) Extract(path string, start, end int) (*source.Extraction, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &source.Extraction{Pages: f.pages, StartPage: 1, EndPage: len(f.pages), TotalPages: len(f.pages)}, nil
}

func (f *fakeSource) Kind() source.Kind {
	return source.KindFlatText
}

func testPipeline(t *testing.T, mode string, size int, overlap float64) *Pipeline {
	t.Helper()
	cfg := chunker.Config{ChunkSize: size, Overlap: overlap}
	c, err := chunker.NewFactory(cfg).GetChunker(config.StrategyWord)
	require.NoError(t, err)
	return &Pipeline{
		Prompt:      "Write a passage in the style of Tester.",
		Mode:        mode,
		Chunker:     c,
		ChunkConfig: cfg,
		Sources:     source.Options{WordsPerPage: 10},
		Logger:      discardLogger(),
	}
}

// withFakes routes book paths to fake sources.
func withFakes(p *Pipeline, fakes map[string]*fakeSource) *Pipeline {
	p.resolve = func(path string, _ source.Options) (source.Source, error) {
		f, ok := fakes[path]
		if !ok {
			return nil, &source.NotFoundError{Path: path}
		}
		return f, nil
	}
	return p
}
