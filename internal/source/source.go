// Package source turns book locators into ordered page texts.
//
// Three document kinds are supported behind one Source interface:
//
//   - Paged: documents with native pages (PDF).
//   - FlatText: documents without pages (EPUB, Markdown, HTML, plain text).
//     Their words are grouped into synthetic pages of a fixed word count.
//   - Directory: every known document under a directory, concatenated into
//     a single page.
//
// The kind is chosen once by Resolve from a directory check or the file
// extension.
package source

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultWordsPerPage is the synthetic page size for flat-text documents.
const DefaultWordsPerPage = 700

// Kind identifies a document variant.
type Kind string

const (
	KindPaged     Kind = "paged"
	KindFlatText  Kind = "flat_text"
	KindDirectory Kind = "directory"
)

// Extraction is the result of reading a page range from a document.
type Extraction struct {
	Pages      []string
	StartPage  int // resolved first page, 1-based
	EndPage    int // resolved last page, inclusive
	TotalPages int // native or synthetic page count of the whole document
}

// Source extracts page texts from one kind of document.
type Source interface {
	// Extract returns the pages [start, end] of the document at path.
	// start is floored at 1; end is clamped to the page count, and
	// end <= 0 selects through the last page.
	Extract(path string, start, end int) (*Extraction, error)

	// Kind returns the document variant this source handles.
	Kind() Kind
}

// wholeTexter is implemented by sources that can return a file's full text,
// used by DirectorySource.
type wholeTexter interface {
	fullText(path string) (string, error)
}

// Options configure the sources built by Resolve.
type Options struct {
	WordsPerPage int
	Exclude      []string // doublestar patterns skipped during directory discovery
	Logger       *slog.Logger
}

func (o Options) wordsPerPage() int {
	if o.WordsPerPage > 0 {
		return o.WordsPerPage
	}
	return DefaultWordsPerPage
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// flatLoaders maps flat-text extensions to their whole-document loaders.
var flatLoaders = map[string]textLoader{
	".epub":     loadEPUB,
	".md":       loadMarkdown,
	".markdown": loadMarkdown,
	".html":     loadHTML,
	".htm":      loadHTML,
	".txt":      loadPlainText,
}

// IsSupported reports whether a file name has a known document extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".pdf" {
		return true
	}
	_, ok := flatLoaders[ext]
	return ok
}

// Resolve inspects path and returns the Source for its document kind.
// It fails with *NotFoundError when path does not exist and with
// *UnsupportedFormatError when the extension is unknown.
func Resolve(path string, opts Options) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, &ExtractionError{Path: path, Err: err}
	}

	if info.IsDir() {
		return NewDirectorySource(opts), nil
	}
	return resolveFile(path, opts)
}

func resolveFile(path string, opts Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return NewPagedSource(), nil
	}
	if load, ok := flatLoaders[ext]; ok {
		return NewFlatTextSource(load, opts.wordsPerPage()), nil
	}
	return nil, &UnsupportedFormatError{Path: path, Ext: ext}
}

// clampRange floors start at 1 and clamps end to total; end <= 0 means total.
func clampRange(start, end, total int) (int, int) {
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > total {
		end = total
	}
	return start, end
}

// SynthesizePages groups the words of text into pages of wordsPerPage words
// joined by single spaces.
func SynthesizePages(text string, wordsPerPage int) []string {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}
	words := strings.Fields(text)
	pages := make([]string, 0, (len(words)+wordsPerPage-1)/wordsPerPage)
	for i := 0; i < len(words); i += wordsPerPage {
		end := i + wordsPerPage
		if end > len(words) {
			end = len(words)
		}
		pages = append(pages, strings.Join(words[i:end], " "))
	}
	return pages
}
