package source

import (
	"fmt"
	"os"
	"strings"
)

// textLoader returns the whole text of a flat-text document.
type textLoader func(path string) (string, error)

// FlatTextSource serves documents without native pages. The whole text is
// split into words and regrouped into synthetic pages of wordsPerPage words.
type FlatTextSource struct {
	load         textLoader
	wordsPerPage int
}

// NewFlatTextSource creates a flat-text source around a document loader.
func NewFlatTextSource(load textLoader, wordsPerPage int) *FlatTextSource {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}
	return &FlatTextSource{load: load, wordsPerPage: wordsPerPage}
}

func (f *FlatTextSource) Kind() Kind {
	return KindFlatText
}

func (f *FlatTextSource) Extract(path string, start, end int) (ext *Extraction, err error) {
	defer recoverParser(path, &err)

	text, err := f.fullText(path)
	if err != nil {
		return nil, err
	}

	all := SynthesizePages(text, f.wordsPerPage)
	start, end = clampRange(start, end, len(all))

	var pages []string
	if start <= end {
		pages = all[start-1 : end]
	}

	return &Extraction{
		Pages:      pages,
		StartPage:  start,
		EndPage:    end,
		TotalPages: len(all),
	}, nil
}

func (f *FlatTextSource) fullText(path string) (string, error) {
	text, err := f.load(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	return text, nil
}

func loadPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
