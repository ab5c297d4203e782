package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageDocument is the part of a PDF reader PagedSource needs.
type pageDocument interface {
	NumPage() int
	PageText(i int) (string, error) // i is 1-based
}

type pdfOpener func(path string) (pageDocument, io.Closer, error)

// PagedSource reads native pages from PDF documents.
type PagedSource struct {
	open pdfOpener
}

// NewPagedSource creates a PDF page source.
func NewPagedSource() *PagedSource {
	return &PagedSource{open: openPDF}
}

func (p *PagedSource) Kind() Kind {
	return KindPaged
}

// Extract returns the text of pages [start, end], clamped to the document.
// The PDF library panics on some malformed files; that is reported as an
// *ExtractionError like any other parser failure.
func (p *PagedSource) Extract(path string, start, end int) (ext *Extraction, err error) {
	defer recoverParser(path, &err)

	doc, closer, err := p.open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer closer.Close()

	total := doc.NumPage()
	start, end = clampRange(start, end, total)

	var pages []string
	for i := start; i <= end; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, text)
	}

	return &Extraction{
		Pages:      pages,
		StartPage:  start,
		EndPage:    end,
		TotalPages: total,
	}, nil
}

func (p *PagedSource) fullText(path string) (string, error) {
	ext, err := p.Extract(path, 1, 0)
	if err != nil {
		return "", err
	}
	return strings.Join(ext.Pages, "\n"), nil
}

func recoverParser(path string, err *error) {
	if r := recover(); r != nil {
		*err = &ExtractionError{Path: path, Err: fmt.Errorf("parser panic: %v", r)}
	}
}

// pdfDocument adapts *pdf.Reader to pageDocument.
type pdfDocument struct {
	reader *pdf.Reader
}

func openPDF(path string) (pageDocument, io.Closer, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open PDF: %w", err)
	}
	return &pdfDocument{reader: r}, f, nil
}

func (d *pdfDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(i int) (string, error) {
	page := d.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
