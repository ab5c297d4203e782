package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DirectorySource treats a directory as one book: every supported document
// below it is extracted in full and the texts are concatenated into a
// single page. The requested page range is ignored.
type DirectorySource struct {
	opts Options
}

// NewDirectorySource creates a directory source.
func NewDirectorySource(opts Options) *DirectorySource {
	return &DirectorySource{opts: opts}
}

func (d *DirectorySource) Kind() Kind {
	return KindDirectory
}

func (d *DirectorySource) Extract(root string, _, _ int) (*Extraction, error) {
	files, err := d.Discover(root)
	if err != nil {
		return nil, &ExtractionError{Path: root, Err: err}
	}

	texts := make([]string, 0, len(files))
	for _, file := range files {
		src, err := resolveFile(file, d.opts)
		if err != nil {
			return nil, err
		}
		wt, ok := src.(wholeTexter)
		if !ok {
			return nil, &UnsupportedFormatError{Path: file, Ext: filepath.Ext(file)}
		}
		text, err := wt.fullText(file)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}

	d.opts.logger().Debug("Extracted directory",
		slog.String("path", root),
		slog.Int("documents", len(files)))

	return &Extraction{
		Pages:      []string{strings.Join(texts, "\n")},
		StartPage:  1,
		EndPage:    1,
		TotalPages: 1,
	}, nil
}

// Discover returns the supported documents below root in lexical order,
// leaving out paths that match an exclude pattern.
func (d *DirectorySource) Discover(root string) ([]string, error) {
	for _, pattern := range d.opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	var files []string
	err := doublestar.GlobWalk(os.DirFS(root), "**/*", func(rel string, _ fs.DirEntry) error {
		if !IsSupported(rel) || d.excluded(rel) {
			return nil
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func (d *DirectorySource) excluded(rel string) bool {
	for _, pattern := range d.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
