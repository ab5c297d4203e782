package source

import (
	"fmt"
	"io/fs"
)

// NotFoundError reports a book path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book not found: %s", e.Path)
}

// Is lets callers match with errors.Is(err, fs.ErrNotExist).
func (e *NotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// UnsupportedFormatError reports a path whose extension matches no known document kind.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type %q: %s", e.Ext, e.Path)
}

// ExtractionError wraps a failure of the underlying document parser.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
