package app

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const filePerm = 0o644

// DatasetSink writes the JSONL dataset and the JSON report. Both files are
// staged as temporaries next to their destination and only renamed into place
// once both are complete; if a rename fails the files already replaced are
// restored, so a failed write leaves the previous pair intact.
type DatasetSink struct {
	outputPath string
	reportPath string
	logger     *slog.Logger
}

func NewDatasetSink(outputPath, reportPath string, logger *slog.Logger) *DatasetSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetSink{outputPath: outputPath, reportPath: reportPath, logger: logger}
}

// Write stores records one JSON object per line. A nil report skips the
// report file.
func (s *DatasetSink) Write(records []Record, report []ReportEntry) error {
	dataTmp, err := stage(s.outputPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write dataset %s: %w", s.outputPath, err)
	}
	defer os.Remove(dataTmp)

	var reportTmp string
	if report != nil {
		reportTmp, err = stage(s.reportPath, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
		if err != nil {
			return fmt.Errorf("write report %s: %w", s.reportPath, err)
		}
		defer os.Remove(reportTmp)
	}

	moves := []staged{{tmp: dataTmp, dest: s.outputPath}}
	if reportTmp != "" {
		moves = append(moves, staged{tmp: reportTmp, dest: s.reportPath})
	}
	if err := commit(moves); err != nil {
		return fmt.Errorf("write dataset %s: %w", s.outputPath, err)
	}

	s.logger.Info("Dataset written",
		slog.String("path", s.outputPath),
		slog.Int("records", len(records)))
	if reportTmp != "" {
		s.logger.Info("Report written",
			slog.String("path", s.reportPath),
			slog.Int("books", len(report)))
	}
	return nil
}

// staged is a complete temporary file waiting to replace dest.
type staged struct {
	tmp    string
	dest   string
	backup string
}

// commit moves every staged file into place. Existing targets are kept as
// backups until all renames succeed; on failure the targets already replaced
// get their previous content back.
func commit(moves []staged) error {
	done := make([]staged, 0, len(moves))
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			m := done[i]
			if m.backup != "" {
				_ = os.Rename(m.backup, m.dest)
			} else {
				_ = os.Remove(m.dest)
			}
		}
	}

	for _, m := range moves {
		backup, err := backupExisting(m.dest)
		if err != nil {
			rollback()
			return err
		}
		if err := os.Rename(m.tmp, m.dest); err != nil {
			if backup != "" {
				_ = os.Rename(backup, m.dest)
			}
			rollback()
			return err
		}
		m.backup = backup
		done = append(done, m)
	}

	for _, m := range done {
		if m.backup != "" {
			_ = os.Remove(m.backup)
		}
	}
	return nil
}

// backupExisting moves a regular file at dest aside and returns its new path,
// or "" when dest does not exist.
func backupExisting(dest string) (string, error) {
	info, err := os.Lstat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", dest)
	}
	backup := filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".bak")
	if err := os.Rename(dest, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// stage writes a temporary file beside dest and returns its path.
func stage(dest string, fill func(w io.Writer) error) (string, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}
