package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "book_dataset version "+Version+"\n", out)
}

func TestRoot_RequiresConfig(t *testing.T) {
	_, err := execute(t)
	assert.Error(t, err)
}

func TestRoot_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.txt")
	require.NoError(t, os.WriteFile(book, []byte("call me ishmael some years ago"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
author: Melville
output_file: `+filepath.Join(dir, "ignored.jsonl")+`
books:
  - path: `+book+`
`), 0o644))

	output := filepath.Join(dir, "custom.jsonl")
	report := filepath.Join(dir, "custom_report.json")
	_, err := execute(t, cfgPath, "--output", output, "--report", report, "--workers", "1", "--log-level", "error")
	require.NoError(t, err)

	assert.FileExists(t, output)
	assert.FileExists(t, report)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.jsonl"))
}

func TestRoot_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("author: X\nbooks:\n  - path: a.txt\n"), 0o644))

	_, err := execute(t, cfgPath, "--workers", "-2", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestRoot_MissingBookFails(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.pdf")
	output := filepath.Join(dir, "dataset.jsonl")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("author: X\noutput_file: "+output+"\nbooks:\n  - path: "+missing+"\n"), 0o644))

	_, err := execute(t, cfgPath, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
	assert.NoFileExists(t, output)
}
