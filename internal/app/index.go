package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"book_dataset/internal/config"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// VectorIndex exports the generated records into a chromem-go collection so
// the dataset can be searched by similarity. Every record becomes one
// document keyed by a name-based UUID of its book and position, so repeated
// runs over the same input produce the same IDs.
type VectorIndex struct {
	cfg    config.IndexConfig
	prompt string
	embed  chromem.EmbeddingFunc
	client *http.Client
	logger *slog.Logger

	// checkBackend is false when a custom embedding function was supplied.
	checkBackend bool
}

// NewVectorIndex embeds with the configured Ollama model.
func NewVectorIndex(cfg config.IndexConfig, prompt string, logger *slog.Logger) *VectorIndex {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(cfg.OllamaURL, "/")
	return &VectorIndex{
		cfg:          cfg,
		prompt:       prompt,
		embed:        chromem.NewEmbeddingFuncOllama(cfg.EmbedModel, base+"/api"),
		client:       &http.Client{Timeout: 10 * time.Minute},
		logger:       logger,
		checkBackend: true,
	}
}

// WithEmbeddingFunc replaces the Ollama embedder and skips the backend check.
func (v *VectorIndex) WithEmbeddingFunc(fn chromem.EmbeddingFunc) *VectorIndex {
	v.embed = fn
	v.checkBackend = false
	return v
}

// Export embeds every non-empty record of books and writes the collection to
// the configured file. A ".gz" suffix selects compression.
func (v *VectorIndex) Export(ctx context.Context, books []*BookResult) error {
	if v.checkBackend {
		if err := v.ensureModel(ctx); err != nil {
			return fmt.Errorf("ollama model check failed: %w", err)
		}
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(v.cfg.Collection, map[string]string{"prompt": v.prompt}, v.embed)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", v.cfg.Collection, err)
	}

	var docs []chromem.Document
	for _, b := range books {
		for i, rec := range b.Records {
			if rec.Completion == "" {
				continue
			}
			docs = append(docs, chromem.Document{
				ID:      documentID(b.Book.Path, i+1),
				Content: rec.Completion,
				Metadata: map[string]string{
					"book":  b.Book.Path,
					"index": strconv.Itoa(i + 1),
				},
			})
		}
	}

	if len(docs) > 0 {
		v.logger.Info("Embedding records",
			slog.Int("documents", len(docs)),
			slog.String("model", v.cfg.EmbedModel))
		if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("embed records: %w", err)
		}
	}

	if dir := filepath.Dir(v.cfg.DBFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export index: %w", err)
		}
	}
	compress := strings.HasSuffix(v.cfg.DBFile, ".gz")
	if err := db.ExportToFile(v.cfg.DBFile, compress, "", v.cfg.Collection); err != nil {
		return fmt.Errorf("export index %s: %w", v.cfg.DBFile, err)
	}

	v.logger.Info("Index written",
		slog.String("path", v.cfg.DBFile),
		slog.String("collection", v.cfg.Collection),
		slog.Int("documents", coll.Count()))
	return nil
}

func documentID(book string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(book+"#"+strconv.Itoa(index))).String()
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// ensureModel verifies that Ollama answers and pulls the embedding model when
// it is missing.
func (v *VectorIndex) ensureModel(ctx context.Context) error {
	base := strings.TrimRight(v.cfg.OllamaURL, "/")
	model := v.cfg.EmbedModel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama is not reachable at %s: status %d", base, resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.TrimSuffix(m.Name, ":latest") == model {
			v.logger.Debug("Model is available", slog.String("model", model))
			return nil
		}
	}

	v.logger.Info("Model not found, pulling", slog.String("model", model))
	body, err := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
	if err != nil {
		return err
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	pullResp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	_, _ = io.Copy(io.Discard, pullResp.Body)
	if pullResp.StatusCode != http.StatusOK {
		return fmt.Errorf("pull model %s: status %d", model, pullResp.StatusCode)
	}
	v.logger.Info("Model pulled", slog.String("model", model))
	return nil
}
