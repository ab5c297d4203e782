package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"book_dataset/internal/config"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedding returns the same unit vector for every text.
func fixedEmbedding(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.6, 0.8, 0}, nil
}

func indexConfig(dbFile string) config.IndexConfig {
	cfg := config.DefaultConfig().Index
	cfg.DBFile = dbFile
	return cfg
}

func TestVectorIndex_Export(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "out", "index.gob")
	books := []*BookResult{
		{Book: config.BookSpec{Path: "a.txt"}, Records: []Record{{Completion: "first"}, {Completion: ""}, {Completion: "third"}}},
		{Book: config.BookSpec{Path: "b.txt"}, Records: []Record{{Completion: "other"}}},
	}

	idx := NewVectorIndex(indexConfig(dbFile), "prompt", discardLogger()).WithEmbeddingFunc(fixedEmbedding)
	require.NoError(t, idx.Export(context.Background(), books))
	require.FileExists(t, dbFile)

	db := chromem.NewDB()
	require.NoError(t, db.ImportFromFile(dbFile, ""))
	coll := db.GetCollection("dataset", fixedEmbedding)
	require.NotNil(t, coll)
	assert.Equal(t, 3, coll.Count())

	doc, err := coll.GetByID(context.Background(), documentID("a.txt", 3))
	require.NoError(t, err)
	assert.Equal(t, "third", doc.Content)
	assert.Equal(t, map[string]string{"book": "a.txt", "index": "3"}, doc.Metadata)
}

func TestVectorIndex_ExportEmpty(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "index.gob.gz")
	idx := NewVectorIndex(indexConfig(dbFile), "prompt", discardLogger()).WithEmbeddingFunc(fixedEmbedding)

	require.NoError(t, idx.Export(context.Background(), nil))
	assert.FileExists(t, dbFile)
}

func TestDocumentID_Deterministic(t *testing.T) {
	assert.Equal(t, documentID("a.txt", 1), documentID("a.txt", 1))
	assert.NotEqual(t, documentID("a.txt", 1), documentID("a.txt", 2))
	assert.NotEqual(t, documentID("a.txt", 1), documentID("b.txt", 1))
}

func fakeOllama(t *testing.T, models []string, pullStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var pulls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		var tags ollamaTags
		for _, m := range models {
			tags.Models = append(tags.Models, struct {
				Name string `json:"name"`
			}{Name: m})
		}
		_ = json.NewEncoder(w).Encode(tags)
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaPullRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stream {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		pulls.Add(1)
		w.WriteHeader(pullStatus)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &pulls
}

func TestVectorIndex_EnsureModel(t *testing.T) {
	tests := []struct {
		name       string
		models     []string
		pullStatus int
		wantPulls  int32
		wantErr    bool
	}{
		{"present", []string{"nomic-embed-text"}, http.StatusOK, 0, false},
		{"present with tag", []string{"llama3:8b", "nomic-embed-text:latest"}, http.StatusOK, 0, false},
		{"pulled", []string{"llama3:8b"}, http.StatusOK, 1, false},
		{"pull fails", nil, http.StatusInternalServerError, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, pulls := fakeOllama(t, tt.models, tt.pullStatus)
			cfg := indexConfig("unused.gob")
			cfg.OllamaURL = srv.URL + "/"

			err := NewVectorIndex(cfg, "p", discardLogger()).ensureModel(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantPulls, pulls.Load())
		})
	}
}

func TestVectorIndex_EnsureModelUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := indexConfig("unused.gob")
	cfg.OllamaURL = srv.URL
	srv.Close()

	err := NewVectorIndex(cfg, "p", discardLogger()).ensureModel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}
