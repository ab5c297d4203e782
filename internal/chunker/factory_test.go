package chunker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_GetChunker(t *testing.T) {
	f := NewFactory(Config{ChunkSize: 100, Overlap: 0.25})

	tests := []struct {
		strategy string
		wantName string
		wantUnit SpanUnit
	}{
		{"word", "word", UnitWord},
		{"", "word", UnitWord},
		{"WORD", "word", UnitWord},
		{"char", "char", UnitChar},
		{"recursive", "char", UnitChar},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			c, err := f.GetChunker(tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, tt.wantUnit, c.Unit())
		})
	}
}

func TestFactory_UnknownStrategy(t *testing.T) {
	f := NewFactory(Config{ChunkSize: 100, Overlap: 0.25})
	_, err := f.GetChunker("sentences")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentences")
}

func TestFactory_InvalidConfig(t *testing.T) {
	for _, cfg := range []Config{
		{ChunkSize: 0, Overlap: 0.1},
		{ChunkSize: 10, Overlap: 1},
		{ChunkSize: 10, Overlap: -0.5},
	} {
		_, err := NewFactory(cfg).GetChunker("word")
		assert.Error(t, err, "config %+v", cfg)
	}
}

func TestSpan_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Span{Unit: UnitWord, Start: 1, End: 11})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_word":1,"end_word":11}`, string(b))

	b, err = json.Marshal(Span{Unit: UnitChar, Start: 0, End: 42})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_char":0,"end_char":42}`, string(b))
}
