package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextShortText(t *testing.T) {
	chunks := NewTextChunker().ChunkText("Python developer.\n\nDocker and AWS.", 100, 10)
	assert.Equal(t, []string{"Python developer. Docker and AWS."}, chunks)
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, NewTextChunker().ChunkText(" \n\n ", 100, 10))
}

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, "Built scalable Go services on Kubernetes.")
	}
	text := strings.Join(sentences, " ")

	chunks := NewTextChunker().ChunkText(text, 200, 20)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 200, "chunk %d", i)
	}
	for i := 1; i < len(chunks); i++ {
		tail := getLastNChars(chunks[i-1], 20)
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d starts with overlap", i)
	}
}

func TestChunkTextHardSplitsLongWords(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := NewTextChunker().ChunkText(text, 100, 0)

	require.Len(t, chunks, 3)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitIntoSentences(t *testing.T) {
	got := splitIntoSentences("Go developer. Likes Rust! Knows SQL? yes")
	assert.Equal(t, []string{"Go developer.", "Likes Rust!", "Knows SQL?", "yes"}, got)
}
