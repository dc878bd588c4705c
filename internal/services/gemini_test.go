package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeminiGenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"Add Docker\"]"}]}}]}`))
	}))
	defer server.Close()

	svc, err := NewGeminiService(context.Background(), "key", "", time.Second, zap.NewNop(), WithGeminiBaseURL(server.URL+"/"))
	require.NoError(t, err)

	text, err := svc.GenerateText(context.Background(), "prompt", 0.7)
	require.NoError(t, err)
	assert.Equal(t, `["Add Docker"]`, text)
}

func TestGeminiGenerateTextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-time.After(3 * time.Second):
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[\"late\"]"}]}}]}`))
	}))
	defer server.Close()
	defer close(release)

	svc, err := NewGeminiService(context.Background(), "key", "", 200*time.Millisecond, zap.NewNop(), WithGeminiBaseURL(server.URL+"/"))
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.GenerateText(context.Background(), "prompt", 0.7)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"short input unchanged", "résumé", 20, "résumé"},
		{"cuts on ascii boundary", "hello world", 5, "hello"},
		{"backs off inside a rune", "aé", 2, "a"},
		{"multi-byte runes", "日本語", 7, "日本"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateUTF8(tt.input, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	long := strings.Repeat("é", maxEmbeddingInputBytes)
	assert.True(t, utf8.ValidString(truncateUTF8(long, maxEmbeddingInputBytes)))
	assert.LessOrEqual(t, len(truncateUTF8(long, maxEmbeddingInputBytes)), maxEmbeddingInputBytes)
}
