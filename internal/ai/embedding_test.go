package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedParsesVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]}]}`))
	}))
	defer srv.Close()

	c := NewClient()
	vec, err := c.Embed(context.Background(), EmbeddingConfig{BaseURL: srv.URL, Model: "m"}, "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
}

func TestEmbedRequestHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	c := NewClient()
	cfg := EmbeddingConfig{BaseURL: srv.URL, Model: "m"}

	_, err := c.embedRequest(context.Background(), cfg, "text", 50*time.Millisecond)
	require.Error(t, err)

	vectors, err := c.embedRequest(context.Background(), cfg, "text", time.Second)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	c := NewClient()
	_, err := c.Embed(context.Background(), EmbeddingConfig{}, "   ")
	require.Error(t, err)
}
