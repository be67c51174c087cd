package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"supportpilot/internal/ai"
	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

type stubEmbedder struct {
	vec  []float32
	fail bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embed provider down")
	}
	return s.vec, nil
}

type stubGenerator struct {
	answer   string
	fail     bool
	messages []ai.ChatMessage
}

func (s *stubGenerator) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	s.messages = messages
	if s.fail {
		return "", errors.New("chat provider down")
	}
	return s.answer, nil
}

type stubStore struct {
	results []vectorstore.ScoredChunk
	err     error
}

func (s *stubStore) Upsert(ctx context.Context, tenantID uint, chunks []model.Chunk) error {
	return nil
}

func (s *stubStore) Search(ctx context.Context, tenantID uint, vector []float32, k int) ([]vectorstore.ScoredChunk, error) {
	return s.results, s.err
}

func (s *stubStore) DeleteByDocument(ctx context.Context, tenantID, documentID uint) error {
	return nil
}

func scoredChunk(content string, score float32) vectorstore.ScoredChunk {
	return vectorstore.ScoredChunk{Chunk: model.Chunk{Content: content}, Score: score}
}

func newEngine(store vectorstore.Store, emb Embedder, gen Generator) *Engine {
	return New(store, emb, gen, 5, 0.35, "I could not find that in our documentation.",
		ai.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond}, zap.NewNop())
}

func TestAnswerUsesRetrievedContext(t *testing.T) {
	store := &stubStore{results: []vectorstore.ScoredChunk{
		scoredChunk("refunds take 5 days", 0.9),
		scoredChunk("shipping is free", 0.5),
	}}
	gen := &stubGenerator{answer: "Refunds take five business days."}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, gen)

	result, err := eng.Answer(context.Background(), 1, "how long do refunds take?", nil)
	require.NoError(t, err)

	assert.Equal(t, "Refunds take five business days.", result.Answer)
	assert.False(t, result.FallbackUsed)
	assert.False(t, result.LowConfidence)
	assert.Len(t, result.Chunks, 2)
	assert.InDelta(t, 0.9, float64(result.TopScore), 1e-6)
	require.NotEmpty(t, gen.messages)
	assert.Contains(t, gen.messages[0].Content, "refunds take 5 days")
}

func TestAnswerFallsBackBelowThreshold(t *testing.T) {
	store := &stubStore{results: []vectorstore.ScoredChunk{
		scoredChunk("unrelated content", 0.2),
	}}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, &stubGenerator{})

	result, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)

	assert.True(t, result.FallbackUsed)
	assert.True(t, result.LowConfidence)
	assert.Equal(t, "I could not find that in our documentation.", result.Answer)
	assert.Empty(t, result.Chunks)
}

func TestAnswerScoreAtThresholdIsRelevant(t *testing.T) {
	store := &stubStore{results: []vectorstore.ScoredChunk{
		scoredChunk("borderline content", 0.35),
	}}
	gen := &stubGenerator{answer: "answer"}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, gen)

	result, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)
	assert.False(t, result.FallbackUsed)
}

func TestAnswerFallsBackWhenStoreEmpty(t *testing.T) {
	eng := newEngine(&stubStore{}, &stubEmbedder{vec: []float32{1}}, &stubGenerator{})

	result, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	assert.Zero(t, result.TopScore)
}

func TestAnswerFallsBackOnEmbeddingFailure(t *testing.T) {
	eng := newEngine(&stubStore{}, &stubEmbedder{fail: true}, &stubGenerator{})

	result, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	assert.True(t, result.LowConfidence)
}

func TestAnswerFallsBackOnGenerationFailure(t *testing.T) {
	store := &stubStore{results: []vectorstore.ScoredChunk{
		scoredChunk("relevant", 0.8),
	}}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, &stubGenerator{fail: true})

	result, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)
	assert.True(t, result.FallbackUsed)
	assert.Len(t, result.Chunks, 1)
}

func TestAnswerLogsRetrievalErrorOnProviderFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	eng := New(&stubStore{}, &stubEmbedder{fail: true}, &stubGenerator{}, 5, 0.35, "fallback",
		ai.RetryPolicy{MaxAttempts: 1, BaseBackoff: time.Millisecond}, zap.New(core))

	_, err := eng.Answer(context.Background(), 1, "question", nil)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	found := false
	for _, f := range entries[0].Context {
		if f.Key == "error" {
			var rerr *RetrievalError
			require.ErrorAs(t, f.Interface.(error), &rerr)
			assert.Equal(t, "embed", rerr.Stage)
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnswerPropagatesStoreError(t *testing.T) {
	store := &stubStore{err: errors.New("db gone")}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, &stubGenerator{})

	_, err := eng.Answer(context.Background(), 1, "question", nil)
	require.Error(t, err)
}

func TestAnswerIncludesConversationWindow(t *testing.T) {
	store := &stubStore{results: []vectorstore.ScoredChunk{
		scoredChunk("context", 0.8),
	}}
	gen := &stubGenerator{answer: "ok"}
	eng := newEngine(store, &stubEmbedder{vec: []float32{1}}, gen)

	window := []model.Message{
		{Role: model.RoleCustomer, Content: "earlier question"},
		{Role: model.RoleAgent, Content: "earlier answer"},
	}
	_, err := eng.Answer(context.Background(), 1, "follow up", window)
	require.NoError(t, err)

	require.Len(t, gen.messages, 4)
	assert.Equal(t, "user", gen.messages[1].Role)
	assert.Equal(t, "earlier question", gen.messages[1].Content)
	assert.Equal(t, "assistant", gen.messages[2].Role)
	assert.Equal(t, "follow up", gen.messages[3].Content)
}
