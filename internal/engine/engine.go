// Package engine produces grounded answers to customer questions. It
// retrieves the tenant's most similar chunks, decides whether they are
// relevant enough to answer from, and otherwise returns the configured
// fallback so the agent reply never invents facts.
package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"supportpilot/internal/ai"
	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

const answerSystemPrompt = "You are a customer support assistant. Answer the customer's question using only the provided knowledge base context and the conversation so far. If the context does not contain the answer, say you do not have that information. Do not make up facts."

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Result is the outcome of one answer attempt. FallbackUsed reports
// that the configured fallback text was returned instead of a
// generated answer; LowConfidence marks the exchange for the gap
// analyzer.
type Result struct {
	Answer        string
	Chunks        []model.Chunk
	TopScore      float32
	LowConfidence bool
	FallbackUsed  bool
}

type Engine struct {
	store     vectorstore.Store
	embedder  Embedder
	generator Generator
	topK      int
	threshold float32
	fallback  string
	retry     ai.RetryPolicy
	logger    *zap.Logger
}

func New(store vectorstore.Store, embedder Embedder, generator Generator, topK int, threshold float32, fallback string, retry ai.RetryPolicy, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		embedder:  embedder,
		generator: generator,
		topK:      topK,
		threshold: threshold,
		fallback:  fallback,
		retry:     retry,
		logger:    logger,
	}
}

// Answer generates a reply for a tenant's customer question given the
// recent conversation window. Provider failures degrade to the
// fallback answer rather than an error; only storage failures
// propagate.
func (e *Engine) Answer(ctx context.Context, tenantID uint, question string, window []model.Message) (*Result, error) {
	var queryVec []float32
	err := ai.Retry(ctx, e.retry, func(ctx context.Context) error {
		var embedErr error
		queryVec, embedErr = e.embedder.Embed(ctx, question)
		return embedErr
	})
	if err != nil {
		e.logger.Warn("question embedding failed, using fallback",
			zap.Uint("tenant_id", tenantID),
			zap.Error(&RetrievalError{Stage: "embed", Err: err}))
		return e.fallbackResult(0), nil
	}

	scored, err := e.store.Search(ctx, tenantID, queryVec, e.topK)
	if err != nil {
		return nil, err
	}

	// A score exactly at the threshold counts as relevant.
	if len(scored) == 0 || scored[0].Score < e.threshold {
		top := float32(0)
		if len(scored) > 0 {
			top = scored[0].Score
		}
		return e.fallbackResult(top), nil
	}

	chunks := make([]model.Chunk, len(scored))
	for i := range scored {
		chunks[i] = scored[i].Chunk
	}

	messages := buildPrompt(chunks, window, question)
	var answer string
	err = ai.Retry(ctx, e.retry, func(ctx context.Context) error {
		var genErr error
		answer, genErr = e.generator.Complete(ctx, messages)
		return genErr
	})
	if err != nil {
		e.logger.Warn("answer generation failed, using fallback",
			zap.Uint("tenant_id", tenantID),
			zap.Error(&RetrievalError{Stage: "generate", Err: err}))
		result := e.fallbackResult(scored[0].Score)
		result.Chunks = chunks
		return result, nil
	}

	return &Result{
		Answer:   strings.TrimSpace(answer),
		Chunks:   chunks,
		TopScore: scored[0].Score,
	}, nil
}

func (e *Engine) fallbackResult(topScore float32) *Result {
	return &Result{
		Answer:        e.fallback,
		TopScore:      topScore,
		LowConfidence: true,
		FallbackUsed:  true,
	}
}

func buildPrompt(chunks []model.Chunk, window []model.Message, question string) []ai.ChatMessage {
	var contextBlock strings.Builder
	for _, c := range chunks {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString(c.Content)
	}
	contextBlock.WriteString("\n---")

	messages := []ai.ChatMessage{
		{Role: "system", Content: answerSystemPrompt + "\n\nKnowledge base context:" + contextBlock.String()},
	}
	for _, m := range window {
		role := "user"
		if m.Role == model.RoleAgent {
			role = "assistant"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: question})
	return messages
}
