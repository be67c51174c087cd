package ai

import "context"

// Bound adapters pin a client to one config so callers depend on plain
// capability interfaces instead of carrying configs around.

type BoundEmbedder struct {
	Client *Client
	Config EmbeddingConfig
}

func (b BoundEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.Client.Embed(ctx, b.Config, text)
}

func (b BoundEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return b.Client.EmbedBatch(ctx, b.Config, texts)
}

type BoundGenerator struct {
	Client *Client
	Config ChatConfig
}

func (b BoundGenerator) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return b.Client.Complete(ctx, b.Config, messages)
}

type BoundTagger struct {
	Client *Client
	Config ChatConfig
}

func (b BoundTagger) Classify(ctx context.Context, text string, categories []CategoryOption) (Classification, error) {
	return b.Client.Classify(ctx, b.Config, text, categories)
}
