package ai

import "context"

// ModelClient binds an OpenAI-compatible client to its embedding and chat
// configuration so callers hold one injected dependency instead of threading
// per-call configs through the pipeline.
type ModelClient struct {
	client *OpenAICompatibleClient
	emb    EmbeddingConfig
	chat   ChatConfig
}

func NewModelClient(emb EmbeddingConfig, chat ChatConfig) *ModelClient {
	return &ModelClient{
		client: NewOpenAICompatibleClient(),
		emb:    emb,
		chat:   chat,
	}
}

func (m *ModelClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.client.Embed(ctx, m.emb, text)
}

func (m *ModelClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.client.EmbedBatch(ctx, m.emb, texts)
}

func (m *ModelClient) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	return m.client.Complete(ctx, m.chat, messages, opts)
}

func (m *ModelClient) StreamComplete(
	ctx context.Context,
	messages []ChatMessage,
	opts CompletionOptions,
	onChunk func(string) error,
) (string, error) {
	return m.client.StreamComplete(ctx, m.chat, messages, opts, onChunk)
}
