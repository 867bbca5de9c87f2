package llm

import (
	"context"

	"briefly/internal/observability"
)

// TracedClient wraps a Client with a zerolog-based tracing span around
// every Completion and Embed call, mirroring the teacher's tracing-wrapper
// shape but over the Completion/Batch/Embed adapter contract instead of
// per-feature methods. Batch is forwarded to the Client without a span.
type TracedClient struct {
	client *Client
	tracer *observability.Tracer
}

// NewTracedClient creates a new traced LLM client.
func NewTracedClient(modelName string, tracer *observability.Tracer) (*TracedClient, error) {
	client, err := NewClient(modelName)
	if err != nil {
		return nil, err
	}
	return &TracedClient{client: client, tracer: tracer}, nil
}

// GetUnderlyingClient returns the untraced client for callers that don't need tracing.
func (tc *TracedClient) GetUnderlyingClient() *Client {
	return tc.client
}

func (tc *TracedClient) Completion(ctx context.Context, prompt, systemPrompt string, params CompletionParams) (string, error) {
	model := params.Model
	if model == "" {
		model = tc.client.modelName
	}
	return tc.tracer.Span(ctx, "llm_completion", map[string]string{"model": model}, func(ctx context.Context) (string, error) {
		return tc.client.Completion(ctx, prompt, systemPrompt, params)
	})
}

func (tc *TracedClient) Batch(ctx context.Context, prompts []string, params CompletionParams) ([]string, error) {
	return tc.client.Batch(ctx, prompts, params)
}

func (tc *TracedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !tc.tracer.IsEnabled() {
		return tc.client.Embed(ctx, text)
	}
	var vec []float32
	_, err := tc.tracer.Span(ctx, "llm_embedding", map[string]string{"model": DefaultEmbeddingModel}, func(ctx context.Context) (string, error) {
		var embedErr error
		vec, embedErr = tc.client.Embed(ctx, text)
		return "", embedErr
	})
	return vec, err
}

// Close closes the underlying client.
func (tc *TracedClient) Close() {
	tc.client.Close()
}

var _ Adapter = (*TracedClient)(nil)
