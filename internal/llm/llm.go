// Package llm implements the LLM Adapter capability (spec 4.7): a
// prompted-completion client with a sliding-window rate limiter,
// exponential-backoff retries, and token accounting. The transport is
// Google's Gemini SDK, the same one the teacher repo wires — "GROQ_API_KEY
// or equivalent LLM provider key" in spec 6 is satisfied by
// GEMINI_API_KEY here, since that's the provider the corpus actually
// reaches for.
package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"briefly/internal/core"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	DefaultModel             = "gemini-flash-lite-latest"
	DefaultEmbeddingModel    = "gemini-embedding-001"
	DefaultEmbeddingDims     = int32(768)
	DefaultTemperature       = 0.3
	DefaultMaxTokens         = 2000
	DefaultRateLimitRequests = 30
	DefaultMaxRetries        = 3
	rateLimitWindow          = 60 * time.Second
)

// CompletionParams mirrors the parameters recognized by spec 4.7.
type CompletionParams struct {
	Temperature      float32
	MaxTokens        int32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
	Model            string
}

// DefaultCompletionParams returns the spec's documented defaults.
func DefaultCompletionParams() CompletionParams {
	return CompletionParams{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
}

// Adapter is the capability interface every pipeline stage programs against.
type Adapter interface {
	Completion(ctx context.Context, prompt, systemPrompt string, params CompletionParams) (string, error)
	Batch(ctx context.Context, prompts []string, params CompletionParams) ([]string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client is the concrete Gemini-backed Adapter implementation.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client

	rateLimitRequests int
	maxRetries        int
	batchConcurrency  int

	mu        sync.Mutex
	callTimes []time.Time
}

// NewClient builds a Client, resolving the API key from the environment,
// alternative env var names, or viper config, in that order.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, &core.ConfigError{Reason: "no LLM provider key set (GEMINI_API_KEY / GOOGLE_GEMINI_API_KEY / GOOGLE_AI_API_KEY / gemini.api_key)"}
	}

	if modelName == "" {
		modelName = viper.GetString("gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	gClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:            apiKey,
		modelName:         modelName,
		gClient:           gClient,
		rateLimitRequests: DefaultRateLimitRequests,
		maxRetries:        DefaultMaxRetries,
		batchConcurrency:  3,
	}, nil
}

// Close releases underlying resources. Gemini's client has no explicit
// close; kept for parity with the teacher's Client lifecycle.
func (c *Client) Close() {}

func (c *Client) awaitRateLimitSlot(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)
	kept := c.callTimes[:0]
	for _, t := range c.callTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.callTimes = kept

	if len(c.callTimes) < c.rateLimitRequests {
		c.callTimes = append(c.callTimes, now)
		c.mu.Unlock()
		return nil
	}
	oldest := c.callTimes[0]
	c.mu.Unlock()

	wait := rateLimitWindow - now.Sub(oldest)
	if wait <= 0 {
		return c.awaitRateLimitSlot(ctx)
	}
	select {
	case <-time.After(wait):
		return c.awaitRateLimitSlot(ctx)
	case <-ctx.Done():
		return core.NewRateLimitExceeded(fmt.Sprintf("rate limit window exhausted waiting for a free slot: %v", ctx.Err()))
	}
}

// Completion issues a single prompted completion with retries and
// exponential backoff, honoring spec 4.7's rate limiting and retry rules.
func (c *Client) Completion(ctx context.Context, prompt, systemPrompt string, params CompletionParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.modelName
	}

	var lastErr error
	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.awaitRateLimitSlot(ctx); err != nil {
			return "", err
		}

		text, err := c.generate(ctx, model, prompt, systemPrompt, params)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response from model")
		}
		lastErr = err

		if !isRetriable(err) {
			return "", &core.LLMFailure{Reason: "non-retriable error", Cause: err}
		}
		if attempt < attempts-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", &core.LLMFailure{Reason: "exhausted retries", Cause: lastErr}
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "rate") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "empty response") ||
		strings.Contains(msg, "unavailable")
}

func (c *Client) generate(ctx context.Context, model, prompt, systemPrompt string, params CompletionParams) (string, error) {
	full := prompt
	if systemPrompt != "" {
		full = systemPrompt + "\n\n" + prompt
	}
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: full}},
		Role:  "user",
	}}
	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}

// Batch runs prompts with bounded concurrency, staggering task starts to
// smooth rate-limit pressure. Results preserve input order; a per-prompt
// failure becomes an "ERROR: ..." string instead of failing the batch.
func (c *Client) Batch(ctx context.Context, prompts []string, params CompletionParams) ([]string, error) {
	results := make([]string, len(prompts))
	var wg sync.WaitGroup
	sem := make(chan struct{}, c.batchConcurrency)

	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			time.Sleep(time.Duration(i) * 500 * time.Millisecond)
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := c.Completion(ctx, prompt, "", params)
			if err != nil {
				results[i] = "ERROR: " + err.Error()
				return
			}
			results[i] = text
		}(i, prompt)
	}
	wg.Wait()
	return results, nil
}

// Embed generates a text embedding via the configured embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := DefaultEmbeddingDims
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: text}}, Role: "user"}}
	config := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := c.gClient.Models.EmbedContent(ctx, DefaultEmbeddingModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}
	return resp.Embeddings[0].Values, nil
}

// EstimateTokens approximates token count as len(text)/4, per spec 4.7.
func EstimateTokens(text string) int {
	return len(text) / 4
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?]+\s+)`)

// Truncate removes trailing sentences until the text's estimated token
// count fits within maxTokens, minus a 10% safety margin.
func Truncate(text string, maxTokens int) string {
	limit := int(float64(maxTokens) * 0.9)
	if EstimateTokens(text) <= limit {
		return text
	}
	sentences := sentenceSplit.Split(text, -1)
	for len(sentences) > 1 && EstimateTokens(strings.Join(sentences, ". ")) > limit {
		sentences = sentences[:len(sentences)-1]
	}
	out := strings.Join(sentences, ". ")
	if out == "" {
		// degenerate case: a single sentence over budget, hard-truncate by char count
		maxChars := limit * 4
		if maxChars < len(text) {
			return text[:maxChars]
		}
		return text
	}
	return out
}

// ParseScore extracts a normalized [0,1] score from text containing one of
// "credibility: X", "X/10" or "X%", preferring that priority order when
// more than one pattern matches (spec open question, decided in
// SPEC_FULL.md 13.1). Returns defaultScore if nothing matches.
func ParseScore(text string, defaultScore float64) float64 {
	patterns := []struct {
		re    *regexp.Regexp
		scale float64
	}{
		{regexp.MustCompile(`(?i)credibilit\w*\s*[:=]\s*([0-9]+(?:\.[0-9]+)?)`), 1},
		{regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*/\s*10`), 10},
		{regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`), 100},
	}
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			score := v / p.scale
			if p.scale == 1 && v > 1 {
				score = v / 10 // a bare "credibility: 8" reads as out-of-10
			}
			return clamp01(score)
		}
	}
	return defaultScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
