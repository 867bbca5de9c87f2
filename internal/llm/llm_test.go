package llm

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestNewClient_Success(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if client.apiKey == "" {
		t.Error("Client API key should not be empty")
	}
	if client.modelName == "" {
		t.Error("Client model name should not be empty")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	originalKey := os.Getenv("GEMINI_API_KEY")
	_ = os.Unsetenv("GEMINI_API_KEY")
	_ = os.Unsetenv("GOOGLE_GEMINI_API_KEY")
	_ = os.Unsetenv("GOOGLE_AI_API_KEY")
	viper.Set("gemini.api_key", "")
	defer func() {
		if originalKey != "" {
			_ = os.Setenv("GEMINI_API_KEY", originalKey)
		}
	}()

	_, err := NewClient("")
	if err == nil {
		t.Fatal("expected error when no API key is available")
	}
	if !strings.Contains(err.Error(), "no LLM provider key set") {
		t.Errorf("expected config error, got: %v", err)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("abcd"); got != 1 {
		t.Errorf("EstimateTokens(4 chars) = %d, want 1", got)
	}
}

func TestTruncateRemovesTrailingSentences(t *testing.T) {
	text := strings.Repeat("This is a sentence. ", 200)
	out := Truncate(text, 50)
	if EstimateTokens(out) > 50 {
		t.Errorf("Truncate left %d estimated tokens, want <= 50", EstimateTokens(out))
	}
	if len(out) >= len(text) {
		t.Errorf("Truncate did not shorten the text")
	}
}

func TestParseScorePriority(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"credibility: 8 and also 50%", 0.8},
		{"score is 7/10", 0.7},
		{"confidence at 65%", 0.65},
		{"no score present here", 0.5},
	}
	for _, tc := range cases {
		if got := ParseScore(tc.text, 0.5); got != tc.want {
			t.Errorf("ParseScore(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestEstimateTokensEmpty(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatal("expected zero tokens for empty text")
	}
}
