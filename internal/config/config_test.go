package config

import (
	"os"
	"testing"
)

func clearResearchEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "SERPER_API_KEY", "TAVILY_API_KEY", "BRAVE_API_KEY"} {
		old, existed := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if existed {
				os.Setenv(key, old)
			}
		})
	}
}

func TestLoadRequiresGeminiAPIKey(t *testing.T) {
	clearResearchEnv(t)
	t.Cleanup(Reset)

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error when GEMINI_API_KEY is unset")
	}
}

func TestLoadRequiresAtLeastOneSearchProvider(t *testing.T) {
	clearResearchEnv(t)
	t.Cleanup(Reset)
	os.Setenv("GEMINI_API_KEY", "test-key")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error when no search provider key is set")
	}
}

func TestLoadSucceedsWithRequiredKeysAndAppliesDefaults(t *testing.T) {
	clearResearchEnv(t)
	t.Cleanup(Reset)
	os.Setenv("GEMINI_API_KEY", "test-key")
	os.Setenv("SERPER_API_KEY", "serper-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Research.LLMModel != "llama-3.1-8b-instant" {
		t.Errorf("expected default LLM model, got %q", cfg.Research.LLMModel)
	}
	if cfg.Research.MaxSources != 20 {
		t.Errorf("expected default max sources 20, got %d", cfg.Research.MaxSources)
	}
	providers := cfg.ConfiguredSearchProviders()
	if len(providers) != 1 || providers[0] != "serper" {
		t.Errorf("expected [serper], got %v", providers)
	}
}
