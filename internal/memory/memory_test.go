package memory

import (
	"path/filepath"
	"testing"
	"time"

	"briefly/internal/core"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(text string) ([]float32, error) {
	// deterministic, content-length-derived vector so similarity is stable
	return []float32{float32(len(text)), 1, 0}, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	s, err := Open(path, fakeEmbedder{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestDedupLaw verifies spec 8 property 7.
func TestDedupLaw(t *testing.T) {
	s := newTestStore(t)
	content := "the quick brown fox jumps over the lazy dog"

	result, err := s.AddItems([]NewItem{{Content: content, Title: "t", URL: "u"}}, SourceResearch, true)
	if err != nil {
		t.Fatalf("AddItems: %v", err)
	}
	if result.Added != 1 || result.Skipped != 0 {
		t.Fatalf("expected 1 added, got %+v", result)
	}

	dup, err := s.IsDuplicate(content)
	if err != nil || !dup {
		t.Fatalf("expected duplicate=true, got %v err=%v", dup, err)
	}

	result2, err := s.AddItems([]NewItem{{Content: content}}, SourceResearch, true)
	if err != nil {
		t.Fatalf("AddItems (2): %v", err)
	}
	if result2.Added != 0 || result2.Skipped != 1 {
		t.Fatalf("expected 0 added/1 skipped, got %+v", result2)
	}
}

// TestCacheLaw verifies spec 8 property 8.
func TestCacheLaw(t *testing.T) {
	s := newTestStore(t)
	report := core.FinalReport{Topic: "climate policy", Title: "Climate Policy Report"}

	if err := s.CachePut("climate policy", report); err != nil {
		t.Fatalf("CachePut: %v", err)
	}

	got, err := s.CacheGet("climate policy", 365*24*time.Hour)
	if err != nil {
		t.Fatalf("CacheGet: %v", err)
	}
	if got == nil || got.Title != report.Title {
		t.Fatalf("expected cached report, got %+v", got)
	}

	absent, err := s.CacheGet("climate policy", 0)
	if err != nil {
		t.Fatalf("CacheGet (maxAge=0): %v", err)
	}
	if absent != nil {
		t.Fatalf("expected absent with maxAge=0, got %+v", absent)
	}
}

func TestSemanticSearchRanksBySimilarity(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddItems([]NewItem{
		{Content: "short", Title: "a", URL: "u1"},
		{Content: "a much longer piece of content here", Title: "b", URL: "u2"},
	}, SourceResearch, true); err != nil {
		t.Fatalf("AddItems: %v", err)
	}

	results, err := s.SemanticSearch("query text", 2, nil)
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("expected results sorted by descending similarity, got %v then %v", results[0].Score, results[1].Score)
	}
}

func TestRelatedTopics(t *testing.T) {
	s := newTestStore(t)
	_ = s.CachePut("climate policy", core.FinalReport{Topic: "climate policy"})
	_ = s.CachePut("climate change policy", core.FinalReport{Topic: "climate change policy"})
	_ = s.CachePut("unrelated widget pricing", core.FinalReport{Topic: "unrelated widget pricing"})

	related, err := s.RelatedTopics("climate policy", 0.5)
	if err != nil {
		t.Fatalf("RelatedTopics: %v", err)
	}
	found := false
	for _, r := range related {
		if r == "climate change policy" {
			found = true
		}
		if r == "unrelated widget pricing" {
			t.Fatalf("unrelated topic should not pass threshold: %v", related)
		}
	}
	if !found {
		t.Fatalf("expected related topic in results, got %v", related)
	}
}
