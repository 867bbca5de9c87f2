package core

import "testing"

func TestNewResearchQueryValidatesTopic(t *testing.T) {
	if _, err := NewResearchQuery("ai", nil, 5, SearchDepthBasic); err == nil {
		t.Fatal("expected error for topic shorter than 3 characters")
	}
}

func TestNewResearchQueryValidatesMaxResults(t *testing.T) {
	if _, err := NewResearchQuery("climate policy", nil, 0, SearchDepthBasic); err == nil {
		t.Fatal("expected error for max_results out of range")
	}
	if _, err := NewResearchQuery("climate policy", nil, 21, SearchDepthBasic); err == nil {
		t.Fatal("expected error for max_results out of range")
	}
}

func TestNewResearchQueryDedupesKeywordsAgainstTopic(t *testing.T) {
	q, err := NewResearchQuery("climate policy", []string{"Climate", "emissions", "climate policy"}, 5, SearchDepthAdvanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Keywords) != 1 || q.Keywords[0] != "emissions" {
		t.Fatalf("expected only 'emissions' to survive dedup, got %v", q.Keywords)
	}
}

func TestErrorKindsFormat(t *testing.T) {
	errs := []error{
		&ValidationError{Field: "topic", Reason: "too short"},
		&SearchFailure{Providers: []string{"serper"}, Causes: []error{nil}},
		&ExtractionFailure{Reason: "zero valid urls"},
		&LLMFailure{Reason: "exhausted retries"},
		&TimeoutError{Operation: "fetch"},
		&MemoryError{Op: "cache_put", Cause: nil},
		&ConfigError{Reason: "missing api key"},
	}
	for _, e := range errs {
		if e.Error() == "" {
			t.Errorf("expected non-empty message for %T", e)
		}
	}
}
