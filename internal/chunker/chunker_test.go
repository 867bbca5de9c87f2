package chunker

import "testing"

func TestChunkShortTextReturnsOneChunk(t *testing.T) {
	chunks := Chunk("a short paragraph of text", StrategyDefault)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].TotalChunks != 1 || chunks[0].ChunkID != 1 {
		t.Fatalf("expected chunk_id/total_chunks 1/1, got %+v", chunks[0])
	}
}

func TestChunkLargeTextProducesMultipleOverlappingChunks(t *testing.T) {
	var paragraphs string
	for i := 0; i < 40; i++ {
		paragraphs += "This is paragraph number with enough words to add up to a large document body that must be split into several chunks by the chunker.\n\n"
	}
	chunks := Chunk(paragraphs, StrategyPrecise)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for large input, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkID != i+1 {
			t.Errorf("chunk %d: expected chunk_id %d, got %d", i, i+1, c.ChunkID)
		}
		if c.TotalChunks != len(chunks) {
			t.Errorf("chunk %d: expected total_chunks %d, got %d", i, len(chunks), c.TotalChunks)
		}
		if i > 0 && c.StartIndex >= chunks[i-1].EndIndex {
			t.Errorf("chunk %d: expected overlap with previous chunk (start %d, previous end %d)", i, c.StartIndex, chunks[i-1].EndIndex)
		}
	}
}

func TestAutoSelect(t *testing.T) {
	cases := []struct {
		text string
		want Strategy
	}{
		{text: string(make([]byte, 1000)), want: StrategySmall},
		{text: string(make([]byte, 25000)), want: StrategyLarge},
	}
	for _, tc := range cases {
		if got := AutoSelect(tc.text); got != tc.want {
			t.Errorf("AutoSelect(len=%d) = %s, want %s", len(tc.text), got, tc.want)
		}
	}
}

func TestDetectHeading(t *testing.T) {
	ok, text := detectHeading("## Introduction\nmore text")
	if !ok || text != "## Introduction" {
		t.Errorf("expected heading detected, got ok=%v text=%q", ok, text)
	}
	ok, _ = detectHeading("just a normal sentence.")
	if ok {
		t.Errorf("expected no heading detected")
	}
}
