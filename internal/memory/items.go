package memory

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// NewItem is one caller-supplied piece of content awaiting storage.
type NewItem struct {
	Content string
	Title   string
	URL     string
}

// Metadata is the persisted, queryable shape of a StoredItem (spec 3).
type Metadata struct {
	Title       string
	URL         string
	Source      Source
	Timestamp   time.Time
	ContentHash string
	WordCount   int
}

// StoredItem is one entry in the vector store.
type StoredItem struct {
	ID        string
	Content   string
	Metadata  Metadata
	Embedding []float32
}

// AddResult reports how many items an AddItems call actually stored.
type AddResult struct {
	Added   int
	Skipped int
	Total   int
}

func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// AddItems persists items under source, skipping exact-content
// duplicates. When checkDuplicates is true the hash set is consulted
// before the (costlier) embedding call; regardless of the flag, the
// content_hash UNIQUE constraint refuses a true duplicate insert, so
// the spec 3 invariant "content_hash is unique across the store" holds
// either way.
func (s *Store) AddItems(items []NewItem, source Source, checkDuplicates bool) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := AddResult{Total: len(items)}
	now := time.Now()

	for _, item := range items {
		hash := contentHash(item.Content)

		if checkDuplicates {
			dup, err := s.isDuplicateLocked(hash)
			if err != nil {
				return result, err
			}
			if dup {
				result.Skipped++
				continue
			}
		}

		var embedding []float32
		if s.embedder != nil {
			var err error
			embedding, err = s.embedder.Embed(item.Content)
			if err != nil {
				logf("embed", err)
			}
		}

		id := fmt.Sprintf("%s_%s_%d", source, hash[:8], now.Unix())
		wordCount := len(strings.Fields(item.Content))

		_, err := s.db.Exec(
			`INSERT INTO items (id, content, title, url, source, timestamp, content_hash, word_count, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, item.Content, item.Title, item.URL, string(source), now.Unix(), hash, wordCount, encodeEmbedding(embedding),
		)
		if err != nil {
			if isUniqueViolation(err) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("memory: add item: %w", err)
		}
		result.Added++
	}

	s.maybeCompressLocked()
	return result, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// IsDuplicate reports whether content's exact hash is already stored.
func (s *Store) IsDuplicate(content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDuplicateLocked(contentHash(content))
}

func (s *Store) isDuplicateLocked(hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM items WHERE content_hash = ?`, hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("memory: duplicate check: %w", err)
	}
	return count > 0, nil
}

// ScoredItem pairs a StoredItem with its cosine-similarity score against
// a query embedding.
type ScoredItem struct {
	Item  StoredItem
	Score float64
}

// SemanticSearch returns the top-k items (optionally filtered by
// source) ranked by cosine similarity to query's embedding.
func (s *Store) SemanticSearch(query string, k int, filter *Source) ([]ScoredItem, error) {
	if s.embedder == nil {
		return nil, nil
	}
	queryEmbedding, err := s.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	rows, err := s.queryItems(filter)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredItem, 0, len(rows))
	for _, item := range rows {
		if len(item.Embedding) == 0 {
			continue
		}
		scored = append(scored, ScoredItem{Item: item, Score: cosineSimilarity(queryEmbedding, item.Embedding)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// GetRelevantContext formats the top-k semantic matches for inclusion in
// an upstream LLM prompt.
func (s *Store) GetRelevantContext(query string, k int, sourceFilter *Source) (string, error) {
	results, err := s.SemanticSearch(query, k, sourceFilter)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s, score=%.2f)\n%s\n\n", i+1, r.Item.Metadata.Title, r.Item.Metadata.URL, r.Score, truncate(r.Item.Content, 500))
	}
	return strings.TrimSpace(b.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (s *Store) queryItems(filter *Source) ([]StoredItem, error) {
	query := `SELECT id, content, title, url, source, timestamp, content_hash, word_count, embedding FROM items`
	args := []any{}
	if filter != nil {
		query += ` WHERE source = ?`
		args = append(args, string(*filter))
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: query items: %w", err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		var (
			id, content, title, url, source, hash string
			ts                                     int64
			wordCount                              int
			embeddingBytes                         []byte
		)
		if err := rows.Scan(&id, &content, &title, &url, &source, &ts, &hash, &wordCount, &embeddingBytes); err != nil {
			return nil, fmt.Errorf("memory: scan item: %w", err)
		}
		items = append(items, StoredItem{
			ID:      id,
			Content: content,
			Metadata: Metadata{
				Title: title, URL: url, Source: Source(source),
				Timestamp: time.Unix(ts, 0), ContentHash: hash, WordCount: wordCount,
			},
			Embedding: decodeEmbedding(embeddingBytes),
		})
	}
	return items, rows.Err()
}

// ClearOldItems removes items (and their hashes, implicitly, since the
// hash lives on the row) older than days.
func (s *Store) ClearOldItems(days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	_, err := s.db.Exec(`DELETE FROM items WHERE timestamp < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("memory: clear old items: %w", err)
	}
	return nil
}

func encodeEmbedding(v []float32) []byte {
	buf := new(bytes.Buffer)
	for _, f := range v {
		_ = binary.Write(buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

func decodeEmbedding(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 4
	out := make([]float32, n)
	r := bytes.NewReader(b)
	for i := 0; i < n; i++ {
		_ = binary.Read(r, binary.LittleEndian, &out[i])
	}
	return out
}

// cosineSimilarity computes the cosine of the angle between a and b,
// zero if either is a zero vector or their lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
