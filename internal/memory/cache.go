package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"briefly/internal/core"
)

// CachePut stores report under topic's normalized cache key, atomically.
func (s *Store) CachePut(topic string, report core.FinalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("memory: marshal report: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO report_cache (topic_key, report_json, timestamp) VALUES (?, ?, ?)
		 ON CONFLICT(topic_key) DO UPDATE SET report_json = excluded.report_json, timestamp = excluded.timestamp`,
		cacheKey(topic), string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("memory: cache put: %w", err)
	}
	return nil
}

// CacheGet returns the cached FinalReport for topic if present and not
// older than maxAge (the state machine's fresh/stale/absent in spec 4.5:
// stale is treated as absent here).
func (s *Store) CacheGet(topic string, maxAge time.Duration) (*core.FinalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reportJSON string
	var ts int64
	err := s.db.QueryRow(`SELECT report_json, timestamp FROM report_cache WHERE topic_key = ?`, cacheKey(topic)).
		Scan(&reportJSON, &ts)
	if err != nil {
		return nil, nil // absent
	}
	if maxAge >= 0 && time.Since(time.Unix(ts, 0)) > maxAge {
		return nil, nil // stale, treated as absent
	}
	var report core.FinalReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("memory: unmarshal cached report: %w", err)
	}
	return &report, nil
}

// RelatedTopics returns cache keys whose string-similarity ratio to
// topic is at least threshold, sorted descending by similarity. The
// topic's own key is not included.
func (s *Store) RelatedTopics(topic string, threshold float64) ([]string, error) {
	s.mu.Lock()
	rows, err := s.db.Query(`SELECT topic_key FROM report_cache`)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("memory: related topics: %w", err)
	}
	defer rows.Close()

	type scored struct {
		topic string
		ratio float64
	}
	var candidates []scored
	needle := cacheKey(topic)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if key == needle {
			continue
		}
		if r := similarityRatio(needle, key); r >= threshold {
			candidates = append(candidates, scored{topic: key, ratio: r})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ratio > candidates[j].ratio })

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.topic
	}
	return out, rows.Err()
}

// similarityRatio approximates difflib's SequenceMatcher.ratio() via
// Levenshtein distance normalized by the longer string's length.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1 - float64(dist)/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// maybeCompressLocked implements the spec 4.5 "compress() triggered
// automatically on insert" rule once the conversation log reaches the
// compression threshold. Caller must hold s.mu.
func (s *Store) maybeCompressLocked() {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM conversation`).Scan(&count); err != nil {
		logf("compress count check", err)
		return
	}
	if count < compressionThreshold {
		return
	}
	cutoff := time.Now().Add(-staleCacheAge).Unix()
	if _, err := s.db.Exec(`DELETE FROM report_cache WHERE timestamp < ?`, cutoff); err != nil {
		logf("compress", err)
	}
}

// Compress exposes the compaction rule directly for callers (e.g. a
// scheduled maintenance task) without waiting for the next insert.
func (s *Store) Compress() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeCompressLocked()
	return nil
}

// ClearMemory implements the clear_memory tool operation (spec 6): wipes
// the conversation log and result cache; the vector store is preserved.
func (s *Store) ClearMemory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM conversation`); err != nil {
		return fmt.Errorf("memory: clear conversation: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM report_cache`); err != nil {
		return fmt.Errorf("memory: clear cache: %w", err)
	}
	return nil
}

// PutTopicKeywords records the keywords derived for topic (spec 4.5's
// topic -> keyword map), overwriting any prior entry.
func (s *Store) PutTopicKeywords(topic string, keywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(keywords)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO topic_keywords (topic, keywords) VALUES (?, ?)
		 ON CONFLICT(topic) DO UPDATE SET keywords = excluded.keywords`,
		cacheKey(topic), string(data),
	)
	return err
}

// TopicKeywords returns the previously derived keywords for topic, if any.
func (s *Store) TopicKeywords(topic string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data string
	err := s.db.QueryRow(`SELECT keywords FROM topic_keywords WHERE topic = ?`, cacheKey(topic)).Scan(&data)
	if err != nil {
		return nil, nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(data), &keywords); err != nil {
		return nil, err
	}
	return keywords, nil
}
