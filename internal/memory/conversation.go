package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConversationEntry is one turn recorded by the pipeline orchestrator,
// either a successful run summary or a terminal error (spec 3, 4.8, 7).
type ConversationEntry struct {
	Timestamp time.Time
	User      string
	Assistant string
	Metadata  map[string]string
}

// AppendConversation adds entry to the bounded FIFO conversation log,
// dropping the oldest rows once DefaultConversationCap is exceeded.
func (s *Store) AppendConversation(entry ConversationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("memory: marshal conversation metadata: %w", err)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if _, err := s.db.Exec(
		`INSERT INTO conversation (timestamp, user, assistant, metadata) VALUES (?, ?, ?, ?)`,
		entry.Timestamp.Unix(), entry.User, entry.Assistant, string(metaJSON),
	); err != nil {
		return fmt.Errorf("memory: append conversation: %w", err)
	}

	if _, err := s.db.Exec(
		`DELETE FROM conversation WHERE seq NOT IN (SELECT seq FROM conversation ORDER BY seq DESC LIMIT ?)`,
		DefaultConversationCap,
	); err != nil {
		return fmt.Errorf("memory: trim conversation: %w", err)
	}

	s.maybeCompressLocked()
	return nil
}

// RecentConversation returns the last n conversation entries, oldest first.
func (s *Store) RecentConversation(n int) ([]ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT timestamp, user, assistant, metadata FROM conversation ORDER BY seq DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: recent conversation: %w", err)
	}
	defer rows.Close()

	var entries []ConversationEntry
	for rows.Next() {
		var ts int64
		var user, assistant, metaJSON string
		if err := rows.Scan(&ts, &user, &assistant, &metaJSON); err != nil {
			return nil, err
		}
		var meta map[string]string
		_ = json.Unmarshal([]byte(metaJSON), &meta)
		entries = append(entries, ConversationEntry{
			Timestamp: time.Unix(ts, 0), User: user, Assistant: assistant, Metadata: meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to oldest-first for display
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
