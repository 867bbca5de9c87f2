package pipeline

import (
	"fmt"
	"strings"
)

// SearchInMemory implements search_in_memory (spec 6.2).
func (p *Pipeline) SearchInMemory(query string, topK int) string {
	if p.store == nil {
		return "MemoryError: memory subsystem not configured"
	}
	if topK <= 0 {
		topK = 5
	}
	context, err := p.store.GetRelevantContext(query, topK, nil)
	if err != nil {
		return errorString(err)
	}
	if context == "" {
		return "No relevant items found in memory."
	}
	return context
}

// GetResearchHistory implements get_research_history (spec 6.3).
func (p *Pipeline) GetResearchHistory(nLast int) string {
	if p.store == nil {
		return "MemoryError: memory subsystem not configured"
	}
	if nLast <= 0 {
		nLast = 5
	}
	entries, err := p.store.RecentConversation(nLast)
	if err != nil {
		return errorString(err)
	}
	if len(entries) == 0 {
		return "No conversation history recorded yet."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s]\nUser: %s\nAssistant: %s\n\n", e.Timestamp.Format("2006-01-02 15:04"), e.User, e.Assistant)
	}
	return strings.TrimSpace(b.String())
}

// ClearMemory implements clear_memory (spec 6.4). It is a no-op unless
// confirm is true; it clears the conversation log and cache while
// preserving the vector store.
func (p *Pipeline) ClearMemory(confirm bool) string {
	if !confirm {
		return "No action taken. Pass confirm=true to clear the conversation log and cache."
	}
	if p.store == nil {
		return "MemoryError: memory subsystem not configured"
	}
	if err := p.store.ClearMemory(); err != nil {
		return errorString(err)
	}
	return "Conversation log and cache cleared. Vector store preserved."
}
