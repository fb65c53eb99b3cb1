// Package transcript holds the ordered, size-capped record of one conversation.
package transcript

import (
	"time"

	"llama-chatter/internal/llm"
)

// DefaultLimit is the number of most recent entries a transcript keeps.
const DefaultLimit = 20

type Entry struct {
	Role    string
	Content string
	// Error marks a synthetic reply produced for a failed request.
	Error bool
	// Complete is the completeness verdict for assistant entries.
	Complete bool
	Time     time.Time
}

// Transcript is not safe for concurrent use; history.Manager serializes access.
type Transcript struct {
	entries []Entry
	limit   int
}

func New(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Transcript{limit: limit}
}

func (t *Transcript) Len() int { return len(t.entries) }

// Append adds e and drops the oldest entries beyond the limit.
func (t *Transcript) Append(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	t.entries = append(t.entries, e)
	if over := len(t.entries) - t.limit; over > 0 {
		kept := make([]Entry, t.limit)
		copy(kept, t.entries[over:])
		t.entries = kept
	}
}

func (t *Transcript) AppendUser(content string) {
	t.Append(Entry{Role: llm.RoleUser, Content: content, Complete: true})
}

func (t *Transcript) Last() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

func (t *Transcript) Reset() { t.entries = nil }

// Entries returns a copy.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Messages returns the conversation as model context. Error replies are
// left out so the model never sees its own failure notices.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Error {
			continue
		}
		out = append(out, llm.Message{Role: e.Role, Content: e.Content})
	}
	return out
}
