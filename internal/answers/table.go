// Package answers holds the fixed question phrase to canned answer table.
package answers

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/apply4me/internal/config"
)

// Entry pairs a lowercase question phrase with its canned answer.
type Entry struct {
	Phrase string
	Answer string
}

// Table is an ordered, read-only list of entries. The first entry whose
// phrase occurs in a question wins.
type Table struct {
	entries []Entry
}

// New builds a table, lowercasing every phrase.
func New(entries []Entry) (*Table, error) {
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for i, e := range entries {
		phrase := strings.ToLower(strings.TrimSpace(e.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("answer %d has an empty phrase", i)
		}
		t.entries = append(t.entries, Entry{Phrase: phrase, Answer: e.Answer})
	}
	return t, nil
}

// FromConfig builds a table from the configured answers.
func FromConfig(answers []config.AnswerConfig) (*Table, error) {
	entries := make([]Entry, len(answers))
	for i, a := range answers {
		entries[i] = Entry{Phrase: a.Phrase, Answer: a.Answer}
	}
	return New(entries)
}

// Match returns the first entry whose phrase is a substring of the lowercased question.
func (t *Table) Match(question string) (Entry, bool) {
	q := strings.ToLower(question)
	for _, e := range t.entries {
		if strings.Contains(q, e.Phrase) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the table.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}
