// Package history keeps the bounded per-token audit trail.
package history

import (
	"github.com/feral-file/ff-tier-pass/internal/domain"
)

// Entry is an immutable audit record
type Entry struct {
	Action    domain.HistoryAction `json:"action"`
	Timestamp domain.Timestamp     `json:"timestamp"`
	Actor     domain.Account       `json:"actor"`
}

// Log is a fixed-capacity ring holding the most recent domain.MaxHistoryEntries entries.
// The zero value is an empty log. Log is a value type; copies do not share entries.
type Log struct {
	buf   [domain.MaxHistoryEntries]Entry
	start int
	n     int
}

// New returns a log seeded with the given entries, keeping only the most recent ones
func New(entries ...Entry) Log {
	var l Log
	for _, e := range entries {
		l.Append(e)
	}
	return l
}

// Append adds an entry, dropping the oldest one when the log is full
func (l *Log) Append(e Entry) {
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = e
		l.n++
		return
	}
	l.buf[l.start] = e
	l.start = (l.start + 1) % len(l.buf)
}

// Len returns the number of retained entries
func (l *Log) Len() int {
	return l.n
}

// Entries returns the retained entries in insertion order, oldest first
func (l *Log) Entries() []Entry {
	out := make([]Entry, l.n)
	for i := 0; i < l.n; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

// Book holds the logs of every live token
type Book struct {
	logs map[domain.TokenID]*Log
}

// NewBook creates an empty book
func NewBook() *Book {
	return &Book{logs: make(map[domain.TokenID]*Log)}
}

// Seed replaces the log of a token with a single entry
func (b *Book) Seed(id domain.TokenID, e Entry) {
	l := New(e)
	b.logs[id] = &l
}

// Put replaces the log of a token with the most recent of the given entries
func (b *Book) Put(id domain.TokenID, entries []Entry) {
	l := New(entries...)
	b.logs[id] = &l
}

// Append adds an entry to the log of a token, creating it if needed
func (b *Book) Append(id domain.TokenID, e Entry) {
	l, ok := b.logs[id]
	if !ok {
		l = &Log{}
		b.logs[id] = l
	}
	l.Append(e)
}

// Get returns the entries of a token, or an empty slice for an unknown id
func (b *Book) Get(id domain.TokenID) []Entry {
	l, ok := b.logs[id]
	if !ok {
		return []Entry{}
	}
	return l.Entries()
}

// Has reports whether a log exists for the token
func (b *Book) Has(id domain.TokenID) bool {
	_, ok := b.logs[id]
	return ok
}

// Delete removes the whole log of a token
func (b *Book) Delete(id domain.TokenID) {
	delete(b.logs, id)
}

// All returns a copy of every log keyed by token id
func (b *Book) All() map[domain.TokenID][]Entry {
	out := make(map[domain.TokenID][]Entry, len(b.logs))
	for id, l := range b.logs {
		out[id] = l.Entries()
	}
	return out
}
