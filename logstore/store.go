// Package logstore keeps the most recent log events in memory so they can
// be browsed through the API without a log backend.
package logstore

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 10000

// Entry is one captured log event.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Query filters Entries. Zero values mean "no filter".
type Query struct {
	Count     int    `form:"count"`
	MinLevel  string `form:"minLevel"`
	Component string `form:"component"`
}

// Store is a bounded ring of log entries. It implements io.Writer and
// expects one zerolog JSON event per Write call.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	start   int
	size    int
	now     func() time.Time
}

// New creates a store holding at most capacity entries.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Write parses a zerolog JSON line and records it. Lines that are not JSON
// are kept verbatim as the message so nothing written is lost.
func (s *Store) Write(p []byte) (int, error) {
	s.Add(s.parse(p))
	return len(p), nil
}

// Add records an entry, evicting the oldest when full.
func (s *Store) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.entries)
	if s.size < capacity {
		s.entries[(s.start+s.size)%capacity] = e
		s.size++
		return
	}
	s.entries[s.start] = e
	s.start = (s.start + 1) % capacity
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Entries returns matching entries, newest first.
func (s *Store) Entries(q Query) []Entry {
	minLevel := zerolog.TraceLevel
	if q.MinLevel != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(q.MinLevel)); err == nil {
			minLevel = lvl
		}
	}
	component := strings.ToLower(q.Component)

	s.mu.RLock()
	defer s.mu.RUnlock()

	capacity := len(s.entries)
	n := s.size
	if q.Count > 0 && q.Count < n {
		n = q.Count
	}
	out := make([]Entry, 0, n)
	for i := s.size - 1; i >= 0; i-- {
		e := s.entries[(s.start+i)%capacity]
		if lvl, err := zerolog.ParseLevel(e.Level); err == nil && lvl < minLevel {
			continue
		}
		if component != "" && !strings.Contains(strings.ToLower(e.Component), component) {
			continue
		}
		out = append(out, e)
		if q.Count > 0 && len(out) == q.Count {
			break
		}
	}
	return out
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	s.start, s.size = 0, 0
}

func (s *Store) parse(p []byte) Entry {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return Entry{Timestamp: s.now(), Level: zerolog.NoLevel.String(), Message: strings.TrimSpace(string(p))}
	}

	e := Entry{Timestamp: s.now()}
	if v, ok := raw[zerolog.TimestampFieldName].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.Timestamp = ts
		}
	}
	e.Level, _ = raw[zerolog.LevelFieldName].(string)
	e.Message, _ = raw[zerolog.MessageFieldName].(string)
	e.Component, _ = raw["component"].(string)

	for _, k := range []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName, "component"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Fields = raw
	}
	return e
}
