package logstore

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStore_WriteParsesZerologJSON(t *testing.T) {
	s := New(10)
	line := `{"level":"warn","component":"streaming","subscription_id":"abc","time":"2026-01-02T03:04:05Z","message":"stream closed"}` + "\n"
	if _, err := s.Write([]byte(line)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := s.Entries(Query{})
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.Level != "warn" || e.Component != "streaming" || e.Message != "stream closed" {
		t.Errorf("unexpected entry %+v", e)
	}
	if !e.Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}
	if e.Fields["subscription_id"] != "abc" {
		t.Errorf("expected extra field kept, got %v", e.Fields)
	}
	if _, ok := e.Fields["message"]; ok {
		t.Error("message should not be duplicated into fields")
	}
}

func TestStore_NonJSONKept(t *testing.T) {
	s := New(10)
	s.Write([]byte("plain text\n"))
	got := s.Entries(Query{})
	if len(got) != 1 || got[0].Message != "plain text" {
		t.Fatalf("unexpected entries %+v", got)
	}
}

func TestStore_EvictsOldest(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Add(Entry{Level: "info", Message: fmt.Sprintf("m%d", i)})
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", s.Len())
	}
	got := s.Entries(Query{})
	want := []string{"m4", "m3", "m2"}
	for i, w := range want {
		if got[i].Message != w {
			t.Errorf("entry %d: expected %s, got %s", i, w, got[i].Message)
		}
	}
}

func TestStore_Query(t *testing.T) {
	s := New(0)
	s.Add(Entry{Level: "debug", Component: "api", Message: "a"})
	s.Add(Entry{Level: "info", Component: "Streaming", Message: "b"})
	s.Add(Entry{Level: "error", Component: "notification", Message: "c"})
	s.Add(Entry{Level: "warn", Component: "streaming", Message: "d"})

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"all newest first", Query{}, []string{"d", "c", "b", "a"}},
		{"count", Query{Count: 2}, []string{"d", "c"}},
		{"min level", Query{MinLevel: "warn"}, []string{"d", "c"}},
		{"min level upper case", Query{MinLevel: "ERROR"}, []string{"c"}},
		{"component case insensitive", Query{Component: "STREAM"}, []string{"d", "b"}},
		{"combined", Query{Component: "stream", MinLevel: "info", Count: 1}, []string{"d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Entries(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i, w := range tt.want {
				if got[i].Message != w {
					t.Errorf("entry %d: expected %s, got %s", i, w, got[i].Message)
				}
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	s := New(2)
	s.Add(Entry{Message: "x"})
	s.Add(Entry{Message: "y"})
	s.Add(Entry{Message: "z"})
	s.Clear()
	if s.Len() != 0 || len(s.Entries(Query{})) != 0 {
		t.Fatal("expected empty store after Clear")
	}
	s.Add(Entry{Message: "after"})
	if got := s.Entries(Query{}); len(got) != 1 || got[0].Message != "after" {
		t.Errorf("unexpected entries after clear %+v", got)
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := New(100)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Write([]byte(fmt.Sprintf(`{"level":"info","message":"%d-%d"}`, i, j)))
				_ = s.Entries(Query{Count: 5})
			}
		}(i)
	}
	wg.Wait()
	if s.Len() != 100 {
		t.Errorf("expected full store, got %d", s.Len())
	}
}
