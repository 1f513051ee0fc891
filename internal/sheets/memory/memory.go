// Package memory is the in-process audit sink used in tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"zenledger/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	entries []sheets.Entry
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e sheets.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return fmt.Sprintf("mem:%d", len(s.entries)), nil
}

// Recent returns the newest entries, oldest first.
func (s *Store) Recent(_ context.Context, limit int) ([]sheets.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]sheets.Entry(nil), s.entries...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
