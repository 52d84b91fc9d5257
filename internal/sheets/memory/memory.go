package memory

import (
	"context"
	"fmt"
	"sync"

	"saldo/internal/sheets"
)

// Store keeps exported rows in memory. Used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu     sync.Mutex
	rows   []sheets.ActivityRow
	events map[string]int
}

var (
	_ sheets.ActivityExporter = (*Store)(nil)
	_ sheets.EventIndex       = (*Store)(nil)
)

func New() *Store {
	return &Store{events: map[string]int{}}
}

// AppendActivity stores the row and returns a synthetic row reference.
func (s *Store) AppendActivity(_ context.Context, row sheets.ActivityRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	s.events[row.EventID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) HasEvent(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok, nil
}

// Rows returns a copy of every stored row in append order.
func (s *Store) Rows() []sheets.ActivityRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ActivityRow(nil), s.rows...)
}
