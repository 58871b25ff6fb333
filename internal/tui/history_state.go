package tui

import (
	"sync"

	"github.com/studiowebux/reqflow/internal/types"
)

// HistoryState holds the stored records of one recipe for the history pane
type HistoryState struct {
	mu sync.RWMutex

	recipeID types.RecipeID
	records  []*types.RequestRecord
	index    int
	loaded   bool
	err      error
}

// NewHistoryState creates an empty history pane for recipeID
func NewHistoryState(recipeID types.RecipeID) *HistoryState {
	return &HistoryState{recipeID: recipeID}
}

// RecipeID returns the recipe the pane shows
func (s *HistoryState) RecipeID() types.RecipeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recipeID
}

// SetRecords replaces the records and resets the selection
func (s *HistoryState) SetRecords(records []*types.RequestRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.err = err
	s.loaded = true
	s.index = 0
}

// Records returns a copy of the records slice
func (s *HistoryState) Records() []*types.RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*types.RequestRecord, len(s.records))
	copy(result, s.records)
	return result
}

// Loaded reports whether records have arrived, and the load error if any
func (s *HistoryState) Loaded() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded, s.err
}

// Index returns the selected record index
func (s *HistoryState) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Selected returns the selected record, or nil
func (s *HistoryState) Selected() *types.RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index < 0 || s.index >= len(s.records) {
		return nil
	}
	return s.records[s.index]
}

// Navigate moves the selection by delta, clamped to the list
func (s *HistoryState) Navigate(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return
	}
	s.index += delta
	if s.index < 0 {
		s.index = 0
	}
	if s.index >= len(s.records) {
		s.index = len(s.records) - 1
	}
}
