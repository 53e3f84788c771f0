// Package history keeps a bounded in-memory record of completed pipeline
// sessions and derives aggregate analytics from it. Entries are deep
// copies: a recorded session can never change, no matter what happens to
// the live one.
package history

import (
	"strings"
	"sync"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// DefaultCapacity bounds the history when no capacity is configured.
const DefaultCapacity = 500

// Store is a fixed-capacity, newest-first session history.
type Store struct {
	mu       sync.RWMutex
	capacity int
	sessions []*domain.Session
}

// NewStore creates a history store. Non-positive capacity falls back to
// DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		sessions: make([]*domain.Session, 0, capacity),
	}
}

// Record stores a deep copy of the session at the head of history,
// evicting the oldest entry when capacity is exceeded.
func (s *Store) Record(session *domain.Session) {
	if session == nil {
		return
	}
	clone := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append([]*domain.Session{clone}, s.sessions...)
	if len(s.sessions) > s.capacity {
		s.sessions = s.sessions[:s.capacity]
	}
}

// All returns every recorded session, newest first.
func (s *Store) All() []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.sessions)
}

// Get returns the recorded session with the given ID.
func (s *Store) Get(id string) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.ID == id {
			return session.Clone(), true
		}
	}
	return nil, false
}

// Len returns the number of recorded sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Query returns the sessions matching every set filter field, newest first.
func (s *Store) Query(filter domain.HistoryFilter) []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Session
	for _, session := range s.sessions {
		if matches(session, &filter) {
			matched = append(matched, session.Clone())
		}
	}
	return matched
}

func matches(session *domain.Session, f *domain.HistoryFilter) bool {
	if len(f.Statuses) > 0 && !containsString(f.Statuses, session.Status) {
		return false
	}
	if f.DateFrom != nil && session.StartTime.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && session.StartTime.After(*f.DateTo) {
		return false
	}
	if len(f.MarketCategory) > 0 {
		found := false
		for _, impact := range session.Impacts {
			if containsString(f.MarketCategory, impact.MarketCategory) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Author != "" {
		author := strings.ToLower(f.Author)
		handle := strings.ToLower(session.Event.Author.Handle)
		name := strings.ToLower(session.Event.Author.Name)
		if !strings.Contains(handle, author) && !strings.Contains(name, author) {
			return false
		}
	}
	if f.EventText != "" {
		if !strings.Contains(strings.ToLower(session.Event.Text), strings.ToLower(f.EventText)) {
			return false
		}
	}
	if f.MinTrades != nil && len(session.Trades) < *f.MinTrades {
		return false
	}
	if f.MaxTrades != nil && len(session.Trades) > *f.MaxTrades {
		return false
	}
	if f.MinConfidence != nil {
		// Filter is on a 0-100 scale, impacts carry 0-1.
		threshold := *f.MinConfidence / 100
		found := false
		for _, impact := range session.Impacts {
			if impact.Confidence >= threshold {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cloneAll(sessions []*domain.Session) []*domain.Session {
	out := make([]*domain.Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}
