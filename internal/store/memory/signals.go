package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/contentpulse/internal/contracts"
)

// Signals is a static signal source serving all three signal kinds from maps.
// Used for tests and the --memory dev mode.
type Signals struct {
	mu        sync.RWMutex
	trends    map[string]contracts.TrendSignal
	serps     map[string]contracts.SerpSignal
	sentiment map[string]contracts.SentimentSignal
}

// NewSignals returns an empty signal table
func NewSignals() *Signals {
	return &Signals{
		trends:    make(map[string]contracts.TrendSignal),
		serps:     make(map[string]contracts.SerpSignal),
		sentiment: make(map[string]contracts.SentimentSignal),
	}
}

// SetTrend sets the trend signal for keyword
func (s *Signals) SetTrend(keyword string, sig contracts.TrendSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trends[normalizeKeyword(keyword)] = sig
}

// SetSerp sets the SERP signal for keyword
func (s *Signals) SetSerp(keyword string, sig contracts.SerpSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serps[normalizeKeyword(keyword)] = sig
}

// SetSentiment sets the sentiment signal for keyword
func (s *Signals) SetSentiment(keyword string, sig contracts.SentimentSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiment[normalizeKeyword(keyword)] = sig
}

// TrendFor returns the trend signal for keyword, or nil
func (s *Signals) TrendFor(_ context.Context, keyword string) (*contracts.TrendSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sig, ok := s.trends[normalizeKeyword(keyword)]; ok {
		return &sig, nil
	}
	return nil, nil
}

// SerpFor returns the SERP signal for keyword, or nil
func (s *Signals) SerpFor(_ context.Context, keyword string) (*contracts.SerpSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sig, ok := s.serps[normalizeKeyword(keyword)]; ok {
		return &sig, nil
	}
	return nil, nil
}

// SentimentFor returns the sentiment signal for keyword, or nil
func (s *Signals) SentimentFor(_ context.Context, keyword string) (*contracts.SentimentSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sig, ok := s.sentiment[normalizeKeyword(keyword)]; ok {
		return &sig, nil
	}
	return nil, nil
}

// Keywords lists every keyword any signal map knows about
func (s *Signals) Keywords(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range s.trends {
		seen[k] = struct{}{}
	}
	for k := range s.serps {
		seen[k] = struct{}{}
	}
	for k := range s.sentiment {
		seen[k] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
