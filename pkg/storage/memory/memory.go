// Package memory provides an in-memory implementation of storage.Store
// for tests and single-process deployments. Records are lost when the
// process restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/storage"
)

type exchangeEntry struct {
	ex       api.Exchange
	tenantID string
	lruElem  *list.Element
}

type submissionEntry struct {
	sub      api.Submission
	tenantID string
	lruElem  *list.Element
}

// Store is an in-memory storage.Store with optional LRU eviction.
type Store struct {
	mu sync.RWMutex

	exchanges   map[string]*exchangeEntry
	sessions    map[string][]string // session ID -> exchange IDs, insertion order
	exchangeLRU *list.List          // front = newest

	submissions   map[string]*submissionEntry
	submissionLRU *list.List

	maxSize int // per collection; 0 = unlimited
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, each collection evicts its oldest
// record when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		exchanges:     make(map[string]*exchangeEntry),
		sessions:      make(map[string][]string),
		exchangeLRU:   list.New(),
		submissions:   make(map[string]*submissionEntry),
		submissionLRU: list.New(),
		maxSize:       maxSize,
	}
}

// SaveExchange stores a copy of ex.
func (s *Store) SaveExchange(ctx context.Context, ex *api.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.exchanges[ex.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.exchanges) >= s.maxSize {
		s.evictOldestExchange()
	}

	elem := s.exchangeLRU.PushFront(ex.ID)
	s.exchanges[ex.ID] = &exchangeEntry{
		ex:       *ex,
		tenantID: storage.GetTenant(ctx),
		lruElem:  elem,
	}
	s.sessions[ex.SessionID] = append(s.sessions[ex.SessionID], ex.ID)
	return nil
}

// ListExchanges returns a session's exchanges oldest first.
func (s *Store) ListExchanges(ctx context.Context, sessionID string, opts storage.ListOptions) (*api.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []api.Exchange
	for _, id := range s.sessions[sessionID] {
		e := s.exchanges[id]
		if e == nil || !storage.Visible(ctx, e.tenantID) {
			continue
		}
		matches = append(matches, e.ex)
	}

	if opts.After != "" {
		idx := -1
		for i, ex := range matches {
			if ex.ID == opts.After {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	}

	limit := opts.EffectiveLimit()
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []api.Exchange{}
	}

	return &api.Transcript{
		Object:    "list",
		SessionID: sessionID,
		Data:      matches,
		HasMore:   hasMore,
	}, nil
}

// SaveSubmission stores a copy of sub.
func (s *Store) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.ID]; exists {
		return storage.ErrConflict
	}

	if s.maxSize > 0 && len(s.submissions) >= s.maxSize {
		s.evictOldestSubmission()
	}

	elem := s.submissionLRU.PushFront(sub.ID)
	s.submissions[sub.ID] = &submissionEntry{
		sub:      *sub,
		tenantID: storage.GetTenant(ctx),
		lruElem:  elem,
	}
	return nil
}

// GetSubmission returns one submission.
func (s *Store) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.submissions[id]
	if !ok || !storage.Visible(ctx, e.tenantID) {
		return nil, storage.ErrNotFound
	}
	sub := e.sub
	return &sub, nil
}

// ListSubmissions returns submissions newest first.
func (s *Store) ListSubmissions(ctx context.Context, opts storage.ListOptions) (*api.SubmissionList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []api.Submission
	for _, e := range s.submissions {
		if !storage.Visible(ctx, e.tenantID) {
			continue
		}
		if opts.UndeliveredOnly && e.sub.Delivered() {
			continue
		}
		matches = append(matches, e.sub)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if opts.After != "" {
		idx := -1
		for i, sub := range matches {
			if sub.ID == opts.After {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	}

	limit := opts.EffectiveLimit()
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []api.Submission{}
	}

	return &api.SubmissionList{
		Object:  "list",
		Data:    matches,
		HasMore: hasMore,
	}, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldestExchange removes the least recently stored exchange.
// Must be called with s.mu held.
func (s *Store) evictOldestExchange() {
	back := s.exchangeLRU.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.exchangeLRU.Remove(back)

	e := s.exchanges[id]
	delete(s.exchanges, id)
	if e == nil {
		return
	}

	ids := s.sessions[e.ex.SessionID]
	for i, sid := range ids {
		if sid == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.sessions, e.ex.SessionID)
	} else {
		s.sessions[e.ex.SessionID] = ids
	}
}

// evictOldestSubmission removes the least recently stored submission.
// Must be called with s.mu held.
func (s *Store) evictOldestSubmission() {
	back := s.submissionLRU.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.submissionLRU.Remove(back)
	delete(s.submissions, id)
}
