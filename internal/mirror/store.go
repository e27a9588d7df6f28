package mirror

import (
	"log/slog"
	"sync"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/google/uuid"
)

// ChangeKind says why observers are being called.
type ChangeKind int

const (
	ChangeEvent ChangeKind = iota + 1
	ChangeActingAs
	ChangeStale
)

// Change is delivered to observers after the write lock is released.
type Change struct {
	Kind      ChangeKind
	EventType event.Type
	MarketID  int64
}

// Observer is called on every mirror change.
type Observer func(Change)

// Store is the connection-scoped handle around State. A SessionReset
// starts a new session on the same Store.
// Apply is meant to be called from one goroutine; reads are safe from any goroutine.
type Store struct {
	mu    sync.RWMutex
	state *State

	sessionID string

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// NewStore creates an empty mirror for a new session.
func NewStore() *Store {
	return &Store{
		state:     NewState(),
		sessionID: uuid.NewString(),
		observers: make(map[int]Observer),
	}
}

// SessionID identifies the connection the mirror currently reflects.
// It changes on every SessionReset.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Apply reduces one event. Readers observe either the state before or after it.
func (s *Store) Apply(ev event.ServerEvent) Outcome {
	out := s.apply(ev)

	if out.Warning != nil {
		slog.Warn("Event not applied",
			slog.String("type", ev.GetType().String()),
			slog.Uint64("seq", ev.GetSeq()),
			slog.Any("reason", out.Warning))
	}
	if out.Changed {
		s.publish(Change{Kind: ChangeEvent, EventType: ev.GetType(), MarketID: out.MarketID})
	}
	return out
}

func (s *Store) apply(ev event.ServerEvent) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ev.(*event.SessionReset); ok {
		s.sessionID = uuid.NewString()
	}
	return Apply(s.state, ev)
}

// Read runs fn with a read lock held. fn must not retain s or call back into the Store.
func (s *Store) Read(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Snapshot returns a deep copy of the whole mirror.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Market returns a copy of one market.
func (s *Store) Market(id int64) (domain.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.Markets[id]
	if !ok {
		return domain.Market{}, false
	}
	return m.Clone(), true
}

// User resolves a user id.
func (s *Store) User(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User(id)
}

// ActingAs returns the identity the session currently represents.
func (s *Store) ActingAs() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActingAs
}

// SetActingAs switches identity locally. Requests already sent are unaffected.
func (s *Store) SetActingAs(userID string) {
	s.mu.Lock()
	if s.state.ActingAs == userID {
		s.mu.Unlock()
		return
	}
	s.state.ActingAs = userID
	s.mu.Unlock()
	s.publish(Change{Kind: ChangeActingAs})
}

// Stale reports whether the transport considers the mirror out of date.
func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Stale
}

// SetStale is driven by the transport's liveness signal.
func (s *Store) SetStale(stale bool) {
	s.mu.Lock()
	if s.state.Stale == stale {
		s.mu.Unlock()
		return
	}
	s.state.Stale = stale
	s.mu.Unlock()
	s.publish(Change{Kind: ChangeStale})
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) publish(c Change) {
	s.obsMu.Lock()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.obsMu.Unlock()

	for _, o := range obs {
		o(c)
	}
}
