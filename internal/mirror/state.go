package mirror

import (
	"sort"

	"tradedesk/internal/domain"
)

// State is the plain mirrored data. It has no locking of its own;
// Store owns the only writer.
type State struct {
	Markets    map[int64]*domain.Market
	Users      map[string]domain.User
	Ownerships map[string]string // bot id -> owner id
	ActingAs   string
	Stale      bool
}

// NewState returns an empty mirror.
func NewState() *State {
	return &State{
		Markets:    make(map[int64]*domain.Market),
		Users:      make(map[string]domain.User),
		Ownerships: make(map[string]string),
	}
}

// Market looks up a market by id.
func (s *State) Market(id int64) (*domain.Market, bool) {
	m, ok := s.Markets[id]
	return m, ok
}

// BookMarket returns the market only while it still accepts order events.
func (s *State) BookMarket(id int64) (*domain.Market, bool) {
	m, ok := s.Markets[id]
	if !ok || m.IsSettled() {
		return nil, false
	}
	return m, true
}

// User resolves a user id. Missing ids are not an error.
func (s *State) User(id string) (domain.User, bool) {
	if id == "" {
		return domain.User{}, false
	}
	u, ok := s.Users[id]
	return u, ok
}

// UserName returns the display name for id, or id itself when unknown.
func (s *State) UserName(id string) string {
	if u, ok := s.User(id); ok && u.Name != "" {
		return u.Name
	}
	return id
}

// FindOrder locates an order by id within a market.
func (s *State) FindOrder(marketID, orderID int64) (*domain.Order, bool) {
	m, ok := s.Markets[marketID]
	if !ok {
		return nil, false
	}
	if i := m.OrderIndex(orderID); i >= 0 {
		return &m.Orders[i], true
	}
	return nil, false
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Markets:    make(map[int64]*domain.Market, len(s.Markets)),
		Users:      make(map[string]domain.User, len(s.Users)),
		Ownerships: make(map[string]string, len(s.Ownerships)),
		ActingAs:   s.ActingAs,
		Stale:      s.Stale,
	}
	for id, m := range s.Markets {
		mc := m.Clone()
		c.Markets[id] = &mc
	}
	for id, u := range s.Users {
		c.Users[id] = u
	}
	for bot, owner := range s.Ownerships {
		c.Ownerships[bot] = owner
	}
	return c
}

// MarketIDs returns the known market ids in ascending order.
func (s *State) MarketIDs() []int64 {
	ids := make([]int64, 0, len(s.Markets))
	for id := range s.Markets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
