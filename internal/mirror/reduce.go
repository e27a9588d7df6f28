package mirror

import (
	"fmt"
	"strconv"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/shopspring/decimal"
)

// Outcome describes what one Apply call did.
type Outcome struct {
	Changed  bool
	MarketID int64 // 0 when the event is not market-scoped
	Warning  error // UnknownReferenceError, duplicate or settled-market diagnostics
}

// Apply folds one server event into s. It never panics on well-formed events
// and leaves s untouched when the event refers to something it does not know.
func Apply(s *State, ev event.ServerEvent) Outcome {
	switch e := ev.(type) {
	case *event.MarketCreated:
		return applyMarketCreated(s, e)
	case *event.MarketSettled:
		return applyMarketSettled(s, e)
	case *event.OrderCreated:
		return applyOrderCreated(s, e)
	case *event.OrderCancelled:
		return applyOrderCancelled(s, e)
	case *event.Out:
		return applyOut(s, e)
	case *event.Ownership:
		return setOwner(s, e.OfBotID, e.NewOwnerID)
	case *event.OwnershipGiven:
		return setOwner(s, e.OfBotID, e.NewOwnerID)
	case *event.Users:
		s.Users = make(map[string]domain.User, len(e.Users))
		for _, u := range e.Users {
			s.Users[u.ID] = u
		}
		return Outcome{Changed: true}
	case *event.UserCreated:
		s.Users[e.User.ID] = e.User
		return Outcome{Changed: true}
	case *event.ActingAs:
		if s.ActingAs == e.UserID {
			return Outcome{}
		}
		s.ActingAs = e.UserID
		return Outcome{Changed: true}
	case *event.Markets:
		return applyMarkets(s, e)
	case *event.SessionReset:
		return applySessionReset(s)
	default:
		// PaymentCreated, RequestFailed and unrecognized kinds do not touch the mirror.
		return Outcome{}
	}
}

func unknownMarket(id int64) error {
	return &domain.UnknownReferenceError{Kind: "market", ID: strconv.FormatInt(id, 10)}
}

func applyMarketCreated(s *State, e *event.MarketCreated) Outcome {
	if _, exists := s.Markets[e.ID]; exists {
		return Outcome{MarketID: e.ID, Warning: fmt.Errorf("duplicate market %d ignored", e.ID)}
	}

	m := &domain.Market{
		ID:            e.ID,
		Name:          e.Name,
		OwnerID:       e.OwnerID,
		Open:          true,
		MinSettlement: decimal.Zero,
		MaxSettlement: domain.DefaultMaxSettlement,
		Orders:        []domain.Order{},
	}
	if e.MinSettlement != nil {
		m.MinSettlement = *e.MinSettlement
	}
	if e.MaxSettlement != nil && !e.MaxSettlement.IsZero() {
		m.MaxSettlement = *e.MaxSettlement
	}
	s.Markets[e.ID] = m
	return Outcome{Changed: true, MarketID: e.ID}
}

func applyMarkets(s *State, e *event.Markets) Outcome {
	out := Outcome{}
	for i := range e.Markets {
		snap := e.Markets[i].Clone()
		if _, exists := s.Markets[snap.ID]; exists {
			continue
		}
		if snap.MaxSettlement.IsZero() {
			snap.MaxSettlement = domain.DefaultMaxSettlement
		}
		if snap.Orders == nil {
			snap.Orders = []domain.Order{}
		}
		s.Markets[snap.ID] = &snap
		out.Changed = true
	}
	return out
}

// applySessionReset drops everything the previous connection told us.
// ActingAs and Stale belong to the client, not the server, and are kept.
func applySessionReset(s *State) Outcome {
	if len(s.Markets) == 0 && len(s.Users) == 0 && len(s.Ownerships) == 0 {
		return Outcome{}
	}
	s.Markets = make(map[int64]*domain.Market)
	s.Users = make(map[string]domain.User)
	s.Ownerships = make(map[string]string)
	return Outcome{Changed: true}
}

func applyMarketSettled(s *State, e *event.MarketSettled) Outcome {
	m, ok := s.Markets[e.ID]
	if !ok {
		return Outcome{Warning: unknownMarket(e.ID)}
	}
	if m.IsSettled() {
		return Outcome{MarketID: e.ID, Warning: fmt.Errorf("market %d: %w", e.ID, domain.ErrMarketSettled)}
	}
	m.Closed = &domain.Settlement{SettlePrice: e.SettlePrice}
	m.Open = false
	return Outcome{Changed: true, MarketID: e.ID}
}

// bookMarket returns the market if it still accepts book-affecting events.
func bookMarket(s *State, id int64) (*domain.Market, error) {
	m, ok := s.Markets[id]
	if !ok {
		return nil, unknownMarket(id)
	}
	if m.IsSettled() {
		return nil, fmt.Errorf("market %d: %w", id, domain.ErrMarketSettled)
	}
	return m, nil
}

func applyOrderCreated(s *State, e *event.OrderCreated) Outcome {
	marketID := e.MarketID
	if marketID == 0 && e.Order != nil {
		marketID = e.Order.MarketID
	}
	m, err := bookMarket(s, marketID)
	if err != nil {
		return Outcome{MarketID: marketID, Warning: err}
	}

	changed := false
	var ownID int64
	if e.Order != nil {
		o := e.Order.Clone()
		o.MarketID = marketID
		ownID = o.ID
		if i := m.OrderIndex(o.ID); i >= 0 {
			m.Orders[i] = o
		} else {
			m.Orders = append(m.Orders, o)
		}
		changed = true
	}

	// Fills naming a resting order shrink it; it stays listed until the server removes it.
	for _, f := range e.Fills {
		if f.OrderID == 0 || f.OrderID == ownID {
			continue
		}
		i := m.OrderIndex(f.OrderID)
		if i < 0 {
			continue
		}
		resting := &m.Orders[i]
		resting.Fills = append(resting.Fills, f)
		resting.Size = resting.Size.Sub(f.SizeFilled)
		if resting.Size.IsNegative() {
			resting.Size = decimal.Zero
		}
		changed = true
	}

	return Outcome{Changed: changed, MarketID: marketID}
}

func applyOrderCancelled(s *State, e *event.OrderCancelled) Outcome {
	m, err := bookMarket(s, e.MarketID)
	if err != nil {
		return Outcome{MarketID: e.MarketID, Warning: err}
	}
	i := m.OrderIndex(e.ID)
	if i < 0 {
		return Outcome{MarketID: e.MarketID, Warning: &domain.UnknownReferenceError{
			Kind: "order", ID: strconv.FormatInt(e.ID, 10),
		}}
	}
	m.Orders = append(m.Orders[:i], m.Orders[i+1:]...)
	return Outcome{Changed: true, MarketID: e.MarketID}
}

func applyOut(s *State, e *event.Out) Outcome {
	m, err := bookMarket(s, e.MarketID)
	if err != nil {
		return Outcome{MarketID: e.MarketID, Warning: err}
	}
	if e.OwnerID == "" {
		return Outcome{MarketID: e.MarketID, Warning: fmt.Errorf("out for market %d carries no owner", e.MarketID)}
	}

	kept := m.Orders[:0]
	for _, o := range m.Orders {
		if o.OwnerID != e.OwnerID {
			kept = append(kept, o)
		}
	}
	changed := len(kept) != len(m.Orders)
	m.Orders = kept
	return Outcome{Changed: changed, MarketID: e.MarketID}
}

func setOwner(s *State, botID, ownerID string) Outcome {
	if botID == "" {
		return Outcome{Warning: &domain.UnknownReferenceError{Kind: "user", ID: botID}}
	}
	if s.Ownerships[botID] == ownerID {
		return Outcome{}
	}
	s.Ownerships[botID] = ownerID
	return Outcome{Changed: true}
}
