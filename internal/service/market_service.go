package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"
	"tradedesk/internal/infra/chart"
	"tradedesk/internal/mirror"
	"tradedesk/internal/request"
	"tradedesk/internal/view"

	"github.com/shopspring/decimal"
)

// Sender delivers client requests to the venue.
type Sender interface {
	Send(req event.ClientRequest) error
}

// MarketSummary is one row of the market list.
type MarketSummary struct {
	ID        int64
	Name      string
	OwnerName string
	Mine      bool
	BestBid   decimal.Decimal
	BestOffer decimal.Decimal
	Mid       decimal.Decimal
	Orders    int
}

// OrderRow is a displayable order with ownership resolved.
type OrderRow struct {
	domain.Order
	OwnerName string
	Mine      bool
}

// MarketDetail is everything a market page shows.
type MarketDetail struct {
	Market domain.Market
	Book   view.BookView
	Bids   []OrderRow
	Offers []OrderRow
	Stale  bool
}

// MarketService answers presentation queries over the mirror and turns
// user intents into requests. It never mutates the mirror directly,
// except for the local acting-as switch.
type MarketService struct {
	store       *mirror.Store
	sender      Sender
	improveTick decimal.Decimal
}

// NewMarketService creates a new MarketService instance
func NewMarketService(store *mirror.Store, sender Sender, improveTick decimal.Decimal) *MarketService {
	return &MarketService{
		store:       store,
		sender:      sender,
		improveTick: improveTick,
	}
}

// OpenMarkets returns unsettled markets sorted by id
func (s *MarketService) OpenMarkets() []MarketSummary {
	snap := s.store.Snapshot()

	markets := make([]domain.Market, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		markets = append(markets, *m)
	}

	open := view.OpenMarkets(markets)
	result := make([]MarketSummary, 0, len(open))
	for _, m := range open {
		b := view.Book(m)
		result = append(result, MarketSummary{
			ID:        m.ID,
			Name:      m.Name,
			OwnerName: snap.UserName(m.OwnerID),
			Mine:      snap.ActingAs != "" && m.OwnerID == snap.ActingAs,
			BestBid:   b.BestBid,
			BestOffer: b.BestOffer,
			Mid:       b.Mid,
			Orders:    len(b.Bids) + len(b.Offers),
		})
	}
	return result
}

// Market returns the book and resolved order rows for one market.
func (s *MarketService) Market(marketID int64) (MarketDetail, error) {
	snap := s.store.Snapshot()
	m, ok := snap.Market(marketID)
	if !ok {
		return MarketDetail{}, &domain.UnknownReferenceError{Kind: "market", ID: strconv.FormatInt(marketID, 10)}
	}

	b := view.Book(*m)
	return MarketDetail{
		Market: *m,
		Book:   b,
		Bids:   rows(snap, b.Bids),
		Offers: rows(snap, b.Offers),
		Stale:  snap.Stale,
	}, nil
}

func rows(snap *mirror.State, orders []domain.Order) []OrderRow {
	out := make([]OrderRow, len(orders))
	for i, o := range orders {
		out[i] = OrderRow{
			Order:     o,
			OwnerName: snap.UserName(o.OwnerID),
			Mine:      snap.ActingAs != "" && o.OwnerID == snap.ActingAs,
		}
	}
	return out
}

// Users returns known users sorted by name.
func (s *MarketService) Users() []domain.User {
	snap := s.store.Snapshot()
	users := make([]domain.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

// Stale reports whether displayed data may be out of date.
func (s *MarketService) Stale() bool {
	return s.store.Stale()
}

// PlaceOrder validates form input and sends a createOrder request.
func (s *MarketService) PlaceOrder(marketID int64, sizeText, priceText, side string) error {
	if err := s.requireOpen(marketID); err != nil {
		return err
	}
	req, err := request.ParseCreateOrder(marketID, sizeText, priceText, side)
	if err != nil {
		return err
	}
	return s.sender.Send(req)
}

// CancelAll sends out for the market.
func (s *MarketService) CancelAll(marketID int64) error {
	if err := s.requireOpen(marketID); err != nil {
		return err
	}
	return s.sender.Send(request.BuildCancelAll(marketID))
}

// CancelOrder cancels one of the actor's orders.
func (s *MarketService) CancelOrder(marketID, orderID int64) error {
	if _, err := s.order(marketID, orderID); err != nil {
		return err
	}
	return s.sender.Send(request.BuildCancelOrder(marketID, orderID))
}

// Take crosses the given resting order.
func (s *MarketService) Take(marketID, orderID int64) error {
	o, err := s.order(marketID, orderID)
	if err != nil {
		return err
	}
	req, err := request.TakeOrder(o)
	if err != nil {
		return err
	}
	return s.sender.Send(req)
}

// Improve places an order one tick better than the given resting order.
func (s *MarketService) Improve(marketID, orderID int64) error {
	o, err := s.order(marketID, orderID)
	if err != nil {
		return err
	}
	req, err := request.ImproveOrder(o, s.improveTick)
	if err != nil {
		return err
	}
	return s.sender.Send(req)
}

// ActAs switches identity locally and tells the venue. Requests already sent are unaffected.
func (s *MarketService) ActAs(userID string) error {
	if err := s.sender.Send(request.BuildActAs(userID)); err != nil {
		return err
	}
	s.store.SetActingAs(userID)
	return nil
}

// RenderDepth writes a depth chart PNG for the market.
func (s *MarketService) RenderDepth(marketID int64, path string, width, height int) error {
	detail, err := s.Market(marketID)
	if err != nil {
		return err
	}
	return chart.SavePNG(chart.RenderDepth(detail.Book, width, height), path)
}

// Changes returns a channel that receives a signal after every mirror change.
// Signals coalesce: a slow reader sees at most one pending signal.
func (s *MarketService) Changes(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	unsubscribe := s.store.Subscribe(func(mirror.Change) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return ch
}

func (s *MarketService) requireOpen(marketID int64) error {
	m, ok := s.store.Market(marketID)
	if !ok {
		return &domain.UnknownReferenceError{Kind: "market", ID: strconv.FormatInt(marketID, 10)}
	}
	if m.IsSettled() {
		return fmt.Errorf("market %d: %w", marketID, domain.ErrMarketSettled)
	}
	return nil
}

func (s *MarketService) order(marketID, orderID int64) (domain.Order, error) {
	if err := s.requireOpen(marketID); err != nil {
		return domain.Order{}, err
	}
	m, _ := s.store.Market(marketID)
	i := m.OrderIndex(orderID)
	if i < 0 {
		return domain.Order{}, &domain.UnknownReferenceError{Kind: "order", ID: strconv.FormatInt(orderID, 10)}
	}
	return m.Orders[i], nil
}
