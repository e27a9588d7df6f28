package view

import (
	"sort"

	"tradedesk/internal/domain"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// BookView is the displayable top of book for one market.
type BookView struct {
	MarketID  int64
	Bids      []domain.Order
	Offers    []domain.Order
	BestBid   decimal.Decimal
	BestOffer decimal.Decimal
	Mid       decimal.Decimal
}

// Book partitions the market's resting orders and derives best prices.
// Orders without a price or with non-positive size are not shown.
// Equal prices keep their arrival order. Best prices are clamped to the
// market's settlement bounds.
func Book(m domain.Market) BookView {
	v := BookView{
		MarketID: m.ID,
		Bids:     []domain.Order{},
		Offers:   []domain.Order{},
	}

	for i := range m.Orders {
		o := &m.Orders[i]
		if !o.HasPrice() || !o.Size.IsPositive() {
			continue
		}
		switch o.Side {
		case domain.SideBid:
			v.Bids = append(v.Bids, o.Clone())
		case domain.SideOffer:
			v.Offers = append(v.Offers, o.Clone())
		}
	}

	sort.SliceStable(v.Bids, func(i, j int) bool {
		return v.Bids[i].Price.GreaterThan(*v.Bids[j].Price)
	})
	sort.SliceStable(v.Offers, func(i, j int) bool {
		return v.Offers[i].Price.LessThan(*v.Offers[j].Price)
	})

	topBid := decimal.Zero
	if len(v.Bids) > 0 {
		topBid = *v.Bids[0].Price
	}
	v.BestBid = decimal.Max(m.MinSettlement, topBid)

	v.BestOffer = m.MaxSettlement
	if len(v.Offers) > 0 {
		v.BestOffer = decimal.Min(m.MaxSettlement, *v.Offers[0].Price)
	}

	v.Mid = v.BestBid.Add(v.BestOffer).Div(two)
	return v
}

// Aggregate sums a list of fills.
type Aggregate struct {
	TotalSize decimal.Decimal
	VWAP      decimal.Decimal
}

// FillAggregate returns total size and volume-weighted price.
// ok is false when the total size is zero.
func FillAggregate(fills []domain.Fill) (Aggregate, bool) {
	total := decimal.Zero
	notional := decimal.Zero
	for _, f := range fills {
		total = total.Add(f.SizeFilled)
		notional = notional.Add(f.Price.Mul(f.SizeFilled))
	}
	if total.IsZero() {
		return Aggregate{TotalSize: total}, false
	}
	return Aggregate{TotalSize: total, VWAP: notional.Div(total)}, true
}

// OpenMarkets returns the markets that are not settled, ordered by id.
func OpenMarkets(markets []domain.Market) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for i := range markets {
		if markets[i].IsSettled() {
			continue
		}
		out = append(out, markets[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
