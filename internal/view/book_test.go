package view

import (
	"testing"

	"tradedesk/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func market(orders ...domain.Order) domain.Market {
	return domain.Market{
		ID:            1,
		Open:          true,
		MinSettlement: decimal.Zero,
		MaxSettlement: domain.DefaultMaxSettlement,
		Orders:        orders,
	}
}

func TestBook_TopOfBook(t *testing.T) {
	m := market(
		domain.Order{ID: 1, OwnerID: "A", Side: domain.SideBid, Price: price(10), Size: dec(5)},
		domain.Order{ID: 2, OwnerID: "B", Side: domain.SideOffer, Price: price(12), Size: dec(3)},
	)
	v := Book(m)

	if !v.BestBid.Equal(dec(10)) {
		t.Errorf("Expected best bid 10, got %s", v.BestBid)
	}
	if !v.BestOffer.Equal(dec(12)) {
		t.Errorf("Expected best offer 12, got %s", v.BestOffer)
	}
	if !v.Mid.Equal(dec(11)) {
		t.Errorf("Expected mid 11, got %s", v.Mid)
	}
}

func TestBook_EmptyBookUsesBounds(t *testing.T) {
	v := Book(market())
	if !v.BestBid.IsZero() {
		t.Errorf("Expected best bid 0, got %s", v.BestBid)
	}
	if !v.BestOffer.Equal(domain.DefaultMaxSettlement) {
		t.Errorf("Expected best offer %s, got %s", domain.DefaultMaxSettlement, v.BestOffer)
	}
	if !v.Mid.Equal(domain.DefaultMaxSettlement.Div(dec(2))) {
		t.Errorf("Expected mid at half the max bound, got %s", v.Mid)
	}
}

func TestBook_Clamping(t *testing.T) {
	m := market(
		domain.Order{ID: 1, Side: domain.SideBid, Price: price(2), Size: dec(1)},
		domain.Order{ID: 2, Side: domain.SideOffer, Price: price(200), Size: dec(1)},
	)
	m.MinSettlement = dec(5)
	m.MaxSettlement = dec(100)

	v := Book(m)
	if !v.BestBid.Equal(dec(5)) {
		t.Errorf("Expected best bid clamped to 5, got %s", v.BestBid)
	}
	if !v.BestOffer.Equal(dec(100)) {
		t.Errorf("Expected best offer clamped to 100, got %s", v.BestOffer)
	}
}

func TestBook_SortingAndFiltering(t *testing.T) {
	m := market(
		domain.Order{ID: 1, Side: domain.SideBid, Price: price(9), Size: dec(1)},
		domain.Order{ID: 2, Side: domain.SideBid, Price: price(10), Size: dec(1)},
		domain.Order{ID: 3, Side: domain.SideBid, Price: price(9), Size: dec(1)},
		domain.Order{ID: 4, Side: domain.SideBid, Size: dec(1)},
		domain.Order{ID: 5, Side: domain.SideBid, Price: price(50), Size: dec(0)},
		domain.Order{ID: 6, Side: domain.SideOffer, Price: price(14), Size: dec(1)},
		domain.Order{ID: 7, Side: domain.SideOffer, Price: price(12), Size: dec(1)},
		domain.Order{ID: 8, Side: domain.SideOffer, Price: price(14), Size: dec(1)},
		domain.Order{ID: 9, Side: domain.SideOffer, Price: price(11), Size: dec(-1)},
	)
	v := Book(m)

	ids := func(orders []domain.Order) []int64 {
		out := make([]int64, len(orders))
		for i, o := range orders {
			out[i] = o.ID
		}
		return out
	}

	tests := []struct {
		name string
		got  []int64
		want []int64
	}{
		{"bids descending, ties keep arrival order", ids(v.Bids), []int64{2, 1, 3}},
		{"offers ascending, ties keep arrival order", ids(v.Offers), []int64{7, 6, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, tt.got)
			}
			for i := range tt.want {
				if tt.got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, tt.got)
					break
				}
			}
		})
	}
}

func TestBook_DoesNotAliasMarket(t *testing.T) {
	m := market(domain.Order{ID: 1, Side: domain.SideBid, Price: price(10), Size: dec(5)})
	v := Book(m)
	*v.Bids[0].Price = dec(99)
	if !m.Orders[0].Price.Equal(dec(10)) {
		t.Errorf("Expected market price untouched, got %s", m.Orders[0].Price)
	}
}

func TestFillAggregate(t *testing.T) {
	tests := []struct {
		name      string
		fills     []domain.Fill
		wantOK    bool
		wantTotal decimal.Decimal
		wantVWAP  decimal.Decimal
	}{
		{"none", nil, false, decimal.Zero, decimal.Zero},
		{"zero size", []domain.Fill{{Price: dec(10), SizeFilled: dec(0)}}, false, decimal.Zero, decimal.Zero},
		{"single", []domain.Fill{{Price: dec(10), SizeFilled: dec(4)}}, true, dec(4), dec(10)},
		{"weighted", []domain.Fill{
			{Price: dec(10), SizeFilled: dec(1)},
			{Price: dec(13), SizeFilled: dec(2)},
		}, true, dec(3), dec(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, ok := FillAggregate(tt.fills)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !agg.TotalSize.Equal(tt.wantTotal) {
				t.Errorf("Expected total %s, got %s", tt.wantTotal, agg.TotalSize)
			}
			if ok && !agg.VWAP.Equal(tt.wantVWAP) {
				t.Errorf("Expected vwap %s, got %s", tt.wantVWAP, agg.VWAP)
			}
		})
	}
}

func TestOpenMarkets(t *testing.T) {
	markets := []domain.Market{
		{ID: 3, Open: true},
		{ID: 1, Open: true},
		{ID: 2, Closed: &domain.Settlement{SettlePrice: dec(1)}},
	}
	got := OpenMarkets(markets)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Expected markets [1 3], got %+v", got)
	}
}
