package mirror

import (
	"testing"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func drawEvent(t *rapid.T) event.ServerEvent {
	marketID := rapid.Int64Range(1, 3).Draw(t, "market")
	orderID := rapid.Int64Range(1, 5).Draw(t, "order")
	owner := rapid.SampledFrom([]string{"A", "B", "C"}).Draw(t, "owner")
	switch rapid.IntRange(0, 4).Draw(t, "kind") {
	case 0:
		return &event.MarketCreated{ID: marketID, Name: "m", OwnerID: owner}
	case 1:
		side := rapid.SampledFrom([]domain.Side{domain.SideBid, domain.SideOffer}).Draw(t, "side")
		p := decimal.NewFromInt(rapid.Int64Range(0, 100).Draw(t, "price"))
		return &event.OrderCreated{MarketID: marketID, UserID: owner, Order: &domain.Order{
			ID: orderID, OwnerID: owner, Side: side, Price: &p,
			Size: decimal.NewFromInt(rapid.Int64Range(0, 10).Draw(t, "size")),
		}}
	case 2:
		return &event.OrderCancelled{ID: orderID, MarketID: marketID}
	case 3:
		return &event.Out{MarketID: marketID, OwnerID: owner}
	default:
		return &event.MarketSettled{ID: marketID, SettlePrice: decimal.NewFromInt(50)}
	}
}

func TestProperty_DuplicateMarketCreatedIsNoop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState()
		n := rapid.IntRange(0, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			Apply(s, drawEvent(t))
		}
		id := rapid.Int64Range(1, 3).Draw(t, "dupID")
		Apply(s, &event.MarketCreated{ID: id, Name: "first"})

		before := s.Clone()
		out := Apply(s, &event.MarketCreated{ID: id, Name: "second", OwnerID: "Z"})
		require.False(t, out.Changed)
		if diff := cmp.Diff(before, s, decimalComparer); diff != "" {
			t.Fatalf("duplicate marketCreated changed state (-before +after):\n%s", diff)
		}
	})
}

func TestProperty_OrderIDsUniquePerMarket(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState()
		n := rapid.IntRange(0, 60).Draw(t, "n")
		for i := 0; i < n; i++ {
			Apply(s, drawEvent(t))
		}
		for id, m := range s.Markets {
			seen := make(map[int64]bool)
			for _, o := range m.Orders {
				require.Falsef(t, seen[o.ID], "market %d holds order %d twice", id, o.ID)
				seen[o.ID] = true
				require.Equal(t, id, o.MarketID)
			}
		}
	})
}
