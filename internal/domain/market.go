package domain

import "github.com/shopspring/decimal"

// DefaultMaxSettlement is the upper settlement bound used when a market does not set one.
var DefaultMaxSettlement = decimal.NewFromInt(1_000_000_000_000)

// Settlement is the terminal state of a market.
type Settlement struct {
	SettlePrice decimal.Decimal `json:"settlePrice"`
}

// Market is the mirrored state of one venue market.
// Orders keeps server arrival order; entries are appended or replaced in place, never reordered.
type Market struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	OwnerID       string          `json:"ownerId"`
	Open          bool            `json:"open"`
	Closed        *Settlement     `json:"closed,omitempty"`
	MinSettlement decimal.Decimal `json:"minSettlement"`
	MaxSettlement decimal.Decimal `json:"maxSettlement"`
	Orders        []Order         `json:"orders"`
}

// IsSettled reports whether the market reached its terminal state.
func (m *Market) IsSettled() bool {
	return m.Closed != nil
}

// OrderIndex returns the position of the order with the given id, or -1.
func (m *Market) OrderIndex(orderID int64) int {
	for i := range m.Orders {
		if m.Orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to readers outside the writer goroutine.
func (m *Market) Clone() Market {
	c := *m
	if m.Closed != nil {
		closed := *m.Closed
		c.Closed = &closed
	}
	c.Orders = make([]Order, len(m.Orders))
	for i := range m.Orders {
		c.Orders[i] = m.Orders[i].Clone()
	}
	return c
}
