package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side of an order on the book.
type Side string

const (
	SideBid   Side = "BID"
	SideOffer Side = "OFFER"
)

// ParseSide accepts "bid"/"offer" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBid:
		return SideBid, nil
	case SideOffer:
		return SideOffer, nil
	default:
		return "", &ValidationError{Field: "side", Reason: fmt.Sprintf("unknown side %q", s)}
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideOffer
	}
	return SideBid
}

// Fill is one execution against an order. Immutable once appended.
type Fill struct {
	OrderID    int64           `json:"orderId,omitempty"` // resting order that was hit, 0 if not reported
	Price      decimal.Decimal `json:"price"`
	SizeFilled decimal.Decimal `json:"sizeFilled"`
}

// Order is a resting order as last reported by the server.
// Price nil means no limit price was given.
type Order struct {
	ID       int64            `json:"id"`
	MarketID int64            `json:"marketId"`
	OwnerID  string           `json:"ownerId"`
	Side     Side             `json:"side"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Size     decimal.Decimal  `json:"size"`
	Fills    []Fill           `json:"fills,omitempty"`
}

// HasPrice reports whether the order carries a limit price.
func (o *Order) HasPrice() bool {
	return o.Price != nil
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() Order {
	c := *o
	if o.Price != nil {
		p := *o.Price
		c.Price = &p
	}
	if o.Fills != nil {
		c.Fills = append([]Fill(nil), o.Fills...)
	}
	return c
}
