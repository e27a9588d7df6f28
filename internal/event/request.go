package event

import (
	"tradedesk/internal/domain"

	"github.com/shopspring/decimal"
)

// ClientRequest is an outbound message. Exactly one field is set.
type ClientRequest struct {
	CreateOrder  *CreateOrder  `json:"createOrder,omitempty"`
	Out          *OutRequest   `json:"out,omitempty"`
	CancelOrder  *CancelOrder  `json:"cancelOrder,omitempty"`
	ActAs        *ActAs        `json:"actAs,omitempty"`
	Authenticate *Authenticate `json:"authenticate,omitempty"`
}

// CreateOrder places an order.
type CreateOrder struct {
	MarketID int64           `json:"marketId"`
	Size     decimal.Decimal `json:"size"`
	Price    decimal.Decimal `json:"price"`
	Side     domain.Side     `json:"side"`
}

// OutRequest cancels all of the sender's orders in a market.
type OutRequest struct {
	MarketID int64 `json:"marketId"`
}

// CancelOrder cancels one order.
type CancelOrder struct {
	MarketID int64 `json:"marketId"`
	ID       int64 `json:"id"`
}

// ActAs switches the identity the session represents.
type ActAs struct {
	UserID string `json:"userId"`
}

// Authenticate is the first frame on a new connection.
type Authenticate struct {
	Token string `json:"jwt"`
	ActAs string `json:"actAs,omitempty"`
}

// Kind returns the wire key of the populated field.
func (r ClientRequest) Kind() string {
	switch {
	case r.CreateOrder != nil:
		return "createOrder"
	case r.Out != nil:
		return "out"
	case r.CancelOrder != nil:
		return "cancelOrder"
	case r.ActAs != nil:
		return "actAs"
	case r.Authenticate != nil:
		return "authenticate"
	default:
		return ""
	}
}
