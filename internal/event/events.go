package event

import (
	"tradedesk/internal/domain"

	"github.com/shopspring/decimal"
)

// Type defines the kind of a server event.
type Type uint16

const (
	EvUnknown Type = iota
	EvMarketCreated
	EvMarketSettled
	EvOrderCreated
	EvOrderCancelled
	EvOut
	EvPaymentCreated
	EvOwnership
	EvOwnershipGiven
	EvRequestFailed
	EvUsers
	EvUserCreated
	EvActingAs
	EvMarkets
	EvSessionReset
)

var typeNames = map[Type]string{
	EvUnknown:        "unknown",
	EvMarketCreated:  "marketCreated",
	EvMarketSettled:  "marketSettled",
	EvOrderCreated:   "orderCreated",
	EvOrderCancelled: "orderCancelled",
	EvOut:            "out",
	EvPaymentCreated: "paymentCreated",
	EvOwnership:      "ownership",
	EvOwnershipGiven: "ownershipGiven",
	EvRequestFailed:  "requestFailed",
	EvUsers:          "users",
	EvUserCreated:    "userCreated",
	EvActingAs:       "actingAs",
	EvMarkets:        "markets",
	EvSessionReset:   "sessionReset",
}

// String returns the wire key of the event type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ServerEvent is the interface for all inbound venue events.
type ServerEvent interface {
	GetSeq() uint64
	GetTs() int64
	GetType() Type
	Stamp(seq uint64, ts int64)
}

// BaseEvent carries the local receive sequence and time (unix micros).
// They are assigned by the transport, not sent by the server.
type BaseEvent struct {
	Seq uint64 `json:"-"`
	Ts  int64  `json:"-"`
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }
func (e *BaseEvent) GetTs() int64   { return e.Ts }

// Stamp records the receive sequence and time.
func (e *BaseEvent) Stamp(seq uint64, ts int64) {
	e.Seq = seq
	e.Ts = ts
}

// MarketCreated announces a new market. Zero-valued bounds fall back to defaults.
type MarketCreated struct {
	BaseEvent
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	OwnerID       string           `json:"ownerId"`
	MinSettlement *decimal.Decimal `json:"minSettlement,omitempty"`
	MaxSettlement *decimal.Decimal `json:"maxSettlement,omitempty"`
}

func (e *MarketCreated) GetType() Type { return EvMarketCreated }

// MarketSettled closes a market at its settlement price.
type MarketSettled struct {
	BaseEvent
	ID          int64           `json:"id"`
	SettlePrice decimal.Decimal `json:"settlePrice"`
}

func (e *MarketSettled) GetType() Type { return EvMarketSettled }

// OrderCreated reports a new or updated order and the fills it produced.
// Order is nil when nothing rests on the book.
type OrderCreated struct {
	BaseEvent
	MarketID int64         `json:"marketId"`
	UserID   string        `json:"userId"`
	Order    *domain.Order `json:"order,omitempty"`
	Fills    []domain.Fill `json:"fills,omitempty"`
}

func (e *OrderCreated) GetType() Type { return EvOrderCreated }

// OrderCancelled removes one order.
type OrderCancelled struct {
	BaseEvent
	ID       int64 `json:"id"`
	MarketID int64 `json:"marketId"`
}

func (e *OrderCancelled) GetType() Type { return EvOrderCancelled }

// Out confirms the server cancelled all of OwnerID's orders in a market.
type Out struct {
	BaseEvent
	MarketID int64  `json:"marketId"`
	OwnerID  string `json:"ownerId"`
}

func (e *Out) GetType() Type { return EvOut }

// PaymentCreated reports a transfer between users.
type PaymentCreated struct {
	BaseEvent
	domain.Payment
}

func (e *PaymentCreated) GetType() Type { return EvPaymentCreated }

// Ownership tells the new owner they control a bot.
type Ownership struct {
	BaseEvent
	OfBotID    string `json:"ofBotId"`
	NewOwnerID string `json:"newOwnerId"`
}

func (e *Ownership) GetType() Type { return EvOwnership }

// OwnershipGiven tells the prior owner a bot was handed over.
type OwnershipGiven struct {
	BaseEvent
	OfBotID      string `json:"ofBotId"`
	NewOwnerID   string `json:"newOwnerId"`
	PriorOwnerID string `json:"priorOwnerId"`
}

func (e *OwnershipGiven) GetType() Type { return EvOwnershipGiven }

// RequestDetails names the request the server declined.
type RequestDetails struct {
	Kind   string `json:"kind"`
	UserID string `json:"userId,omitempty"`
}

// ErrorDetails carries the server's reason.
type ErrorDetails struct {
	Message string `json:"message"`
}

// RequestFailed reports a server-side rejection.
type RequestFailed struct {
	BaseEvent
	RequestDetails RequestDetails `json:"requestDetails"`
	ErrorDetails   ErrorDetails   `json:"errorDetails"`
}

func (e *RequestFailed) GetType() Type { return EvRequestFailed }

// Users replaces the known user list, sent on connect.
type Users struct {
	BaseEvent
	Users []domain.User `json:"users"`
}

func (e *Users) GetType() Type { return EvUsers }

// UserCreated adds or renames one user.
type UserCreated struct {
	BaseEvent
	domain.User
}

func (e *UserCreated) GetType() Type { return EvUserCreated }

// ActingAs confirms the identity the session now represents.
type ActingAs struct {
	BaseEvent
	UserID string `json:"userId"`
}

func (e *ActingAs) GetType() Type { return EvActingAs }

// Markets is the initial market snapshot sent on connect.
type Markets struct {
	BaseEvent
	Markets []domain.Market `json:"markets"`
}

func (e *Markets) GetType() Type { return EvMarkets }

// SessionReset is queued by the transport each time a connection opens,
// ahead of any frame read on it. The server never sends it.
type SessionReset struct {
	BaseEvent
}

func (e *SessionReset) GetType() Type { return EvSessionReset }

// Unknown is any event kind this client does not recognize.
type Unknown struct {
	BaseEvent
	Name string `json:"-"`
}

func (e *Unknown) GetType() Type { return EvUnknown }
