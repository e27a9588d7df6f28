// Package request builds outbound client requests. Builders are pure: no I/O, no state.
package request

import (
	"math"
	"strings"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/shopspring/decimal"
)

// BuildCreateOrder validates and builds a createOrder request.
// size must be positive, price non-negative, both finite.
func BuildCreateOrder(marketID int64, size, price float64, side domain.Side) (event.ClientRequest, error) {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return event.ClientRequest{}, &domain.ValidationError{Field: "size", Reason: "must be a finite number"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return event.ClientRequest{}, &domain.ValidationError{Field: "price", Reason: "must be a finite number"}
	}
	return createOrder(marketID, decimal.NewFromFloat(size), decimal.NewFromFloat(price), side)
}

// ParseCreateOrder builds a createOrder request from form text.
func ParseCreateOrder(marketID int64, sizeText, priceText, sideText string) (event.ClientRequest, error) {
	size, err := decimal.NewFromString(strings.TrimSpace(sizeText))
	if err != nil {
		return event.ClientRequest{}, &domain.ValidationError{Field: "size", Reason: "not a number"}
	}
	price, err := decimal.NewFromString(strings.TrimSpace(priceText))
	if err != nil {
		return event.ClientRequest{}, &domain.ValidationError{Field: "price", Reason: "not a number"}
	}
	side, err := domain.ParseSide(sideText)
	if err != nil {
		return event.ClientRequest{}, err
	}
	return createOrder(marketID, size, price, side)
}

func createOrder(marketID int64, size, price decimal.Decimal, side domain.Side) (event.ClientRequest, error) {
	if !size.IsPositive() {
		return event.ClientRequest{}, &domain.ValidationError{Field: "size", Reason: "must be greater than 0"}
	}
	if price.IsNegative() {
		return event.ClientRequest{}, &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if side != domain.SideBid && side != domain.SideOffer {
		return event.ClientRequest{}, &domain.ValidationError{Field: "side", Reason: "must be BID or OFFER"}
	}
	return event.ClientRequest{CreateOrder: &event.CreateOrder{
		MarketID: marketID,
		Size:     size,
		Price:    price,
		Side:     side,
	}}, nil
}

// BuildCancelAll cancels all of the sender's orders in a market.
func BuildCancelAll(marketID int64) event.ClientRequest {
	return event.ClientRequest{Out: &event.OutRequest{MarketID: marketID}}
}

func BuildCancelOrder(marketID, orderID int64) event.ClientRequest {
	return event.ClientRequest{CancelOrder: &event.CancelOrder{MarketID: marketID, ID: orderID}}
}

func BuildActAs(userID string) event.ClientRequest {
	return event.ClientRequest{ActAs: &event.ActAs{UserID: userID}}
}

// BuildAuthenticate is sent first on every new connection.
func BuildAuthenticate(token, actAs string) event.ClientRequest {
	return event.ClientRequest{Authenticate: &event.Authenticate{Token: token, ActAs: actAs}}
}

// TakeOrder crosses a resting order: opposite side at its price and size.
func TakeOrder(o domain.Order) (event.ClientRequest, error) {
	if !o.HasPrice() {
		return event.ClientRequest{}, &domain.ValidationError{Field: "price", Reason: "order has no price to take"}
	}
	return createOrder(o.MarketID, o.Size, *o.Price, o.Side.Opposite())
}

// ImproveOrder joins the same side one tick better than o.
func ImproveOrder(o domain.Order, tick decimal.Decimal) (event.ClientRequest, error) {
	if !o.HasPrice() {
		return event.ClientRequest{}, &domain.ValidationError{Field: "price", Reason: "order has no price to improve"}
	}
	if !tick.IsPositive() {
		return event.ClientRequest{}, &domain.ValidationError{Field: "tick", Reason: "must be greater than 0"}
	}
	p := o.Price.Add(tick)
	if o.Side == domain.SideOffer {
		p = o.Price.Sub(tick)
	}
	return createOrder(o.MarketID, o.Size, p, o.Side)
}
