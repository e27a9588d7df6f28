// Package notify decides which events the local actor should be told about.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"
	"tradedesk/internal/mirror"
	"tradedesk/internal/view"

	"github.com/shopspring/decimal"
)

// Classify returns the notification ev produces for actorID, if any.
// s must be the mirror as it was before ev is applied.
func Classify(ev event.ServerEvent, actorID string, s *mirror.State) (domain.Notification, bool) {
	var (
		n  domain.Notification
		ok bool
	)

	switch e := ev.(type) {
	case *event.MarketCreated:
		if _, exists := s.Market(e.ID); !exists && is(actorID, e.OwnerID) {
			n, ok = success("Market created", e.Name), true
		}
	case *event.MarketSettled:
		n, ok = marketSettled(e, actorID, s)
	case *event.OrderCancelled:
		if _, open := s.BookMarket(e.MarketID); !open {
			break
		}
		if o, found := s.FindOrder(e.MarketID, e.ID); found && is(actorID, o.OwnerID) {
			n, ok = success("Order cancelled", fmt.Sprintf("Order %d in %s", e.ID, marketName(s, e.MarketID))), true
		}
	case *event.OrderCreated:
		if _, open := s.BookMarket(orderMarketID(e)); open && is(actorID, e.UserID) {
			n, ok = orderCreated(e), true
		}
	case *event.PaymentCreated:
		n, ok = paymentCreated(e, actorID, s)
	case *event.Ownership:
		if is(actorID, e.NewOwnerID) {
			n, ok = info("Ownership received", "You now own "+s.UserName(e.OfBotID)), true
		}
	case *event.OwnershipGiven:
		if is(actorID, e.PriorOwnerID) {
			n, ok = success("Ownership given",
				fmt.Sprintf("%s now belongs to %s", s.UserName(e.OfBotID), s.UserName(e.NewOwnerID))), true
		}
	case *event.Out:
		if _, open := s.BookMarket(e.MarketID); open && is(actorID, e.OwnerID) {
			n, ok = success("Orders cancelled", "All your orders in "+marketName(s, e.MarketID)), true
		}
	case *event.RequestFailed:
		// Failures are delivered only to the requesting connection.
		if e.RequestDetails.UserID == "" || is(actorID, e.RequestDetails.UserID) {
			n = domain.Notification{
				Severity:    domain.SeverityError,
				Title:       e.RequestDetails.Kind + " failed",
				Description: "Reason: " + e.ErrorDetails.Message,
			}
			ok = true
		}
	}

	if !ok {
		return domain.Notification{}, false
	}
	n.ActorID = actorID
	n.Kind = ev.GetType().String()
	if ts := ev.GetTs(); ts != 0 {
		n.At = time.UnixMicro(ts)
	}
	return n, true
}

// is reports whether id names the actor. An empty actor matches nothing.
func is(actorID, id string) bool {
	return actorID != "" && id == actorID
}

func success(title, desc string) domain.Notification {
	return domain.Notification{Severity: domain.SeveritySuccess, Title: title, Description: desc}
}

func info(title, desc string) domain.Notification {
	return domain.Notification{Severity: domain.SeverityInfo, Title: title, Description: desc}
}

func marketName(s *mirror.State, id int64) string {
	if m, ok := s.Market(id); ok && m.Name != "" {
		return m.Name
	}
	return "market " + strconv.FormatInt(id, 10)
}

func marketSettled(e *event.MarketSettled, actorID string, s *mirror.State) (domain.Notification, bool) {
	m, ok := s.Market(e.ID)
	if !ok {
		slog.Warn("Settlement for unknown market", slog.Int64("market_id", e.ID))
		return domain.Notification{}, false
	}
	if m.IsSettled() {
		return domain.Notification{}, false
	}
	desc := fmt.Sprintf("%s settled at %s", marketName(s, e.ID), FormatNumber(e.SettlePrice))
	if is(actorID, m.OwnerID) {
		return success("Market settled", desc), true
	}
	return info("Market settled", desc), true
}

// orderMarketID resolves the market the same way the reducer does.
func orderMarketID(e *event.OrderCreated) int64 {
	if e.MarketID == 0 && e.Order != nil {
		return e.Order.MarketID
	}
	return e.MarketID
}

func orderCreated(e *event.OrderCreated) domain.Notification {
	if len(e.Fills) == 0 {
		return success("Order created", "")
	}
	title := "Order filled"
	if e.Order != nil {
		title = "Order partially filled"
	}
	desc := ""
	if agg, ok := view.FillAggregate(e.Fills); ok {
		desc = fmt.Sprintf("filled %s @ %s", FormatNumber(agg.TotalSize), FormatNumber(agg.VWAP))
	}
	return success(title, desc)
}

func paymentCreated(e *event.PaymentCreated, actorID string, s *mirror.State) (domain.Notification, bool) {
	isPayer := is(actorID, e.PayerID)
	isRecipient := is(actorID, e.RecipientID)
	if !isPayer && !isRecipient {
		return domain.Notification{}, false
	}

	payer, okPayer := s.User(e.PayerID)
	recipient, okRecipient := s.User(e.RecipientID)
	if !okPayer || !okRecipient {
		slog.Warn("Payment references unknown user",
			slog.String("payer_id", e.PayerID),
			slog.String("recipient_id", e.RecipientID))
		return domain.Notification{}, false
	}

	amount := FormatNumber(e.Amount)
	if isPayer {
		return success("Payment created", fmt.Sprintf("You paid %s %s", displayName(recipient), amount)), true
	}
	return info("Payment created", fmt.Sprintf("%s paid you %s", displayName(payer), amount)), true
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// FormatNumber renders integral values without decimals and everything else with two.
func FormatNumber(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.Truncate(0).String()
	}
	return d.StringFixed(2)
}
