package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"
	"tradedesk/internal/mirror"

	"github.com/shopspring/decimal"
)

type fakeSender struct {
	sent []event.ClientRequest
	err  error
}

func (f *fakeSender) Send(req event.ClientRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func order(id int64, owner string, side domain.Side, price, size int64) *domain.Order {
	p := decimal.NewFromInt(price)
	return &domain.Order{ID: id, OwnerID: owner, Side: side, Price: &p, Size: decimal.NewFromInt(size)}
}

func setupService(t *testing.T) (*MarketService, *mirror.Store, *fakeSender) {
	t.Helper()
	store := mirror.NewStore()
	store.Apply(&event.Users{Users: []domain.User{{ID: "A", Name: "alice"}, {ID: "B", Name: "bob"}}})
	store.Apply(&event.MarketCreated{ID: 2, Name: "Snow", OwnerID: "B"})
	store.Apply(&event.MarketCreated{ID: 1, Name: "Rain", OwnerID: "A"})
	store.Apply(&event.MarketCreated{ID: 3, Name: "Hail", OwnerID: "A"})
	store.Apply(&event.MarketSettled{ID: 3, SettlePrice: decimal.NewFromInt(1)})
	store.Apply(&event.OrderCreated{MarketID: 1, Order: order(1, "A", domain.SideBid, 10, 5)})
	store.Apply(&event.OrderCreated{MarketID: 1, Order: order(2, "B", domain.SideOffer, 12, 3)})
	store.SetActingAs("A")

	sender := &fakeSender{}
	return NewMarketService(store, sender, decimal.NewFromInt(1)), store, sender
}

func TestMarketService_OpenMarkets(t *testing.T) {
	svc, _, _ := setupService(t)

	markets := svc.OpenMarkets()
	if len(markets) != 2 {
		t.Fatalf("Expected 2 open markets, got %d", len(markets))
	}
	if markets[0].ID != 1 || markets[1].ID != 2 {
		t.Errorf("Expected markets sorted by id, got %d, %d", markets[0].ID, markets[1].ID)
	}
	rain := markets[0]
	if !rain.Mine || rain.OwnerName != "alice" {
		t.Errorf("Expected Rain owned by alice and mine, got %+v", rain)
	}
	if !rain.Mid.Equal(decimal.NewFromInt(11)) {
		t.Errorf("Expected mid 11, got %s", rain.Mid)
	}
	if markets[1].Mine {
		t.Error("Expected Snow not mine")
	}
}

func TestMarketService_Market(t *testing.T) {
	svc, _, _ := setupService(t)

	detail, err := svc.Market(1)
	if err != nil {
		t.Fatalf("Market failed: %v", err)
	}
	if len(detail.Bids) != 1 || !detail.Bids[0].Mine || detail.Bids[0].OwnerName != "alice" {
		t.Errorf("Unexpected bids %+v", detail.Bids)
	}
	if len(detail.Offers) != 1 || detail.Offers[0].Mine {
		t.Errorf("Unexpected offers %+v", detail.Offers)
	}

	if _, err := svc.Market(99); !errors.Is(err, domain.ErrUnknownReference) {
		t.Errorf("Expected ErrUnknownReference, got %v", err)
	}
}

func TestMarketService_Intents(t *testing.T) {
	svc, store, sender := setupService(t)

	if err := svc.PlaceOrder(1, "2", "11", "bid"); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if err := svc.PlaceOrder(1, "0", "11", "bid"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if err := svc.PlaceOrder(3, "1", "1", "bid"); !errors.Is(err, domain.ErrMarketSettled) {
		t.Errorf("Expected settled market error, got %v", err)
	}
	if err := svc.Take(1, 2); err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if err := svc.Improve(1, 1); err != nil {
		t.Fatalf("Improve failed: %v", err)
	}
	if err := svc.CancelOrder(1, 1); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if err := svc.CancelOrder(1, 42); !errors.Is(err, domain.ErrUnknownReference) {
		t.Errorf("Expected unknown order, got %v", err)
	}
	if err := svc.CancelAll(1); err != nil {
		t.Fatalf("CancelAll failed: %v", err)
	}
	if err := svc.ActAs("B"); err != nil {
		t.Fatalf("ActAs failed: %v", err)
	}

	kinds := make([]string, len(sender.sent))
	for i, r := range sender.sent {
		kinds[i] = r.Kind()
	}
	want := []string{"createOrder", "createOrder", "createOrder", "cancelOrder", "out", "actAs"}
	if len(kinds) != len(want) {
		t.Fatalf("Expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, kinds)
		}
	}

	take := sender.sent[1].CreateOrder
	if take.Side != domain.SideBid || !take.Price.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected take to bid 12, got %s %s", take.Side, take.Price)
	}
	improve := sender.sent[2].CreateOrder
	if improve.Side != domain.SideBid || !improve.Price.Equal(decimal.NewFromInt(11)) {
		t.Errorf("Expected improve to bid 11, got %s %s", improve.Side, improve.Price)
	}
	if store.ActingAs() != "B" {
		t.Errorf("Expected acting as B, got %s", store.ActingAs())
	}
}

func TestMarketService_ActAsSendFailure(t *testing.T) {
	svc, store, sender := setupService(t)
	sender.err = domain.ErrNotConnected

	if err := svc.ActAs("B"); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if store.ActingAs() != "A" {
		t.Errorf("Expected identity unchanged, got %s", store.ActingAs())
	}
}

func TestMarketService_Changes(t *testing.T) {
	svc, store, _ := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := svc.Changes(ctx)
	store.Apply(&event.OrderCancelled{ID: 1, MarketID: 1})
	store.Apply(&event.OrderCancelled{ID: 2, MarketID: 1})

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("Expected change signal")
	}
}

func TestMarketService_RenderDepth(t *testing.T) {
	svc, _, _ := setupService(t)
	path := filepath.Join(t.TempDir(), "depth.png")

	if err := svc.RenderDepth(1, path, 64, 32); err != nil {
		t.Fatalf("RenderDepth failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected chart file: %v", err)
	}
}
