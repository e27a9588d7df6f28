package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarket_Clone(t *testing.T) {
	price := decimal.NewFromInt(10)
	m := Market{
		ID:     1,
		Name:   "RAIN",
		Closed: &Settlement{SettlePrice: decimal.NewFromInt(3)},
		Orders: []Order{{
			ID:    7,
			Side:  SideBid,
			Price: &price,
			Size:  decimal.NewFromInt(2),
			Fills: []Fill{{Price: price, SizeFilled: decimal.NewFromInt(1)}},
		}},
	}

	c := m.Clone()

	*c.Orders[0].Price = decimal.NewFromInt(99)
	c.Orders[0].Fills[0].SizeFilled = decimal.NewFromInt(50)
	c.Closed.SettlePrice = decimal.NewFromInt(0)

	if !m.Orders[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Clone shares price pointer: got %s", m.Orders[0].Price)
	}
	if !m.Orders[0].Fills[0].SizeFilled.Equal(decimal.NewFromInt(1)) {
		t.Error("Clone shares fills backing array")
	}
	if !m.Closed.SettlePrice.Equal(decimal.NewFromInt(3)) {
		t.Error("Clone shares settlement")
	}
}

func TestMarket_OrderIndex(t *testing.T) {
	m := Market{Orders: []Order{{ID: 3}, {ID: 5}}}

	if m.OrderIndex(5) != 1 {
		t.Errorf("Expected index 1, got %d", m.OrderIndex(5))
	}
	if m.OrderIndex(9) != -1 {
		t.Errorf("Expected -1 for missing order, got %d", m.OrderIndex(9))
	}
	if m.IsSettled() {
		t.Error("Market without Closed should not be settled")
	}
}
