package bourse

import (
	"testing"

	"github.com/cockroachdb/apd"
)

func TestOrder_Fill(t *testing.T) {
	o := Order{ID: 1, Qty: 10, Price: *apd.New(105, 0), Side: SideBuy}

	o.fill(4)
	if o.UnfilledQty() != 6 {
		t.Errorf("expected unfilled qty 6, got %d", o.UnfilledQty())
	}
	if o.IsFilled() {
		t.Error("order should not be filled yet")
	}

	o.fill(6)
	if !o.IsFilled() {
		t.Error("order should be filled")
	}
	if o.UnfilledQty() != 0 {
		t.Errorf("expected unfilled qty 0, got %d", o.UnfilledQty())
	}
}

func TestOrder_Fill_Overfill(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on overfill")
		}
	}()
	o := Order{ID: 1, Qty: 5}
	o.fill(6)
}

func TestOrderSide_String(t *testing.T) {
	if SideBuy.String() != "BUY" {
		t.Errorf("expected BUY, got %s", SideBuy.String())
	}
	if SideSell.String() != "SELL" {
		t.Errorf("expected SELL, got %s", SideSell.String())
	}
}
