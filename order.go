package bourse

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd"
)

type OrderSide byte

const (
	SideBuy OrderSide = iota
	SideSell
)

func (s OrderSide) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// Order is a single trading intent, resting on a book or entering one.
// Partial fills advance FilledQty on a replaced copy; ID and Sequence never
// change, so time priority survives a partial fill.
type Order struct {
	ID         uint64
	Trader     string
	Instrument string
	Side       OrderSide
	Qty        int64
	FilledQty  int64
	Price      apd.Decimal
	Sequence   uint64 // assigned by the book at admission, lower matches first among equal prices
	Timestamp  time.Time
}

func (o Order) IsBid() bool {
	return o.Side == SideBuy
}

func (o Order) IsFilled() bool {
	return o.FilledQty == o.Qty
}

func (o Order) UnfilledQty() int64 {
	return o.Qty - o.FilledQty
}

// fill records traded quantity. Filling past Qty means the matching loop is
// unsound, which we refuse to paper over.
func (o *Order) fill(qty int64) {
	o.FilledQty += qty
	if o.FilledQty > o.Qty {
		panic(fmt.Errorf("order %d overfilled: %d of %d", o.ID, o.FilledQty, o.Qty))
	}
}

func (o Order) String() string {
	return fmt.Sprintf("[order %d: %s %s %d %s @ %s]", o.ID, o.Trader, o.Side, o.UnfilledQty(), o.Instrument, o.Price.String())
}

// OrderTracker is the sorting key held in book containers: the limit price
// projected to a float64 for cheap tree comparisons and the admission
// sequence as the time-priority tiebreak. Crossing checks during matching
// always go through the decimal price on the order itself.
type OrderTracker struct {
	OrderID  uint64
	Price    float64
	Sequence uint64
	Side     OrderSide
}
