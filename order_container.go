package bourse

import (
	"log"

	"github.com/igrmk/treemap/v2"
)

// function that compares two OrderTrackers and returns true if a sorts before b
type LessFunc func(a, b OrderTracker) bool

// FIFO within a price level - https://corporatefinanceinstitute.com/resources/knowledge/trading-investing/matching-orders/
func makeComparator(priceDescending bool) LessFunc {
	const (
		ascending  bool = true
		descending bool = false
	)
	sort := ascending
	if priceDescending {
		sort = descending
	}
	return func(a, b OrderTracker) bool {
		priceCmp := a.Price - b.Price // compare prices
		if priceCmp == 0 {            // if prices are equal, the earlier admission matches first
			return a.Sequence < b.Sequence
		}
		if priceCmp < 0 { // if a price is less than b return true if ascending, false if descending
			return sort
		}
		return !sort // if a price is bigger than b return false if ascending, true if descending
	}
}

type orderMap = treemap.TreeMap[OrderTracker, struct{}]

type orderContainer struct {
	Bids, Asks *orderMap
	trackers   map[uint64]OrderTracker
}

func NewOrderContainer(bidLess, askLess LessFunc) *orderContainer {
	return &orderContainer{
		Bids:     treemap.NewWithKeyCompare[OrderTracker, struct{}](bidLess),
		Asks:     treemap.NewWithKeyCompare[OrderTracker, struct{}](askLess),
		trackers: make(map[uint64]OrderTracker),
	}
}

func (o *orderContainer) Add(tracker OrderTracker) {
	if tracker.Side == SideBuy {
		o.Bids.Set(tracker, struct{}{})
	} else {
		o.Asks.Set(tracker, struct{}{})
	}
	o.trackers[tracker.OrderID] = tracker
}

func (o *orderContainer) Remove(id uint64) {
	tracker, ok := o.trackers[id]
	if !ok {
		log.Printf("cannot remove order: no tracker for id %d", id)
		return
	}
	delete(o.trackers, id)
	if tracker.Side == SideBuy {
		o.Bids.Del(tracker)
	} else {
		o.Asks.Del(tracker)
	}
}

func (o *orderContainer) Get(id uint64) (OrderTracker, bool) {
	t, ok := o.trackers[id]
	return t, ok
}

func (o *orderContainer) Iterator(side OrderSide) treemap.ForwardIterator[OrderTracker, struct{}] {
	if side == SideBuy {
		return o.Bids.Iterator()
	}
	return o.Asks.Iterator()
}

func (o *orderContainer) Len(side OrderSide) int {
	if side == SideBuy {
		return o.Bids.Len()
	}
	return o.Asks.Len()
}
