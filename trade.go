package bourse

import (
	"time"

	"github.com/cockroachdb/apd"
)

// Trade represents two opposed matched orders. It is created only as a side
// effect of matching and never mutated afterwards.
type Trade struct {
	ID            uint64 // match sequence, assigned by the trade book
	Buyer, Seller string
	Instrument    string
	Qty           int64
	Price         apd.Decimal
	Total         apd.Decimal
	Timestamp     time.Time

	BidOrderID uint64
	AskOrderID uint64
}
