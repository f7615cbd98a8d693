package bourse

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/apd"
)

// Exchange owns one order book per instrument and is the sole entry point for
// order submission. An unknown instrument is not an error: the first order
// naming it creates its book.
type Exchange struct {
	books     map[string]*OrderBook
	bookMutex sync.RWMutex

	orderIDs  atomic.Uint64
	sequences atomic.Uint64

	orderRepo OrderRepository
	tradeRepo TradeRepository

	callbackMutex  sync.RWMutex
	orderCallbacks []OrderCallback
	tradeCallbacks []TradeCallback
}

func NewExchange(orderRepo OrderRepository, tradeRepo TradeRepository) *Exchange {
	return &Exchange{
		books:     make(map[string]*OrderBook),
		orderRepo: orderRepo,
		tradeRepo: tradeRepo,
	}
}

// OnOrderAdmitted registers a callback fired for every admitted order, after
// the matching critical section.
func (e *Exchange) OnOrderAdmitted(cb OrderCallback) {
	e.callbackMutex.Lock()
	defer e.callbackMutex.Unlock()
	e.orderCallbacks = append(e.orderCallbacks, cb)
}

// OnTradeExecuted registers a callback fired for every executed trade, after
// the matching critical section.
func (e *Exchange) OnTradeExecuted(cb TradeCallback) {
	e.callbackMutex.Lock()
	defer e.callbackMutex.Unlock()
	e.tradeCallbacks = append(e.tradeCallbacks, cb)
}

// SubmitOrder validates and admits a limit order, matches it against the
// instrument's book and returns the trades produced by this call only.
//
// Concurrent submissions on one instrument are serialized by that book alone,
// so the net effect is equivalent to some serial order of the same calls;
// submissions on unrelated instruments do not contend.
func (e *Exchange) SubmitOrder(trader, instrument string, side OrderSide, qty int64, price apd.Decimal) ([]Trade, error) {
	if qty < MinQty {
		return nil, ErrInvalidQty
	}
	if price.Negative || price.IsZero() {
		return nil, ErrInvalidPrice
	}

	order := Order{
		ID:         e.orderIDs.Add(1),
		Trader:     trader,
		Instrument: instrument,
		Side:       side,
		Qty:        qty,
		Price:      price,
		Timestamp:  time.Now(),
	}

	trades, err := e.book(instrument).Add(order)
	if err != nil {
		return trades, err
	}

	// observers and trade storage run outside the book lock
	e.notifyOrder(order)
	for _, trade := range trades {
		if err := e.tradeRepo.Store(trade); err != nil {
			return trades, err
		}
		e.notifyTrade(trade)
	}
	return trades, nil
}

// Book returns the instrument's order book, creating an empty one on first touch.
func (e *Exchange) Book(instrument string) *OrderBook {
	return e.book(instrument)
}

// Trades returns the instrument's execution ledger in match order. An
// instrument without a book has no trades.
func (e *Exchange) Trades(instrument string) []Trade {
	e.bookMutex.RLock()
	book, ok := e.books[instrument]
	e.bookMutex.RUnlock()
	if !ok {
		return nil
	}
	return book.tradeBook.Trades()
}

// Instruments lists every instrument with a book, sorted.
func (e *Exchange) Instruments() []string {
	e.bookMutex.RLock()
	defer e.bookMutex.RUnlock()
	instruments := make([]string, 0, len(e.books))
	for instrument := range e.books {
		instruments = append(instruments, instrument)
	}
	sort.Strings(instruments)
	return instruments
}

func (e *Exchange) book(instrument string) *OrderBook {
	e.bookMutex.RLock()
	book, ok := e.books[instrument]
	e.bookMutex.RUnlock()
	if ok {
		return book
	}

	e.bookMutex.Lock()
	defer e.bookMutex.Unlock()
	if book, ok := e.books[instrument]; ok { // lost the create race
		return book
	}
	book = NewOrderBook(instrument, apd.Decimal{}, NewTradeBook(instrument), e.orderRepo, &e.sequences)
	e.books[instrument] = book
	return book
}

func (e *Exchange) notifyOrder(order Order) {
	e.callbackMutex.RLock()
	defer e.callbackMutex.RUnlock()
	for _, cb := range e.orderCallbacks {
		cb.Execute(order)
	}
}

func (e *Exchange) notifyTrade(trade Trade) {
	e.callbackMutex.RLock()
	defer e.callbackMutex.RUnlock()
	for _, cb := range e.tradeCallbacks {
		cb.Execute(trade)
	}
}
