package bourse

import "sync"

// TradeBook is the append-only execution ledger for one instrument.
type TradeBook struct {
	Instrument string

	trades     []Trade
	lastID     uint64
	tradeMutex sync.RWMutex
}

func NewTradeBook(instrument string) *TradeBook {
	return &TradeBook{
		Instrument: instrument,
		trades:     make([]Trade, 0, 1024),
	}
}

// Enter appends a trade, stamping it with the next match sequence. The
// stamped trade is returned to the caller.
func (t *TradeBook) Enter(trade Trade) Trade {
	t.tradeMutex.Lock()
	defer t.tradeMutex.Unlock()

	t.lastID += 1
	trade.ID = t.lastID
	t.trades = append(t.trades, trade)
	return trade
}

func (t *TradeBook) Len() int {
	t.tradeMutex.RLock()
	defer t.tradeMutex.RUnlock()
	return len(t.trades)
}

// Trades returns a copy of the ledger in execution order.
func (t *TradeBook) Trades() []Trade {
	t.tradeMutex.RLock()
	defer t.tradeMutex.RUnlock()

	tradesCopy := make([]Trade, len(t.trades))
	copy(tradesCopy, t.trades)
	return tradesCopy
}
