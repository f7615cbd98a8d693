package bourse

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/apd"
)

const (
	MinQty = 1
)

var (
	// ErrInvalidOrder is the root of the validation taxonomy; every rejection
	// unwraps to it via errors.Is.
	ErrInvalidOrder = errors.New("invalid order")
	ErrInvalidQty   = fmt.Errorf("%w: quantity has to be at least %d", ErrInvalidOrder, MinQty)
	ErrInvalidPrice = fmt.Errorf("%w: limit price has to be positive", ErrInvalidOrder)

	BaseContext = apd.Context{
		Precision:   0,               // no rounding
		MaxExponent: apd.MaxExponent, // up to 10^5 exponent
		MinExponent: apd.MinExponent, // support only 4 decimal places
		Traps:       apd.DefaultTraps,
	}

	// totalContext has enough digits for any qty * price product this engine admits.
	totalContext = apd.Context{
		Precision:   38,
		MaxExponent: apd.MaxExponent,
		MinExponent: apd.MinExponent,
		Traps:       apd.DefaultTraps,
	}
)

// Order book contains all resting orders for an instrument, handles matching and storage of orders and subsequent trades.
type OrderBook struct {
	Instrument string // instrument name

	marketPrice      apd.Decimal // last execution price
	marketPriceMutex sync.RWMutex

	tradeBook *TradeBook // trade book ptr

	orderRepo    OrderRepository  // persistent order storage
	activeOrders map[uint64]Order // quick order retrieval by ID

	orders *orderContainer // contains all orders sorted by our preferences

	sequences *atomic.Uint64 // admission sequence source, shared across an exchange

	orderMutex sync.RWMutex
	matchMutex sync.Mutex // ensures insert + match runs as one atomic step per book
}

// Create a new order book. The sequence counter is shared by every book of an
// exchange so admission order is comparable across instruments.
func NewOrderBook(instrument string, marketPrice apd.Decimal, tradeBook *TradeBook, orderRepo OrderRepository, sequences *atomic.Uint64) *OrderBook {
	bidLess := makeComparator(true)
	askLess := makeComparator(false)
	return &OrderBook{
		Instrument:   instrument,
		marketPrice:  marketPrice,
		tradeBook:    tradeBook,
		orderRepo:    orderRepo,
		activeOrders: make(map[uint64]Order),
		orders:       NewOrderContainer(bidLess, askLess),
		sequences:    sequences,
	}
}

// Get all bids ordered the same way they are matched.
func (o *OrderBook) GetBids() []Order {
	o.orderMutex.RLock()
	defer o.orderMutex.RUnlock()
	orders := make([]Order, 0, o.orders.Len(SideBuy))
	for iter := o.orders.Iterator(SideBuy); iter.Valid(); iter.Next() {
		orders = append(orders, o.activeOrders[iter.Key().OrderID])
	}
	return orders
}

// Get all asks ordered the same way they are matched.
func (o *OrderBook) GetAsks() []Order {
	o.orderMutex.RLock()
	defer o.orderMutex.RUnlock()
	orders := make([]Order, 0, o.orders.Len(SideSell))
	for iter := o.orders.Iterator(SideSell); iter.Valid(); iter.Next() {
		orders = append(orders, o.activeOrders[iter.Key().OrderID])
	}
	return orders
}

// Get the market price.
func (o *OrderBook) MarketPrice() apd.Decimal {
	o.marketPriceMutex.RLock()
	defer o.marketPriceMutex.RUnlock()
	return o.marketPrice
}

// Set the market price.
func (o *OrderBook) SetMarketPrice(price apd.Decimal) {
	o.marketPriceMutex.Lock()
	defer o.marketPriceMutex.Unlock()
	o.marketPrice = price
}

// Get an order from activeOrders map.
func (o *OrderBook) getActiveOrder(id uint64) (Order, bool) {
	o.orderMutex.RLock()
	defer o.orderMutex.RUnlock()
	order, ok := o.activeOrders[id]
	return order, ok
}

// Insert an order in activeOrders map.
func (o *OrderBook) setActiveOrder(order Order) error {
	o.orderMutex.Lock()
	defer o.orderMutex.Unlock()
	if _, ok := o.activeOrders[order.ID]; ok {
		return fmt.Errorf("order with ID %d already exists", order.ID)
	}
	o.activeOrders[order.ID] = order
	return nil
}

// Add an order to books - make it matchable against other orders.
func (o *OrderBook) addToBooks(order Order) error {
	price, err := order.Price.Float64() // tree ordering only, crossing checks stay decimal
	if err != nil {
		return err
	}
	tracker := OrderTracker{
		Price:    price,
		Sequence: order.Sequence,
		OrderID:  order.ID,
		Side:     order.Side,
	}

	o.orderMutex.Lock()
	o.orders.Add(tracker) // enter pointer to the tree
	o.orderMutex.Unlock()
	if err := o.setActiveOrder(order); err != nil {
		o.orderMutex.Lock()
		o.orders.Remove(order.ID)
		o.orderMutex.Unlock()
		return err
	}
	return o.orderRepo.Save(order)
}

// Update an active order.
func (o *OrderBook) updateActiveOrder(order Order) error {
	o.orderMutex.Lock()
	defer o.orderMutex.Unlock()
	if _, ok := o.activeOrders[order.ID]; !ok {
		return fmt.Errorf("order with ID %d hasn't yet been saved", order.ID)
	}
	o.activeOrders[order.ID] = order
	return o.orderRepo.Save(order)
}

// Removes an order from books - removes it from possible matches.
func (o *OrderBook) removeFromBooks(orderID uint64) {
	order, ok := o.getActiveOrder(orderID)
	if !ok {
		return
	}
	if err := o.orderRepo.Save(order); err != nil { // ensure we store the latest order data
		log.Printf("cannot save the order %d to the repo - repository data might be inconsistent", order.ID)
	}

	o.orderMutex.Lock()
	o.orders.Remove(orderID)
	delete(o.activeOrders, orderID) // remove an active order
	o.orderMutex.Unlock()
}

// Add a new limit order. The validation, the matching drain and the insertion
// of any unfilled remainder happen under one lock: no other submission on
// this book can observe the order inserted but not yet matched. Returns the
// trades produced by this call only.
func (o *OrderBook) Add(order Order) ([]Trade, error) {
	if order.Qty < MinQty { // check the qty
		return nil, ErrInvalidQty
	}
	if order.Price.Negative || order.Price.IsZero() {
		return nil, ErrInvalidPrice
	}
	o.matchMutex.Lock()
	defer o.matchMutex.Unlock()
	order.Sequence = o.sequences.Add(1)
	return o.submit(order)
}

// submit an order for matching and store any unfilled remainder.
func (o *OrderBook) submit(order Order) ([]Trade, error) {
	var trades []Trade
	var err error

	if order.IsBid() {
		// order is a bid, match with asks
		trades, err = o.matchOrder(&order, o.orders.Asks)
	} else {
		// order is an ask, match with bids
		trades, err = o.matchOrder(&order, o.orders.Bids)
	}
	if err != nil {
		return trades, err
	}

	if !order.IsFilled() {
		if err := o.addToBooks(order); err != nil {
			return trades, err
		}
	}
	return trades, nil
}

// match an order against resting offers on the opposite side. The resting
// order arrived first - its sequence is lower - so it sets the execution
// price. The drain stops as soon as the incoming order no longer crosses the
// best opposite price, which keeps the book uncrossed at rest.
func (o *OrderBook) matchOrder(order *Order, offers *orderMap) ([]Trade, error) {
	var trades []Trade

	var buyer, seller string
	var bidOrderID, askOrderID uint64
	buying := order.IsBid()
	if buying {
		buyer = order.Trader
		bidOrderID = order.ID
	} else {
		seller = order.Trader
		askOrderID = order.ID
	}

	removeOrders := make([]uint64, 0)

	defer func() {
		for _, orderID := range removeOrders {
			o.removeFromBooks(orderID)
		}
	}()

	for iter := offers.Iterator(); iter.Valid(); iter.Next() {
		oppositeTracker := iter.Key()
		oppositeOrder, ok := o.getActiveOrder(oppositeTracker.OrderID)
		if !ok {
			panic("should NEVER happen - tracker exists but active order does not")
		}

		if buying {
			if order.Price.Cmp(&oppositeOrder.Price) < 0 {
				break // best ask is above our bid, the remaining asks are higher still
			}
		} else {
			if order.Price.Cmp(&oppositeOrder.Price) > 0 {
				break // best bid is below our ask, the remaining bids are lower still
			}
		}

		qty := min(order.UnfilledQty(), oppositeOrder.UnfilledQty())
		price := oppositeOrder.Price // the resting side sets the price

		if buying {
			seller = oppositeOrder.Trader
			askOrderID = oppositeOrder.ID
		} else {
			buyer = oppositeOrder.Trader
			bidOrderID = oppositeOrder.ID
		}

		order.fill(qty)
		oppositeOrder.fill(qty)

		trade := Trade{
			Buyer:      buyer,
			Seller:     seller,
			Instrument: o.Instrument,
			Qty:        qty,
			Price:      price,
			Timestamp:  time.Now(),
			BidOrderID: bidOrderID,
			AskOrderID: askOrderID,
		}
		if _, err := totalContext.Mul(&trade.Total, &trade.Price, apd.New(qty, 0)); err != nil {
			return trades, err
		}
		trade = o.tradeBook.Enter(trade)
		trades = append(trades, trade)
		o.SetMarketPrice(price)

		if oppositeOrder.IsFilled() { // if the other order is filled completely - remove it from the order book
			removeOrders = append(removeOrders, oppositeOrder.ID)
		} else {
			if err := o.updateActiveOrder(oppositeOrder); err != nil { // otherwise update it
				return trades, err
			}
		}
		if order.IsFilled() {
			return trades, nil
		}
	}
	return trades, nil
}
