package bourse

type OrderCallbackFunc func(order Order)

func (f OrderCallbackFunc) Execute(order Order) {
	f(order)
}

type TradeCallbackFunc func(trade Trade)

func (f TradeCallbackFunc) Execute(trade Trade) {
	f(trade)
}

type OrderCallback interface {
	Execute(order Order)
}

type TradeCallback interface {
	Execute(trade Trade)
}
