package bourse

type TradeRepository interface {
	Store(trade Trade) error
	GetByID(id uint64) (Trade, error)
}

var NOPTradeRepository = &nopTradeRepository{}

type nopTradeRepository struct {
}

func (n *nopTradeRepository) Store(trade Trade) error {
	return nil
}

func (n *nopTradeRepository) GetByID(id uint64) (Trade, error) {
	return Trade{}, nil
}
