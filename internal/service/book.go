package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/efreitasn/limitbook/internal/engine"
)

// BookPriceLevel represents an aggregated price level in a book view.
type BookPriceLevel struct {
	Price         decimal.Decimal
	TotalQuantity int64
	OrderCount    int
}

// BookView is the top of the book in decimal prices.
type BookView struct {
	Bids    []BookPriceLevel
	Asks    []BookPriceLevel
	BestBid *decimal.Decimal // nil if the side is empty
	BestAsk *decimal.Decimal // nil if the side is empty
	Spread  *decimal.Decimal // nil if either side is empty
}

// OrderView is a resting order with its price in decimal form.
type OrderView struct {
	ID                domain.OrderID
	Side              domain.Side
	Type              domain.OrderType
	Price             decimal.Decimal
	OriginalQuantity  int64
	RemainingQuantity int64
	FilledQuantity    int64
	SubmittedAt       uint64
}

// GetBook returns up to depth price levels per side.
func (s *OrderService) GetBook(depth int) (*BookView, error) {
	if depth < 1 {
		return nil, &domain.ValidationError{
			Message: "depth must be at least 1",
		}
	}

	snap := s.book.Snapshot(depth)
	view := &BookView{
		Bids: s.levels(snap.Bids),
		Asks: s.levels(snap.Asks),
	}

	if len(snap.Bids) > 0 {
		view.BestBid = &view.Bids[0].Price
	}
	if len(snap.Asks) > 0 {
		view.BestAsk = &view.Asks[0].Price
	}
	// Spread = best ask - best bid (nil if either side empty).
	if view.BestBid != nil && view.BestAsk != nil {
		spread := view.BestAsk.Sub(*view.BestBid)
		view.Spread = &spread
	}
	return view, nil
}

func (s *OrderService) levels(in []engine.Level) []BookPriceLevel {
	out := make([]BookPriceLevel, len(in))
	for i, l := range in {
		out[i] = BookPriceLevel{
			Price:         domain.FromTicks(l.Price, s.tick),
			TotalQuantity: l.Quantity,
			OrderCount:    l.OrderCount,
		}
	}
	return out
}

// GetOrder returns a resting order.
func (s *OrderService) GetOrder(id string) (*OrderView, error) {
	o, ok := s.book.Order(domain.OrderID(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return &OrderView{
		ID:                o.ID,
		Side:              o.Side,
		Type:              o.Type,
		Price:             domain.FromTicks(o.Price, s.tick),
		OriginalQuantity:  o.OriginalQuantity,
		RemainingQuantity: o.RemainingQuantity,
		FilledQuantity:    o.FilledQuantity,
		SubmittedAt:       o.SubmittedAt,
	}, nil
}

// Executions returns the full execution history with decimal prices.
func (s *OrderService) Executions() []ExecutionView {
	execs := s.book.ExecutionHistory()
	out := make([]ExecutionView, len(execs))
	for i, e := range execs {
		out[i] = ExecutionView{
			Seq:         e.Seq,
			BuyOrderID:  e.BuyOrderID,
			SellOrderID: e.SellOrderID,
			Price:       domain.FromTicks(e.Price, s.tick),
			Quantity:    e.Quantity,
		}
	}
	return out
}

// ExecutionView is an execution with its price in decimal form.
type ExecutionView struct {
	Seq         uint64
	BuyOrderID  domain.OrderID
	SellOrderID domain.OrderID
	Price       decimal.Decimal
	Quantity    int64
}
