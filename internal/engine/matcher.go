package engine

import (
	"fmt"

	"github.com/efreitasn/limitbook/internal/domain"
)

// SubmitRequest describes a new order. ID is optional; the book assigns one
// when it is empty. Price is ignored for market orders.
type SubmitRequest struct {
	ID       domain.OrderID
	Side     domain.Side
	Type     domain.OrderType
	Price    int64
	Quantity int64
}

// Submit validates an order, matches it against the opposite side and rests
// any limit remainder. It returns the order's ID once accepted; executions
// are reported through the execution history.
//
// A rejected submission is recorded in the error history and leaves the
// book untouched.
func (ob *OrderBook) Submit(req SubmitRequest) (domain.OrderID, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order := &domain.Order{
		ID:                req.ID,
		Side:              req.Side,
		Type:              req.Type,
		Price:             req.Price,
		OriginalQuantity:  req.Quantity,
		RemainingQuantity: req.Quantity,
	}
	if order.Type == domain.OrderTypeMarket {
		order.Price = 0
	}

	if err := ob.validate(order); err != nil {
		ob.reject(domain.OpSubmit, *order, err)
		return "", err
	}

	if order.ID == "" {
		order.ID = ob.newID()
		for ob.index[order.ID] != nil {
			order.ID = ob.newID()
		}
	}

	ob.accept(order, domain.SubmissionNew)
	return order.ID, nil
}

func (ob *OrderBook) validate(o *domain.Order) error {
	if !o.Side.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("side must be 'buy' or 'sell', got %q", o.Side)}
	}
	if !o.Type.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("type must be 'limit' or 'market', got %q", o.Type)}
	}
	if o.OriginalQuantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be greater than 0"}
	}
	if o.Type == domain.OrderTypeLimit && o.Price <= 0 {
		return &domain.ValidationError{Message: "price must be greater than 0 for limit orders"}
	}
	if o.ID != "" {
		if _, exists := ob.index[o.ID]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOrderID, o.ID)
		}
	}
	return nil
}

// accept stamps the order with a fresh sequence value, records it and runs
// it through the matching algorithm.
func (ob *OrderBook) accept(order *domain.Order, kind domain.SubmissionKind) {
	order.SubmittedAt = ob.seq.Next()
	ob.submissions.Append(domain.Submission{
		Seq:   order.SubmittedAt,
		Kind:  kind,
		Order: *order,
	})

	ob.match(order)
	ob.rest(order)
}

// match trades the incoming order against the opposite side in price-time
// priority until it is filled, the opposite side runs out, or (for limit
// orders) the best opposite price no longer crosses.
func (ob *OrderBook) match(order *domain.Order) {
	opposite := ob.side(order.Side.Opposite())

	for order.RemainingQuantity > 0 {
		level, ok := opposite.Best()
		if !ok {
			break
		}
		if !crosses(order, level.Price) {
			break
		}

		resting := level.Front()
		qty := min(order.RemainingQuantity, resting.RemainingQuantity)

		order.Fill(qty)
		level.Fill(resting, qty)

		// Maker price: the trade prints at the resting order's price.
		exec := domain.Execution{
			Seq:      ob.seq.Next(),
			Price:    level.Price,
			Quantity: qty,
		}
		if order.Side == domain.SideBuy {
			exec.BuyOrderID, exec.SellOrderID = order.ID, resting.ID
		} else {
			exec.BuyOrderID, exec.SellOrderID = resting.ID, order.ID
		}
		ob.executions.Append(exec)

		if resting.Filled() {
			opposite.Remove(resting)
			delete(ob.index, resting.ID)
		}
	}
}

func crosses(order *domain.Order, price int64) bool {
	switch {
	case order.Type == domain.OrderTypeMarket:
		return true
	case order.Side == domain.SideBuy:
		return order.Price >= price
	default:
		return order.Price <= price
	}
}

// rest places a limit remainder at the back of its price level. Market
// orders never rest: their remainder is discarded and recorded.
func (ob *OrderBook) rest(order *domain.Order) {
	if order.Filled() {
		return
	}

	if order.Type == domain.OrderTypeMarket {
		err := fmt.Errorf("%w: %d of %d discarded, no more liquidity",
			domain.ErrUnfilledMarketOrder, order.RemainingQuantity, order.OriginalQuantity)
		ob.reject(domain.OpSubmit, *order, err)
		order.RemainingQuantity = 0
		return
	}

	ob.side(order.Side).Insert(order)
	ob.index[order.ID] = order
}

// Update changes the price and/or quantity of a resting order. newQuantity
// is the new remaining quantity.
//
// A quantity decrease at an unchanged price keeps the order's place in its
// queue. A price change or quantity increase re-enters the order as a new
// submission behind everything already resting, and it may trade
// immediately.
func (ob *OrderBook) Update(id domain.OrderID, newPrice, newQuantity *int64) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.index[id]
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		ob.reject(domain.OpUpdate, domain.Order{ID: id}, err)
		return err
	}

	var err error
	switch {
	case newPrice == nil && newQuantity == nil:
		err = &domain.ValidationError{Message: "update must set a price or a quantity"}
	case newQuantity != nil && *newQuantity <= 0:
		err = &domain.ValidationError{Message: "quantity must be greater than 0"}
	case newPrice != nil && *newPrice <= 0:
		err = &domain.ValidationError{Message: "price must be greater than 0"}
	}
	if err != nil {
		ob.reject(domain.OpUpdate, *order, err)
		return err
	}

	price, qty := order.Price, order.RemainingQuantity
	if newPrice != nil {
		price = *newPrice
	}
	if newQuantity != nil {
		qty = *newQuantity
	}

	side := ob.side(order.Side)
	switch {
	case price == order.Price && qty == order.RemainingQuantity:
		return nil
	case price == order.Price && qty < order.RemainingQuantity:
		side.Resize(order, qty)
		return nil
	}

	side.Remove(order)
	delete(ob.index, order.ID)

	// Growing the order grows its audit quantity so that filled+remaining
	// never exceeds it.
	if qty > order.RemainingQuantity {
		order.OriginalQuantity += qty - order.RemainingQuantity
	}
	order.Price = price
	order.RemainingQuantity = qty

	ob.accept(order, domain.SubmissionAmend)
	return nil
}

// Cancel removes a resting order from the book.
func (ob *OrderBook) Cancel(id domain.OrderID) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.index[id]
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		ob.reject(domain.OpCancel, domain.Order{ID: id}, err)
		return err
	}

	ob.side(order.Side).Remove(order)
	delete(ob.index, id)
	return nil
}

// Reject records a request that failed before reaching the book, such as a
// price that could not be converted to ticks.
func (ob *OrderBook) Reject(op domain.Operation, order domain.Order, err error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.reject(op, order, err)
}

func (ob *OrderBook) reject(op domain.Operation, order domain.Order, err error) {
	ob.rejections.Append(domain.Rejection{
		Seq:       ob.seq.Next(),
		Operation: op,
		OrderID:   order.ID,
		Order:     order,
		Code:      domain.ErrorCode(err),
		Reason:    err.Error(),
	})
}
