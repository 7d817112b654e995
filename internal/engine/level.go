package engine

import (
	"container/list"

	"github.com/efreitasn/limitbook/internal/domain"
)

// PriceLevel is the FIFO queue of resting orders at one exact price. The
// linked list keeps arrival order; the index gives O(1) access to any order
// in it by ID.
type PriceLevel struct {
	Price int64

	orders *list.List // of *domain.Order, oldest first
	index  map[domain.OrderID]*list.Element
	total  int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		orders: list.New(),
		index:  make(map[domain.OrderID]*list.Element),
	}
}

// PushBack appends an order at the back of the queue.
func (l *PriceLevel) PushBack(o *domain.Order) {
	l.index[o.ID] = l.orders.PushBack(o)
	l.total += o.RemainingQuantity
}

// Front returns the earliest-submitted order, or nil if the level is empty.
func (l *PriceLevel) Front() *domain.Order {
	e := l.orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*domain.Order)
}

// Remove takes an order out of the queue by ID.
func (l *PriceLevel) Remove(id domain.OrderID) (*domain.Order, bool) {
	e, ok := l.index[id]
	if !ok {
		return nil, false
	}
	delete(l.index, id)
	o := l.orders.Remove(e).(*domain.Order)
	l.total -= o.RemainingQuantity
	return o, true
}

// Fill executes qty against an order in the level without moving it.
func (l *PriceLevel) Fill(o *domain.Order, qty int64) {
	o.Fill(qty)
	l.total -= qty
}

// Resize sets an order's remaining quantity in place, keeping its position.
func (l *PriceLevel) Resize(id domain.OrderID, qty int64) bool {
	e, ok := l.index[id]
	if !ok {
		return false
	}
	o := e.Value.(*domain.Order)
	l.total += qty - o.RemainingQuantity
	o.RemainingQuantity = qty
	return true
}

// Contains reports whether the order is queued at this level.
func (l *PriceLevel) Contains(id domain.OrderID) bool {
	_, ok := l.index[id]
	return ok
}

// Walk visits orders oldest first until fn returns false.
func (l *PriceLevel) Walk(fn func(*domain.Order) bool) {
	for e := l.orders.Front(); e != nil; e = e.Next() {
		if !fn(e.Value.(*domain.Order)) {
			return
		}
	}
}

// Len returns the number of orders queued.
func (l *PriceLevel) Len() int {
	return l.orders.Len()
}

// Empty reports whether no orders are queued.
func (l *PriceLevel) Empty() bool {
	return l.orders.Len() == 0
}

// TotalQuantity returns the summed remaining quantity of the queued orders.
func (l *PriceLevel) TotalQuantity() int64 {
	return l.total
}
