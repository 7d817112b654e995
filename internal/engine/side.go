package engine

import (
	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/google/btree"
)

// Level is an aggregated view of one price level.
type Level struct {
	Price      int64
	Quantity   int64
	OrderCount int
}

// bidLess orders bid levels by price descending, so Min() is the best bid.
func bidLess(a, b *PriceLevel) bool {
	return a.Price > b.Price
}

// askLess orders ask levels by price ascending, so Min() is the best ask.
func askLess(a, b *PriceLevel) bool {
	return a.Price < b.Price
}

// BookSide holds every non-empty price level of one side of the book: a map
// for O(1) lookup by price and a B-tree ordered best price first.
type BookSide struct {
	side   domain.Side
	levels map[int64]*PriceLevel
	prices *btree.BTreeG[*PriceLevel]
	count  int
}

func newBookSide(side domain.Side) *BookSide {
	const degree = 32
	less := askLess
	if side == domain.SideBuy {
		less = bidLess
	}
	return &BookSide{
		side:   side,
		levels: make(map[int64]*PriceLevel),
		prices: btree.NewG[*PriceLevel](degree, less),
	}
}

// Side returns which side of the book this is.
func (s *BookSide) Side() domain.Side {
	return s.side
}

// Best returns the level with the most favourable price.
func (s *BookSide) Best() (*PriceLevel, bool) {
	return s.prices.Min()
}

// Level returns the level at price, if any orders rest there.
func (s *BookSide) Level(price int64) (*PriceLevel, bool) {
	l, ok := s.levels[price]
	return l, ok
}

// Insert appends the order to the back of its price level, creating and
// registering the level when it is the first order at that price.
func (s *BookSide) Insert(o *domain.Order) {
	l, ok := s.levels[o.Price]
	if !ok {
		l = newPriceLevel(o.Price)
		s.levels[o.Price] = l
		s.prices.ReplaceOrInsert(l)
	}
	l.PushBack(o)
	s.count++
}

// Remove takes the order out of its level and drops the level once empty.
func (s *BookSide) Remove(o *domain.Order) bool {
	l, ok := s.levels[o.Price]
	if !ok {
		return false
	}
	if _, ok := l.Remove(o.ID); !ok {
		return false
	}
	s.count--
	if l.Empty() {
		delete(s.levels, l.Price)
		s.prices.Delete(l)
	}
	return true
}

// Resize changes a resting order's quantity in place.
func (s *BookSide) Resize(o *domain.Order, qty int64) bool {
	l, ok := s.levels[o.Price]
	if !ok {
		return false
	}
	return l.Resize(o.ID, qty)
}

// Walk visits levels best price first until fn returns false.
func (s *BookSide) Walk(fn func(*PriceLevel) bool) {
	s.prices.Ascend(fn)
}

// Depth returns up to n aggregated levels, best price first.
func (s *BookSide) Depth(n int) []Level {
	if n <= 0 {
		return nil
	}
	levels := make([]Level, 0, min(n, s.prices.Len()))
	s.prices.Ascend(func(l *PriceLevel) bool {
		if len(levels) >= n {
			return false
		}
		levels = append(levels, Level{
			Price:      l.Price,
			Quantity:   l.TotalQuantity(),
			OrderCount: l.Len(),
		})
		return true
	})
	return levels
}

// Len returns the number of resting orders.
func (s *BookSide) Len() int {
	return s.count
}

// LevelCount returns the number of distinct prices.
func (s *BookSide) LevelCount() int {
	return s.prices.Len()
}

// Empty reports whether no orders rest on this side.
func (s *BookSide) Empty() bool {
	return s.prices.Len() == 0
}
