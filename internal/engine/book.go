package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/efreitasn/limitbook/internal/sequence"
	"github.com/efreitasn/limitbook/internal/store"
)

// Sequencer supplies the monotonic values used for time priority and for
// stamping history entries.
type Sequencer interface {
	Next() uint64
}

// Option configures an OrderBook.
type Option func(*OrderBook)

// WithSequencer replaces the default sequencer, which starts at zero.
func WithSequencer(seq Sequencer) Option {
	return func(ob *OrderBook) {
		ob.seq = seq
	}
}

// WithIDGenerator sets how IDs are assigned to submissions that arrive
// without one. The default generates random UUIDs.
func WithIDGenerator(fn func() domain.OrderID) Option {
	return func(ob *OrderBook) {
		ob.newID = fn
	}
}

// OrderBook is the matching engine for a single instrument. Every mutating
// operation runs to completion under the write lock, so callers from many
// goroutines are linearized into one mutation stream.
type OrderBook struct {
	mu    sync.RWMutex
	bids  *BookSide
	asks  *BookSide
	index map[domain.OrderID]*domain.Order // resting orders only

	seq   Sequencer
	newID func() domain.OrderID

	submissions *store.Log[domain.Submission]
	executions  *store.Log[domain.Execution]
	rejections  *store.Log[domain.Rejection]
}

// NewOrderBook creates an empty order book.
func NewOrderBook(opts ...Option) *OrderBook {
	ob := &OrderBook{
		bids:        newBookSide(domain.SideBuy),
		asks:        newBookSide(domain.SideSell),
		index:       make(map[domain.OrderID]*domain.Order),
		seq:         sequence.New(0),
		newID:       func() domain.OrderID { return domain.OrderID(uuid.New().String()) },
		submissions: store.NewLog[domain.Submission](),
		executions:  store.NewLog[domain.Execution](),
		rejections:  store.NewLog[domain.Rejection](),
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

func (ob *OrderBook) side(s domain.Side) *BookSide {
	if s == domain.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// BestBid returns the highest resting buy price.
func (ob *OrderBook) BestBid() (int64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	l, ok := ob.bids.Best()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// BestAsk returns the lowest resting sell price.
func (ob *OrderBook) BestAsk() (int64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	l, ok := ob.asks.Best()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// Depth returns up to levels aggregated price levels of one side, best
// price first.
func (ob *OrderBook) Depth(side domain.Side, levels int) []Level {
	if !side.Valid() {
		return nil
	}
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.side(side).Depth(levels)
}

// BookSnapshot is an immutable copy of the top of both sides.
type BookSnapshot struct {
	Bids []Level
	Asks []Level
}

// Snapshot copies up to levels price levels of each side under a single
// read lock, so both sides reflect the same point between operations.
func (ob *OrderBook) Snapshot(levels int) BookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return BookSnapshot{
		Bids: ob.bids.Depth(levels),
		Asks: ob.asks.Depth(levels),
	}
}

// Order returns a copy of a resting order.
func (ob *OrderBook) Order(id domain.OrderID) (domain.Order, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	o, ok := ob.index[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// Orders returns copies of the resting orders of one side in matching
// priority: best price first, then earliest submission.
func (ob *OrderBook) Orders(side domain.Side) []domain.Order {
	if !side.Valid() {
		return nil
	}
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	s := ob.side(side)
	result := make([]domain.Order, 0, s.Len())
	s.Walk(func(l *PriceLevel) bool {
		l.Walk(func(o *domain.Order) bool {
			result = append(result, *o)
			return true
		})
		return true
	})
	return result
}

// Len returns the number of resting bids and asks.
func (ob *OrderBook) Len() (bids, asks int) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.bids.Len(), ob.asks.Len()
}

// The history accessors take the read lock so a drain never splits the
// entries produced by one operation.

// DrainSubmissions returns the submissions recorded since the last call.
func (ob *OrderBook) DrainSubmissions() []domain.Submission {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.submissions.Drain()
}

// DrainExecutions returns the executions recorded since the last call.
func (ob *OrderBook) DrainExecutions() []domain.Execution {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.executions.Drain()
}

// DrainErrors returns the rejections recorded since the last call.
func (ob *OrderBook) DrainErrors() []domain.Rejection {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.rejections.Drain()
}

// SubmissionHistory returns every submission recorded so far.
func (ob *OrderBook) SubmissionHistory() []domain.Submission {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.submissions.All()
}

// ExecutionHistory returns every execution recorded so far, in the order
// the trades happened.
func (ob *OrderBook) ExecutionHistory() []domain.Execution {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.executions.All()
}

// ErrorHistory returns every rejection recorded so far.
func (ob *OrderBook) ErrorHistory() []domain.Rejection {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return ob.rejections.All()
}
