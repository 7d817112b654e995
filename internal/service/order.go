package service

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/efreitasn/limitbook/internal/engine"
	"github.com/efreitasn/limitbook/internal/metrics"
)

// Journal receives drained history. It is satisfied by *journal.Journal.
type Journal interface {
	AppendSubmissions([]domain.Submission) error
	AppendExecutions([]domain.Execution) error
	AppendErrors([]domain.Rejection) error
}

// SubmitOrderRequest represents the input for order submission. Price is a
// decimal string and is ignored for market orders.
type SubmitOrderRequest struct {
	ID       string
	Side     domain.Side
	Type     domain.OrderType
	Price    string
	Quantity int64
}

// UpdateOrderRequest changes the price, the remaining quantity, or both.
type UpdateOrderRequest struct {
	Price    *string
	Quantity *int64
}

// FlushResult counts the history entries handed off by a Flush.
type FlushResult struct {
	Submissions int
	Executions  int
	Errors      int
}

// OrderService translates decimal-priced requests into book operations and
// moves the book's history out to metrics and the journal.
type OrderService struct {
	book    *engine.OrderBook
	tick    decimal.Decimal
	metrics *metrics.Recorder
	journal Journal
	logger  *slog.Logger
}

// NewOrderService creates a new OrderService. journal may be nil.
func NewOrderService(
	book *engine.OrderBook,
	tick decimal.Decimal,
	recorder *metrics.Recorder,
	journal Journal,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		book:    book,
		tick:    tick,
		metrics: recorder,
		journal: journal,
		logger:  logger,
	}
}

// SubmitOrder converts the price to ticks and submits the order to the book.
func (s *OrderService) SubmitOrder(req SubmitOrderRequest) (domain.OrderID, error) {
	var price int64
	if req.Type == domain.OrderTypeLimit {
		var err error
		price, err = s.parsePrice(req.Price)
		if err != nil {
			s.book.Reject(domain.OpSubmit, domain.Order{
				ID:                domain.OrderID(req.ID),
				Side:              req.Side,
				Type:              req.Type,
				OriginalQuantity:  req.Quantity,
				RemainingQuantity: req.Quantity,
			}, err)
			s.logger.Warn("order rejected", "order_id", req.ID, "error", err)
			return "", err
		}
	}

	id, err := s.book.Submit(engine.SubmitRequest{
		ID:       domain.OrderID(req.ID),
		Side:     req.Side,
		Type:     req.Type,
		Price:    price,
		Quantity: req.Quantity,
	})
	if err != nil {
		s.logger.Warn("order rejected",
			"order_id", req.ID,
			"side", req.Side,
			"type", req.Type,
			"error", err,
		)
		return "", err
	}

	s.logger.Debug("order accepted",
		"order_id", id,
		"side", req.Side,
		"type", req.Type,
		"quantity", req.Quantity,
	)
	return id, nil
}

// UpdateOrder amends a resting order.
func (s *OrderService) UpdateOrder(id string, req UpdateOrderRequest) error {
	orderID := domain.OrderID(id)

	var newPrice *int64
	if req.Price != nil {
		p, err := s.parsePrice(*req.Price)
		if err != nil {
			s.book.Reject(domain.OpUpdate, domain.Order{ID: orderID}, err)
			s.logger.Warn("update rejected", "order_id", id, "error", err)
			return err
		}
		newPrice = &p
	}

	before, _ := s.book.Order(orderID)
	if err := s.book.Update(orderID, newPrice, req.Quantity); err != nil {
		s.logger.Warn("update rejected", "order_id", id, "error", err)
		return err
	}

	if kind := amendKind(before, newPrice, req.Quantity); kind != "" {
		s.metrics.Amended(kind)
		s.logger.Debug("order updated", "order_id", id, "kind", kind)
	}
	return nil
}

// amendKind classifies a successful update against the order as it was
// before. It returns "" when nothing changed.
func amendKind(before domain.Order, price, qty *int64) string {
	switch {
	case price != nil && *price != before.Price:
		return "reprice"
	case qty != nil && *qty > before.RemainingQuantity:
		return "increase"
	case qty != nil && *qty < before.RemainingQuantity:
		return "decrease"
	}
	return ""
}

// CancelOrder removes a resting order.
func (s *OrderService) CancelOrder(id string) error {
	if err := s.book.Cancel(domain.OrderID(id)); err != nil {
		s.logger.Warn("cancel rejected", "order_id", id, "error", err)
		return err
	}
	s.metrics.Cancelled()
	s.logger.Debug("order cancelled", "order_id", id)
	return nil
}

// Flush drains the three histories, folds them into metrics and appends
// them to the journal when one is configured. Entries drained before a
// journal failure are not redelivered.
func (s *OrderService) Flush() (FlushResult, error) {
	subs := s.book.DrainSubmissions()
	execs := s.book.DrainExecutions()
	rejs := s.book.DrainErrors()

	for _, sub := range subs {
		if sub.Kind == domain.SubmissionNew {
			s.metrics.Submitted(sub.Order.Type)
		}
	}
	for _, e := range execs {
		s.metrics.Executed(e.Quantity)
	}
	for _, r := range rejs {
		s.metrics.Rejected(r.Code)
	}

	bid, hasBid := s.book.BestBid()
	ask, hasAsk := s.book.BestAsk()
	s.metrics.SetTopOfBook(bid, hasBid, ask, hasAsk)
	s.metrics.SetResting(s.book.Len())

	res := FlushResult{Submissions: len(subs), Executions: len(execs), Errors: len(rejs)}

	if s.journal != nil {
		if err := s.journal.AppendSubmissions(subs); err != nil {
			return res, fmt.Errorf("journaling submissions: %w", err)
		}
		if err := s.journal.AppendExecutions(execs); err != nil {
			return res, fmt.Errorf("journaling executions: %w", err)
		}
		if err := s.journal.AppendErrors(rejs); err != nil {
			return res, fmt.Errorf("journaling errors: %w", err)
		}
	}

	s.logger.Debug("history flushed",
		"submissions", res.Submissions,
		"executions", res.Executions,
		"errors", res.Errors,
	)
	return res, nil
}

func (s *OrderService) parsePrice(raw string) (int64, error) {
	if raw == "" {
		return 0, &domain.ValidationError{Message: "price is required for limit orders"}
	}
	ticks, err := domain.ParsePrice(raw, s.tick)
	if err != nil {
		return 0, &domain.ValidationError{Message: err.Error()}
	}
	return ticks, nil
}
