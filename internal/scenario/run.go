package scenario

import (
	"fmt"

	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/efreitasn/limitbook/internal/service"
)

// Service is the part of the order service a scenario drives.
type Service interface {
	SubmitOrder(service.SubmitOrderRequest) (domain.OrderID, error)
	UpdateOrder(string, service.UpdateOrderRequest) error
	CancelOrder(string) error
	GetBook(int) (*service.BookView, error)
	Flush() (service.FlushResult, error)
}

// Outcome is what one step produced. Code is empty when the step succeeded.
type Outcome struct {
	Step    int
	Op      Op
	OrderID domain.OrderID
	Code    string
	Error   string
	Book    *service.BookView
	Flush   *service.FlushResult
}

// Failed reports whether the book refused the step.
func (o Outcome) Failed() bool {
	return o.Code != ""
}

// Run executes the steps in order. Book rejections are recorded as outcomes
// and do not stop the run; only a failed flush does. depth is used for book
// steps that do not set levels.
func Run(svc Service, sc *Scenario, depth int) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(sc.Steps))

	for i, s := range sc.Steps {
		out := Outcome{Step: i + 1, Op: s.Op, OrderID: domain.OrderID(s.ID)}

		var err error
		switch s.Op {
		case OpSubmit:
			req := service.SubmitOrderRequest{
				ID:       s.ID,
				Side:     domain.Side(s.Side),
				Type:     domain.OrderType(s.Type),
				Quantity: *s.Quantity,
			}
			if s.Price != nil {
				req.Price = *s.Price
			}
			var id domain.OrderID
			id, err = svc.SubmitOrder(req)
			if err == nil {
				out.OrderID = id
			}
		case OpUpdate:
			err = svc.UpdateOrder(s.ID, service.UpdateOrderRequest{Price: s.Price, Quantity: s.Quantity})
		case OpCancel:
			err = svc.CancelOrder(s.ID)
		case OpBook:
			levels := s.Levels
			if levels == 0 {
				levels = depth
			}
			out.Book, err = svc.GetBook(levels)
		case OpFlush:
			res, ferr := svc.Flush()
			if ferr != nil {
				return outcomes, fmt.Errorf("step %d: %w", i+1, ferr)
			}
			out.Flush = &res
		}

		if err != nil {
			out.Code = domain.ErrorCode(err)
			out.Error = err.Error()
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
