package service

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/limitbook/internal/domain"
	"github.com/efreitasn/limitbook/internal/engine"
	"github.com/efreitasn/limitbook/internal/metrics"
)

// fakeJournal records what Flush hands it.
type fakeJournal struct {
	subs  []domain.Submission
	execs []domain.Execution
	rejs  []domain.Rejection
	err   error
}

func (j *fakeJournal) AppendSubmissions(s []domain.Submission) error {
	if j.err != nil {
		return j.err
	}
	j.subs = append(j.subs, s...)
	return nil
}

func (j *fakeJournal) AppendExecutions(e []domain.Execution) error {
	j.execs = append(j.execs, e...)
	return nil
}

func (j *fakeJournal) AppendErrors(r []domain.Rejection) error {
	j.rejs = append(j.rejs, r...)
	return nil
}

// testOrderEnv bundles all dependencies needed for OrderService tests.
type testOrderEnv struct {
	book     *engine.OrderBook
	recorder *metrics.Recorder
	journal  *fakeJournal
	svc      *OrderService
}

func newTestOrderEnv() *testOrderEnv {
	book := engine.NewOrderBook()
	rec := metrics.New(false)
	j := &fakeJournal{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testOrderEnv{
		book:     book,
		recorder: rec,
		journal:  j,
		svc:      NewOrderService(book, decimal.RequireFromString("0.01"), rec, j, logger),
	}
}

func (env *testOrderEnv) submit(t *testing.T, id string, side domain.Side, price string, qty int64) {
	t.Helper()
	_, err := env.svc.SubmitOrder(SubmitOrderRequest{
		ID:       id,
		Side:     side,
		Type:     domain.OrderTypeLimit,
		Price:    price,
		Quantity: qty,
	})
	if err != nil {
		t.Fatalf("failed to submit %s: %v", id, err)
	}
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}

func gatherValue(t *testing.T, rec *metrics.Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

// --- SubmitOrder ---

func TestSubmitOrder_ConvertsPriceToTicks(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "b1", domain.SideBuy, "10.25", 5)

	o, ok := env.book.Order("b1")
	if !ok {
		t.Fatal("expected b1 to rest")
	}
	if o.Price != 1025 {
		t.Errorf("price = %d ticks, want 1025", o.Price)
	}
}

func TestSubmitOrder_BadPriceRecorded(t *testing.T) {
	tests := []struct {
		name  string
		price string
	}{
		{"missing", ""},
		{"not a number", "ten"},
		{"off tick", "10.001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestOrderEnv()
			_, err := env.svc.SubmitOrder(SubmitOrderRequest{
				ID: "x", Side: domain.SideBuy, Type: domain.OrderTypeLimit, Price: tt.price, Quantity: 5,
			})

			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			errs := env.book.ErrorHistory()
			if len(errs) != 1 || errs[0].Code != domain.CodeValidation || errs[0].OrderID != "x" {
				t.Fatalf("error history = %+v", errs)
			}
			if bids, _ := env.book.Len(); bids != 0 {
				t.Error("rejected order reached the book")
			}
		})
	}
}

func TestSubmitOrder_MarketIgnoresPrice(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "a", domain.SideSell, "1.00", 5)

	id, err := env.svc.SubmitOrder(SubmitOrderRequest{
		ID: "m", Side: domain.SideBuy, Type: domain.OrderTypeMarket, Price: "garbage", Quantity: 5,
	})
	if err != nil {
		t.Fatalf("market order: %v", err)
	}
	if id != "m" {
		t.Errorf("id = %s, want m", id)
	}
	if n := len(env.book.ExecutionHistory()); n != 1 {
		t.Errorf("expected 1 execution, got %d", n)
	}
}

func TestSubmitOrder_EngineRejectionPassesThrough(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "dup", domain.SideBuy, "1.00", 5)

	_, err := env.svc.SubmitOrder(SubmitOrderRequest{
		ID: "dup", Side: domain.SideBuy, Type: domain.OrderTypeLimit, Price: "1.00", Quantity: 5,
	})
	if !errors.Is(err, domain.ErrDuplicateOrderID) {
		t.Fatalf("expected ErrDuplicateOrderID, got %v", err)
	}
	if n := len(env.book.ErrorHistory()); n != 1 {
		t.Errorf("rejection should be recorded once, got %d", n)
	}
}

// --- UpdateOrder ---

func TestUpdateOrder_Reprice(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "b", domain.SideBuy, "1.00", 5)

	if err := env.svc.UpdateOrder("b", UpdateOrderRequest{Price: strPtr("1.50")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	o, _ := env.book.Order("b")
	if o.Price != 150 {
		t.Errorf("price = %d, want 150", o.Price)
	}
	if v := gatherValue(t, env.recorder, "limitbook_orders_amended_total", map[string]string{"kind": "reprice"}); v != 1 {
		t.Errorf("amended{reprice} = %v, want 1", v)
	}
}

func TestUpdateOrder_QuantityKinds(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "b", domain.SideBuy, "1.00", 5)

	if err := env.svc.UpdateOrder("b", UpdateOrderRequest{Quantity: int64Ptr(3)}); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if err := env.svc.UpdateOrder("b", UpdateOrderRequest{Quantity: int64Ptr(8)}); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if err := env.svc.UpdateOrder("b", UpdateOrderRequest{Quantity: int64Ptr(8)}); err != nil {
		t.Fatalf("no-op: %v", err)
	}

	if v := gatherValue(t, env.recorder, "limitbook_orders_amended_total", map[string]string{"kind": "decrease"}); v != 1 {
		t.Errorf("amended{decrease} = %v, want 1", v)
	}
	if v := gatherValue(t, env.recorder, "limitbook_orders_amended_total", map[string]string{"kind": "increase"}); v != 1 {
		t.Errorf("amended{increase} = %v, want 1", v)
	}
}

func TestUpdateOrder_BadPrice(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "b", domain.SideBuy, "1.00", 5)

	err := env.svc.UpdateOrder("b", UpdateOrderRequest{Price: strPtr("1.005")})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	errs := env.book.ErrorHistory()
	if len(errs) != 1 || errs[0].Operation != domain.OpUpdate {
		t.Fatalf("error history = %+v", errs)
	}
	if o, _ := env.book.Order("b"); o.Price != 100 {
		t.Errorf("order changed by a rejected update: %+v", o)
	}
}

func TestUpdateOrder_NotFound(t *testing.T) {
	env := newTestOrderEnv()
	err := env.svc.UpdateOrder("nope", UpdateOrderRequest{Quantity: int64Ptr(1)})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

// --- CancelOrder ---

func TestCancelOrder(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "b", domain.SideBuy, "1.00", 5)

	if err := env.svc.CancelOrder("b"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := env.svc.CancelOrder("b"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("second cancel: expected ErrOrderNotFound, got %v", err)
	}
	if v := gatherValue(t, env.recorder, "limitbook_orders_cancelled_total", nil); v != 1 {
		t.Errorf("cancelled = %v, want 1", v)
	}
}

// --- Flush ---

func TestFlush_FeedsMetricsAndJournal(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "a", domain.SideSell, "1.00", 5)
	env.submit(t, "b", domain.SideBuy, "1.00", 2)
	env.submit(t, "c", domain.SideBuy, "0.99", 1)
	_ = env.svc.CancelOrder("missing")

	res, err := env.svc.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if res != (FlushResult{Submissions: 3, Executions: 1, Errors: 1}) {
		t.Errorf("flush result = %+v", res)
	}
	if len(env.journal.subs) != 3 || len(env.journal.execs) != 1 || len(env.journal.rejs) != 1 {
		t.Errorf("journal got %d/%d/%d", len(env.journal.subs), len(env.journal.execs), len(env.journal.rejs))
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"limitbook_orders_submitted_total", map[string]string{"type": "limit"}, 3},
		{"limitbook_executions_total", nil, 1},
		{"limitbook_executed_quantity_total", nil, 2},
		{"limitbook_orders_rejected_total", map[string]string{"code": domain.CodeNotFound}, 1},
		{"limitbook_best_bid_ticks", nil, 99},
		{"limitbook_best_ask_ticks", nil, 100},
		{"limitbook_resting_orders", map[string]string{"side": "buy"}, 1},
		{"limitbook_resting_orders", map[string]string{"side": "sell"}, 1},
	}
	for _, c := range checks {
		if got := gatherValue(t, env.recorder, c.name, c.labels); got != c.want {
			t.Errorf("%s%v = %v, want %v", c.name, c.labels, got, c.want)
		}
	}

	// A second flush only hands off what happened since.
	res, err = env.svc.Flush()
	if err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if res != (FlushResult{}) {
		t.Errorf("second flush = %+v, want empty", res)
	}
	if len(env.journal.subs) != 3 {
		t.Errorf("journal re-received submissions: %d", len(env.journal.subs))
	}
}

func TestFlush_AmendsAreNotNewSubmissions(t *testing.T) {
	env := newTestOrderEnv()
	env.submit(t, "a", domain.SideSell, "1.00", 5)
	if err := env.svc.UpdateOrder("a", UpdateOrderRequest{Price: strPtr("1.10")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err := env.svc.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if res.Submissions != 2 {
		t.Errorf("submissions = %d, want 2", res.Submissions)
	}
	if v := gatherValue(t, env.recorder, "limitbook_orders_submitted_total", map[string]string{"type": "limit"}); v != 1 {
		t.Errorf("submitted{limit} = %v, want 1", v)
	}
}

func TestFlush_JournalError(t *testing.T) {
	env := newTestOrderEnv()
	env.journal.err = errors.New("disk full")
	env.submit(t, "a", domain.SideSell, "1.00", 5)

	if _, err := env.svc.Flush(); err == nil {
		t.Fatal("expected journal error")
	}
}

func TestFlush_WithoutJournal(t *testing.T) {
	book := engine.NewOrderBook()
	rec := metrics.New(false)
	svc := NewOrderService(book, decimal.RequireFromString("0.01"), rec, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := svc.SubmitOrder(SubmitOrderRequest{ID: "a", Side: domain.SideBuy, Type: domain.OrderTypeMarket, Quantity: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := svc.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if res.Submissions != 1 || res.Errors != 1 {
		t.Errorf("flush result = %+v", res)
	}
	if v := gatherValue(t, rec, "limitbook_orders_rejected_total", map[string]string{"code": domain.CodeUnfilledMarket}); v != 1 {
		t.Errorf("rejected = %v, want 1", v)
	}
}
