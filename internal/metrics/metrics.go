package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/efreitasn/limitbook/internal/domain"
)

// Recorder owns the book's collectors. Each Recorder has its own registry,
// so tests and multiple books never share counters.
type Recorder struct {
	registry *prometheus.Registry

	submitted   *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	executions  prometheus.Counter
	executedQty prometheus.Counter
	cancelled   prometheus.Counter
	amended     *prometheus.CounterVec
	bestBid     prometheus.Gauge
	bestAsk     prometheus.Gauge
	resting     *prometheus.GaugeVec
}

// New creates a Recorder with every collector registered. Process and Go
// runtime collectors are included when withRuntime is set.
func New(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitbook_orders_submitted_total",
			Help: "Accepted submissions by order type",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitbook_orders_rejected_total",
			Help: "Rejected operations by error code",
		}, []string{"code"}),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limitbook_executions_total",
			Help: "Trades executed",
		}),
		executedQty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limitbook_executed_quantity_total",
			Help: "Quantity traded across all executions",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limitbook_orders_cancelled_total",
			Help: "Resting orders cancelled",
		}),
		amended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limitbook_orders_amended_total",
			Help: "Successful updates by kind",
		}, []string{"kind"}),
		bestBid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "limitbook_best_bid_ticks",
			Help: "Best bid in ticks, 0 when the side is empty",
		}),
		bestAsk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "limitbook_best_ask_ticks",
			Help: "Best ask in ticks, 0 when the side is empty",
		}),
		resting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "limitbook_resting_orders",
			Help: "Resting orders by side",
		}, []string{"side"}),
	}

	toRegister := []prometheus.Collector{
		r.submitted, r.rejected, r.executions, r.executedQty,
		r.cancelled, r.amended, r.bestBid, r.bestAsk, r.resting,
	}
	if withRuntime {
		toRegister = append(toRegister,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range toRegister {
		r.registry.MustRegister(c)
	}
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Submitted(t domain.OrderType) {
	r.submitted.WithLabelValues(string(t)).Inc()
}

func (r *Recorder) Rejected(code string) {
	r.rejected.WithLabelValues(code).Inc()
}

// Executed counts one trade of qty.
func (r *Recorder) Executed(qty int64) {
	r.executions.Inc()
	r.executedQty.Add(float64(qty))
}

func (r *Recorder) Cancelled() {
	r.cancelled.Inc()
}

// Amended counts a successful update. kind is "resize" for an in-place
// quantity decrease and "reprice" otherwise.
func (r *Recorder) Amended(kind string) {
	r.amended.WithLabelValues(kind).Inc()
}

// SetTopOfBook records the best prices. A missing side is reported as 0.
func (r *Recorder) SetTopOfBook(bid int64, hasBid bool, ask int64, hasAsk bool) {
	if !hasBid {
		bid = 0
	}
	if !hasAsk {
		ask = 0
	}
	r.bestBid.Set(float64(bid))
	r.bestAsk.Set(float64(ask))
}

func (r *Recorder) SetResting(bids, asks int) {
	r.resting.WithLabelValues(string(domain.SideBuy)).Set(float64(bids))
	r.resting.WithLabelValues(string(domain.SideSell)).Set(float64(asks))
}

// WriteTextfile writes the current state of the registry in the text
// exposition format, for collection by node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
