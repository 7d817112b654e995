package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/efreitasn/limitbook/internal/config"
	"github.com/efreitasn/limitbook/internal/engine"
	"github.com/efreitasn/limitbook/internal/journal"
	"github.com/efreitasn/limitbook/internal/metrics"
	"github.com/efreitasn/limitbook/internal/scenario"
	"github.com/efreitasn/limitbook/internal/sequence"
	"github.com/efreitasn/limitbook/internal/service"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML file of steps to run against the book")
	flag.Parse()

	if *scenarioPath == "" {
		slog.Error("missing -scenario flag")
		os.Exit(2)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, *scenarioPath, logger); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, scenarioPath string, logger *slog.Logger) error {
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}

	// The journal is optional; leave the interface nil when it is off.
	var sink service.Journal
	if cfg.JournalDir != "" {
		j, err := journal.Open(cfg.JournalDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Error("journal close error", slog.String("error", err.Error()))
			}
		}()
		sink = j
		logger.Info("journal opened", slog.String("dir", cfg.JournalDir))
	}

	recorder := metrics.New(true)
	book := engine.NewOrderBook(engine.WithSequencer(sequence.New(0)))
	orderSvc := service.NewOrderService(book, cfg.TickSize, recorder, sink, logger)

	outcomes, err := scenario.Run(orderSvc, sc, cfg.DepthLevels)
	if err != nil {
		return err
	}

	rejected := 0
	for _, o := range outcomes {
		if o.Failed() {
			rejected++
			logger.Info("step rejected",
				slog.Int("step", o.Step),
				slog.String("op", string(o.Op)),
				slog.String("order_id", string(o.OrderID)),
				slog.String("code", o.Code),
				slog.String("error", o.Error),
			)
		}
	}

	res, err := orderSvc.Flush()
	if err != nil {
		return err
	}

	view, err := orderSvc.GetBook(cfg.DepthLevels)
	if err != nil {
		return err
	}
	attrs := []any{
		slog.Int("steps", len(outcomes)),
		slog.Int("rejected_steps", rejected),
		slog.Int("executions", len(orderSvc.Executions())),
		slog.Int("bid_levels", len(view.Bids)),
		slog.Int("ask_levels", len(view.Asks)),
		slog.Int("flushed_submissions", res.Submissions),
	}
	if view.BestBid != nil {
		attrs = append(attrs, slog.String("best_bid", view.BestBid.String()))
	}
	if view.BestAsk != nil {
		attrs = append(attrs, slog.String("best_ask", view.BestAsk.String()))
	}
	if view.Spread != nil {
		attrs = append(attrs, slog.String("spread", view.Spread.String()))
	}
	logger.Info("scenario complete", attrs...)

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		logger.Info("metrics written", slog.String("path", cfg.MetricsFile))
	}
	return nil
}
