package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/cli"
	"github.com/faeiqkhan/pocket-insight/internal/events"
	"github.com/faeiqkhan/pocket-insight/internal/insights"
	"github.com/faeiqkhan/pocket-insight/internal/migration"
	"github.com/faeiqkhan/pocket-insight/internal/service"
)

func main() {
	runImport := flag.Bool("import", false, "transfer records captured on this device to the remote store")
	declineImport := flag.Bool("decline-import", false, "keep device records local and stop offering the transfer")
	watch := flag.Bool("watch", false, "stay running and react to changes from other devices")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting pocket-insight")

	cfg := cli.LoadAndValidateConfig(logger)

	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	local := cli.OpenLocalCache(logger, cfg.LocalCachePath)
	defer local.Close()

	ctx := context.Background()

	// Change events are optional: without a broker the tracker still
	// works, other devices just converge on summary expiry.
	var (
		eventsClient *events.Client
		publisher    service.Publisher
	)
	if cfg.AMQPURL != "" {
		var err error
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Change-event sync disabled", "error", err)
			eventsClient = nil
		} else {
			publisher = eventsClient
			defer eventsClient.Close()
		}
	}

	tracker := service.NewTracker(st, publisher, service.Config{
		TrendMonths:      cfg.TrendMonths,
		SummaryCacheSize: cfg.SummaryCacheSize,
		SummaryCacheTTL:  cfg.SummaryCacheTTL,
	})

	importer := migration.NewImporter(local, local, st)
	state, err := importer.Evaluate(ctx)
	if err != nil {
		logger.Error("Failed to evaluate device records", "error", err)
		os.Exit(1)
	}

	if state == migration.StatePending {
		switch {
		case *declineImport:
			if err := importer.Decline(ctx); err != nil {
				logger.Error("Failed to decline import", "error", err)
				os.Exit(1)
			}
		case *runImport:
			report, err := importer.Run(ctx, cfg.OwnerID)
			if err != nil {
				var merr *migration.MigrationError
				if errors.As(err, &merr) {
					logger.Error("Import failed; device records are intact",
						"stage", merr.Stage,
						"error", merr.Err)
				} else {
					logger.Error("Import failed", "error", err)
				}
				os.Exit(1)
			}
			logger.Info("Device records imported",
				"expenses", report.Expenses,
				"budgets", report.Budgets)
			tracker.NoteImported(ctx, cfg.OwnerID)
		default:
			logger.Info("Device records are awaiting import; rerun with -import to transfer them or -decline-import to keep them local")
		}
	}

	summary, err := tracker.Dashboard(ctx, cfg.OwnerID)
	if err != nil {
		logger.Error("Failed to build dashboard", "error", err)
		os.Exit(1)
	}
	logSummary(logger, summary)

	if !*watch {
		return
	}
	if eventsClient == nil {
		logger.Error("Watch mode needs a broker; set AMQP_URL")
		os.Exit(1)
	}

	watchCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := eventsClient.ConsumeChanges(watchCtx, func(msg *events.ChangeMessage) error {
			if err := tracker.HandleChange(watchCtx, msg); err != nil {
				return err
			}
			if msg.OwnerID != cfg.OwnerID {
				return nil
			}
			refreshed, err := tracker.Dashboard(watchCtx, cfg.OwnerID)
			if err != nil {
				return err
			}
			logger.Info("Dashboard refreshed after remote change",
				"entity", msg.Entity,
				"action", msg.Action,
				"total", refreshed.Total.DecimalString())
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	ticker := time.NewTicker(cfg.SummaryCacheTTL)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				if removed := tracker.CleanupSummaries(); removed > 0 {
					logger.Info("Dropped expired summaries", "removed", removed)
				}
			}
		}
	}()

	logger.Info("Watching for changes from other devices", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(watchCtx, done)
}

func logSummary(logger *slog.Logger, s insights.MonthSummary) {
	logger.Info("Month summary",
		"month", s.Month.Label(),
		"total", s.Total.DecimalString(),
		"previous", s.PreviousTotal.DecimalString(),
		"change_pct", fmt.Sprintf("%+.1f", s.PercentChange),
		"average_monthly", s.AverageMonthly.DecimalString())
	if s.HasTopCategory {
		logger.Info("Top category",
			"category", string(s.TopCategory),
			"amount", s.TopAmount.DecimalString())
	}
	if s.HasBudget {
		logger.Info("Budget",
			"amount", s.Budget.DecimalString(),
			"left", s.BudgetLeft.DecimalString(),
			"used_pct", fmt.Sprintf("%.1f", s.BudgetUsedPct))
	}
	for _, mt := range s.Trend {
		logger.Info("Trend month",
			"month", mt.Month.Label(),
			"total", mt.Total.DecimalString())
	}
}
