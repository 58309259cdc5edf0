package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/faeiqkhan/pocket-insight/internal/cli"
	"github.com/faeiqkhan/pocket-insight/internal/core"
	"github.com/faeiqkhan/pocket-insight/internal/export"
	"github.com/faeiqkhan/pocket-insight/internal/insights"
)

func main() {
	monthFlag := flag.String("month", "", "month to export in 2006-01 form (default: current month)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting insight-export")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.SpreadsheetID == "" {
		logger.Error("Report export needs a spreadsheet; set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	month := core.MonthOf(time.Now())
	if *monthFlag != "" {
		var err error
		month, err = core.ParseMonth(*monthFlag)
		if err != nil {
			logger.Error("Invalid -month value", "error", err, "value", *monthFlag)
			os.Exit(1)
		}
	}

	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	ctx := context.Background()

	exporter, err := export.NewSheetsExporter(ctx, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}

	expenses, err := st.ListExpenses(ctx, cfg.OwnerID)
	if err != nil {
		logger.Error("Failed to list expenses", "error", err)
		os.Exit(1)
	}
	budget, ok, err := st.BudgetForMonth(ctx, cfg.OwnerID, month)
	if err != nil {
		logger.Error("Failed to read budget", "error", err)
		os.Exit(1)
	}
	var b *core.MonthlyBudget
	if ok {
		b = &budget
	}

	// Anchor the summary inside the target month so the aggregation
	// treats it as the current one.
	ref := month.Start().Time
	summary := insights.BuildMonthSummary(expenses, b, ref, cfg.TrendMonths)
	monthExpenses := insights.CurrentMonth(expenses, ref)

	written, err := exporter.ExportMonth(ctx, summary, monthExpenses)
	if err != nil {
		logger.Error("Failed to export report", "error", err)
		os.Exit(1)
	}
	logger.Info("Report exported",
		"month", month.String(),
		"expenses", len(monthExpenses),
		"range", written)
}
