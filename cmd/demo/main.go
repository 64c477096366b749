package main

import (
	"context"
	"flag"
	"fmt"

	"grid-planner/internal/analysis"
	"grid-planner/internal/config"
	"grid-planner/internal/export"
	"grid-planner/internal/logger"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
	"grid-planner/internal/scenario"
)

// Demo:
// - Build the four-period multi-investment network (or load one from a YAML config)
// - Solve it as one LP and with the rolling horizon, concurrently
// - Print the capacity build-out per period and the first dispatch rows
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	seed := flag.Int64("seed", 1, "Random seed for the generated series")
	perPeriod := flag.Int("snapshots", 12, "Snapshots per investment period")
	horizon := flag.Int("horizon", 12, "Rolling window length in snapshots")
	overlap := flag.Int("overlap", 4, "Rolling window overlap in snapshots")
	outCSV := flag.String("out", "", "Optional path to write the full run's dispatch CSV (e.g. results/dispatch.csv)")
	verbose := flag.Bool("v", false, "Log optimizer progress")
	flag.Parse()

	log := logger.Nop()
	if *verbose {
		var err error
		if log, err = logger.New("development"); err != nil {
			panic(err)
		}
		defer log.Sync()
	}

	opts := optimize.RollingOptions{Horizon: *horizon, Overlap: *overlap}
	n, err := scenario.MultiInvestment(scenario.Options{Seed: *seed, SnapshotsPerPeriod: *perPeriod})
	if err != nil {
		panic(err)
	}
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		if n, err = cfg.ToNetwork(); err != nil {
			panic(err)
		}
		opts = cfg.ToOptions()
	}
	opts.Logger = log

	fmt.Println(n)
	for _, w := range n.Weightings {
		fmt.Printf("  period %d: years=%.0f objective=%.4f\n", w.Period, w.Years, w.Objective)
	}

	cmp, err := optimize.Compare(context.Background(), n, opts)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\n%s\n%s\n", cmp.FullOutcome, cmp.RollingOutcome)
	for _, w := range cmp.RollingOutcome.Warnings {
		fmt.Printf("warning: %s\n", w)
	}

	table, err := analysis.CapacityByPeriod(cmp.Full, model.KindGenerator)
	if err != nil {
		panic(err)
	}
	fmt.Println("\nGenerator capacity by period (full solve):")
	for _, p := range table {
		fmt.Printf("  %d total=%8.2f %v\n", p.Period, p.Total, p.Values)
	}

	ledger := export.DispatchLedger(cmp.Full)
	fmt.Println()
	for i := 0; i < min(12, len(ledger)); i++ {
		r := ledger[i]
		fmt.Printf(
			"%s period=%d  %-12s %-28s p=%9.3f  action=%-11s soc=%8.3f\n",
			r.Time.Format("2006-01-02 15:04"),
			r.Period,
			r.Kind,
			r.Asset,
			r.Power,
			string(r.Action),
			r.SOC,
		)
	}

	if *outCSV != "" {
		if err := export.WriteDispatchCSV(*outCSV, cmp.Full); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	rc, err := analysis.CompareRuns(cmp.Full, cmp.Rolling)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\nDone. Full=%.2f  Rolling=%.2f  Gap=%.4f (%.3f%%)\n", rc.BaseObjective, rc.Objective, rc.Gap, rc.RelativeGap*100)
}
