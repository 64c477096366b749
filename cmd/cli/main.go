package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"grid-planner/internal/analysis"
	"grid-planner/internal/config"
	"grid-planner/internal/export"
	"grid-planner/internal/logger"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "optimize":
		cmdOptimize(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli optimize --config examples/ring.yaml --out results/dispatch.csv --save results/solved.json")
	fmt.Println("  cli compare --config examples/ring.yaml")
	fmt.Println("  cli export --config examples/ring.yaml --out networks/ring.json")
	fmt.Println("  cli analyze --network results/solved.json")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - optimizer.mode selects multi_period (one LP) or rolling_horizon (windowed LPs)")
	fmt.Println("  - the dispatch CSV has one row per active asset and snapshot")
}

func newLogger(mode string) *logger.Logger {
	if mode == "" {
		return logger.Nop()
	}
	log, err := logger.New(mode)
	if err != nil {
		panic(err)
	}
	return log
}

func loadConfig(path string) (*config.Config, *model.Network) {
	if path == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}
	n, err := cfg.ToNetwork()
	if err != nil {
		panic(err)
	}
	return cfg, n
}

func cmdOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/dispatch.csv", "Output dispatch CSV path")
	savePath := fs.String("save", "", "Optional: write the solved network document here")
	logMode := fs.String("log", "", "Log mode: development or production (empty = silent)")
	_ = fs.Parse(args)

	cfg, n := loadConfig(*cfgPath)
	log := newLogger(*logMode)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.ToOptions()
	opts.Logger = log
	var (
		out *optimize.Outcome
		err error
	)
	if cfg.Optimizer.Mode == optimize.ModeRollingHorizon {
		out, err = optimize.OptimizeRollingHorizon(ctx, n, opts)
	} else {
		out, err = optimize.OptimizeMultiPeriod(ctx, n, opts.Options)
	}
	if out == nil {
		fmt.Fprintf(os.Stderr, "optimization failed: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		// partial rolling run: keep what was committed
		fmt.Fprintf(os.Stderr, "optimization stopped early: %v\n", err)
	}

	if err := export.WriteDispatchCSV(*outPath, n); err != nil {
		panic(err)
	}
	if *savePath != "" {
		if err := export.SaveNetwork(*savePath, n); err != nil {
			panic(err)
		}
		fmt.Printf("Saved solved network to %s\n", *savePath)
	}

	fmt.Printf("Wrote dispatch to %s\n", *outPath)
	fmt.Println(out)
	for _, w := range out.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	printCapacities(n)
	if err != nil {
		os.Exit(1)
	}
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optimizer.horizon/overlap are used for the rolling run)")
	logMode := fs.String("log", "", "Log mode: development or production (empty = silent)")
	_ = fs.Parse(args)

	cfg, n := loadConfig(*cfgPath)
	log := newLogger(*logMode)
	defer log.Sync()

	opts := cfg.ToOptions()
	opts.Logger = log
	if _, err := optimize.PlanWindows(len(n.Snapshots), opts.Horizon, opts.Overlap); err != nil {
		fmt.Fprintf(os.Stderr, "compare needs optimizer.horizon and optimizer.overlap: %v\n", err)
		os.Exit(2)
	}

	cmp, err := optimize.Compare(context.Background(), n, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compare failed: %v\n", err)
		os.Exit(1)
	}
	rc, err := analysis.CompareRuns(cmp.Full, cmp.Rolling)
	if err != nil {
		panic(err)
	}

	fmt.Println(cmp.FullOutcome)
	fmt.Println(cmp.RollingOutcome)
	fmt.Printf("%-6s %-7s %-7s %-14s %-10s\n", "window", "start", "end", "objective", "elapsed")
	for _, w := range cmp.RollingOutcome.Windows {
		fmt.Printf("%-6d %-7d %-7d %-14.2f %-10s\n", w.Index, w.Start, w.End-1, w.Objective, w.Elapsed)
	}
	fmt.Printf("gap=%.4f (%.4f%%) max capacity delta=%.4f\n", rc.Gap, rc.RelativeGap*100, rc.MaxCapacityDelta)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "networks/network.json", "Output network document path")
	_ = fs.Parse(args)

	_, n := loadConfig(*cfgPath)
	if err := export.SaveNetwork(*outPath, n); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %s to %s (%d snapshots)\n", n.Name, *outPath, len(n.Snapshots))
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	netPath := fs.String("network", "", "Path to a solved network document")
	_ = fs.Parse(args)

	if *netPath == "" {
		fmt.Println("--network is required")
		os.Exit(2)
	}
	n, err := export.LoadNetwork(*netPath)
	if err != nil {
		panic(err)
	}
	if n.Results == nil {
		fmt.Fprintf(os.Stderr, "%s has no results\n", *netPath)
		os.Exit(1)
	}

	gen, err := analysis.GenerationByPeriod(n)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%-8s %-14s\n", "period", "generation")
	for _, p := range gen {
		fmt.Printf("%-8d %-14.2f\n", p.Period, p.Total)
	}
	printCapacities(n)

	ranked, err := analysis.RankByGeneration(n)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%-4s %-28s %-10s %-14s %-8s\n", "rank", "generator", "carrier", "energy", "share")
	for i, r := range ranked {
		fmt.Printf("%-4d %-28s %-10s %-14.2f %-8.3f\n", i+1, r.Name, r.Carrier, r.Energy, r.Share)
	}

	fmt.Printf("%-12s %-28s %-8s %-10s %-10s %-10s\n", "kind", "asset", "count", "mean", "p05", "p95")
	for _, s := range analysis.DispatchStats(n) {
		fmt.Printf("%-12s %-28s %-8d %-10.2f %-10.2f %-10.2f\n", s.Kind, s.Name, s.Count, s.Mean, s.P05, s.P95)
	}
}

func printCapacities(n *model.Network) {
	for _, kind := range []model.ComponentKind{model.KindGenerator, model.KindStorageUnit, model.KindLine} {
		table, err := analysis.CapacityByPeriod(n, kind)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s capacity by period\n", kind)
		for _, p := range table {
			names := make([]string, 0, len(p.Values))
			for name := range p.Values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-6d %-28s %10.2f\n", p.Period, name, p.Values[name])
			}
		}
	}
}
