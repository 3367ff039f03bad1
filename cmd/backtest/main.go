package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	pyroscope "github.com/grafana/pyroscope-go"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/execution"
	"athena/internal/ops"
	"athena/internal/portfolio"
	"athena/internal/replay"
	"athena/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "athena/backtest",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	src, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("build %s source: %v", cfg.Source, err)
	}
	defer src.Close()

	queue := bus.NewQueue(cfg.QueueCapacity)
	book := portfolio.NewNaive(src, queue, cfg.InitialCapital)
	driver, err := replay.NewDriver(
		replay.Config{Heartbeat: cfg.Heartbeat},
		src,
		queue,
		strategy.NewBuyAndHold(src, queue),
		book,
		execution.NewSimulated(src, queue),
	)
	if err != nil {
		log.Fatalf("build driver: %v", err)
	}

	if err := driver.Run(context.Background()); err != nil {
		log.Fatalf("replay run failed: %v", err)
	}

	fmt.Printf("ticks=%d cash=%s\n", driver.Ticks(), book.Cash().StringFixed(2))
	for i, point := range book.EquityCurve() {
		fmt.Printf("%06d %s equity=%s\n", i+1, point.Timestamp.Format("2006-01-02"), point.Value.StringFixed(2))
	}
}

func buildSource(cfg ops.Loaded) (bars.Source, error) {
	switch cfg.Source {
	case ops.SourceStore:
		return bars.NewStoreSource(bars.StoreConfig{
			Target:  cfg.Target,
			Flavor:  cfg.Flavor,
			Symbols: cfg.Symbols,
			Start:   cfg.StartDate,
		})
	default:
		return bars.NewCSVSource(bars.CSVConfig{
			Dir:     cfg.DataDirectory,
			Symbols: cfg.Symbols,
			Start:   cfg.StartDate,
		})
	}
}
