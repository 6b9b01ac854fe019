package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/coordinator"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/registry"
	"main/internal/state"
	"main/internal/timetable"
	"main/internal/venue"
	"main/pkg/conn"
)

const stopGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	tickInterval := flag.Duration("tick-interval", 100*time.Millisecond, "Simulated feed interval")
	basePrice := flag.Int64("base-price", 100, "Simulated feed base price")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if server := loaded.Observability.PyroscopeServer; server != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "strategy." + loaded.Coordinator.Strategy,
			ServerAddress:   server,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	store, closeStore, err := openStore(ctx, loaded.Persistence)
	if err != nil {
		log.Fatalf("snapshot store init failed: %v", err)
	}
	defer closeStore()

	book := ledger.New(loaded.Directory.Codes(), func(gross decimal.Decimal, sign enum.GrossSign) {
		obs.SetGross(gross.InexactFloat64())
		logs.Infof("gross %s (%s)", gross, sign)
	})
	reg := registry.New(loaded.Coordinator.Strategy, store, book, func(trades []model.ActiveTrade) {
		obs.IncSnapshotWrite()
		obs.SetOpenTrades(len(trades))
	})

	sim := venue.NewSim(loaded.Venue.NativeConditional)
	defer sim.Close()
	sched := timetable.NewTimerScheduler()
	defer sched.Close()

	coord := coordinator.New(loaded.Coordinator, sim, loaded.Directory, book, reg, sched)
	coord.SetClearingHandler(func(evening bool) {
		logs.Infof("clearing reached (evening=%v), gross %s open trades %d",
			evening, book.Gross(), reg.Len())
	})

	// Recovery must finish before the first tick is consumed.
	if err := coord.Start(ctx, store); err != nil {
		log.Fatalf("recovery failed: %v", err)
	}

	if addr := loaded.Observability.MetricsAddr; addr != "" {
		go serveMetrics(addr)
	}

	go coord.Run(ctx)
	go runFeed(ctx, sim, loaded, book, coord, *tickInterval, *basePrice)

	select {
	case <-ctx.Done():
	case <-sys.Shutdown():
	case <-coord.Stopped():
		return
	}

	// Ask the strategy to wind down and give it a bounded grace period.
	coord.RequestStop(context.Background())
	select {
	case <-coord.Stopped():
	case <-time.After(stopGrace):
		logs.Warnf("stop grace period elapsed, exiting")
	}
}

func openStore(ctx context.Context, cfg ops.PersistenceConfig) (state.Store, func(), error) {
	switch cfg.Backend {
	case ops.BackendPostgres:
		store, err := state.NewPostgresStore(ctx, conn.Option{DSN: cfg.DSN})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		dir := cfg.Dir
		if dir == "" {
			dir = "testdata/snapshots"
		}
		store, err := state.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logs.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logs.Errorf("metrics server, err: %+v", err)
	}
}

// runFeed drives the sim venue with a deterministic bounded walk and a
// periodic 1-lot entry per flat instrument, so a paper run exercises the
// full exit pipeline without a live feed.
func runFeed(ctx context.Context, sim *venue.Sim, loaded ops.Loaded, book *ledger.Ledger, coord *coordinator.Coordinator, interval time.Duration, basePrice int64) {
	codes := loaded.Directory.Codes()
	prices := make(map[string]decimal.Decimal, len(codes))
	for _, code := range codes {
		prices[code] = decimal.NewFromInt(basePrice)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := 0
	entries := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-sys.Shutdown():
			return
		case now := <-ticker.C:
			step++
			for _, code := range codes {
				inst, ok := loaded.Directory.Instrument(code)
				if !ok {
					continue
				}
				price := walk(prices[code], inst.TickSize, step)
				prices[code] = price

				loaded.Directory.SetQuotes(code, model.Quotes{
					BestBid: price.Sub(inst.TickSize),
					BestAsk: price.Add(inst.TickSize),
					HasBid:  true,
					HasAsk:  true,
				})

				if step%50 == 0 && book.Position(code).IsZero() {
					entries++
					spec := venue.OrderSpec{
						Instrument: code,
						Side:       enum.DirectionLong,
						Volume:     decimal.NewFromInt(1),
						Price:      price,
						Tag:        fmt.Sprintf("%s,%s,paper-%d", loaded.Coordinator.Strategy, model.EntryLetter, entries),
					}
					if _, err := sim.Submit(ctx, spec); err != nil {
						logs.Warnf("paper entry %s, err: %+v", code, err)
					}
				}

				tick := model.Tick{Instrument: code, Price: price, Time: now}
				sim.OnTick(tick)
				coord.PublishTick(tick)
			}
		}
	}
}

// walk nudges the price one tick up or down on a fixed cycle, enough to
// cross stops and profits over time without drifting unbounded.
func walk(price, tickSize decimal.Decimal, step int) decimal.Decimal {
	switch step % 7 {
	case 0, 2, 3:
		return price.Add(tickSize)
	case 1, 4, 5:
		return price.Sub(tickSize)
	default:
		return price
	}
}
