package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"coastercraft.ai/internal/observerproto"
	"coastercraft.ai/internal/persistence/indexdb"
	persistlog "coastercraft.ai/internal/persistence/log"
	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/session"
	"coastercraft.ai/internal/sim/tuning"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/telemetry"
	"coastercraft.ai/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run index")
		noJournal  = flag.Bool("disable_journal", false, "disable the block journal")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB && !envBool("CC_DISABLE_INDEX", false) {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "runs.sqlite"), indexdb.WithLogger(logger))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	var journal *persistlog.Journal
	if !*noJournal {
		journal = persistlog.NewJournal(*dataDir)
		defer journal.Close()
	}

	obs := observer.NewServer(bootstrapFor(tune, cats), logger)
	metrics := telemetry.NewExporter()
	defer func() { _ = metrics.Shutdown(context.Background()) }()
	otel.SetMeterProvider(metrics.MeterProvider())
	rec, err := telemetry.NewWithProvider(metrics.MeterProvider(), obs.Sessions)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}

	sess, err := session.New(session.Config{
		Tuning:    tune,
		Catalogs:  cats,
		Logger:    logger,
		Journal:   journal,
		Index:     idx,
		Observer:  obs,
		Telemetry: rec,
	})
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	a := &app{
		log:       logger,
		sess:      sess,
		index:     idx,
		observer:  obs,
		telemetry: rec,
		metrics:   metrics,
	}
	mux := a.routes()
	if envBool("CC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (CC_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func bootstrapFor(tune tuning.Tuning, cats *catalogs.Catalogs) observerproto.BootstrapResponse {
	return observerproto.BootstrapResponse{
		WorldParams: observerproto.WorldParams{
			ChunkSize: [3]int{store.ChunkSize, store.ChunkSize, store.ChunkSize},
			MinY:      tune.World.MinY,
			MaxY:      tune.World.MaxY,
			Seed:      tune.World.Seed,
			BoundaryR: tune.World.BoundaryR,
		},
		BlockPalette: append([]string(nil), cats.Blocks.Palette...),
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
