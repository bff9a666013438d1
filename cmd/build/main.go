package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"coastercraft.ai/internal/persistence/indexdb"
	persistlog "coastercraft.ai/internal/persistence/log"
	"coastercraft.ai/internal/render"
	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/session"
	"coastercraft.ai/internal/sim/tuning"
	"coastercraft.ai/internal/telemetry"
	"coastercraft.ai/internal/voxel"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		scriptPath = flag.String("script", "", "path to a track script (yaml)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		pngPath    = flag.String("png", "", "write a top-down map of the build to this file (optional)")
		scale      = flag.Int("scale", 4, "pixels per block in the -png map")
		journalDir = flag.String("journal", "", "write a block journal under this directory (optional)")
		indexPath  = flag.String("index", "", "record the run in this sqlite index (optional)")
		asJSON     = flag.Bool("json", false, "print the build report as json")
		debug      = flag.Bool("debug", false, "log every generator call")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[build] ", log.LstdFlags)

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "missing -script")
		return 2
	}
	raw, err := os.ReadFile(*scriptPath)
	if err != nil {
		logger.Printf("read script: %v", err)
		return 1
	}
	sc, err := script.Parse(raw)
	if err != nil {
		logger.Printf("%s: %v", *scriptPath, err)
		return 1
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Printf("load catalogs: %v", err)
		return 1
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("load tuning: %v", err)
			return 1
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *debug {
		tune.Track.Debug = true
	}

	cfg := session.Config{Tuning: tune, Catalogs: cats, Logger: logger}
	if *journalDir != "" {
		j := persistlog.NewJournal(*journalDir)
		defer j.Close()
		cfg.Journal = j
	}
	if *indexPath != "" {
		idx, err := indexdb.OpenSQLite(*indexPath, indexdb.WithLogger(logger))
		if err != nil {
			logger.Printf("open index: %v", err)
			return 1
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		cfg.Index = idx
	}
	rec, err := telemetry.New(nil)
	if err != nil {
		logger.Printf("telemetry: %v", err)
		return 1
	}
	cfg.Telemetry = rec

	sess, err := session.New(cfg)
	if err != nil {
		logger.Printf("session: %v", err)
		return 1
	}

	res, buildErr := sess.Build(context.Background(), sc)

	if *pngPath != "" {
		opts := render.Options{Scale: *scale, Margin: 2, Marks: []voxel.Pos{res.Report.End}}
		if err := render.SavePNG(*pngPath, sess.World(), opts); err != nil {
			logger.Printf("png: %v", err)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		for _, st := range res.Report.Steps {
			fmt.Printf("%3d %-20s +len=%-4d +powered=%-3d end=%s facing=%s\n",
				st.Index, st.Op, st.Delta.TotalLength, st.Delta.TotalPoweredRails, st.End, st.Facing)
		}
		fmt.Printf("run=%s blocks=%d total_length=%d total_powered_rails=%d\n",
			res.RunID, res.Blocks, res.Report.Stats.TotalLength, res.Report.Stats.TotalPoweredRails)
	}
	if buildErr != nil {
		logger.Printf("build failed: %v", buildErr)
		return 1
	}
	return 0
}
