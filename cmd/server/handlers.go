package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"coastercraft.ai/internal/persistence/indexdb"
	"coastercraft.ai/internal/render"
	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/session"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/telemetry"
	"coastercraft.ai/internal/track"
	"coastercraft.ai/internal/transport/observer"
)

const maxScriptBytes = 1 << 20

type app struct {
	log       *log.Logger
	sess      *session.Session
	index     *indexdb.SQLiteIndex
	observer  *observer.Server
	telemetry *telemetry.Recorder
	metrics   *telemetry.Exporter
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.handleMetrics)
	mux.HandleFunc("POST /v1/build", a.handleBuild)
	mux.HandleFunc("GET /v1/stats", a.handleStats)
	mux.HandleFunc("GET /v1/runs", a.handleRuns)
	mux.HandleFunc("GET /v1/runs/{id}/segments", a.handleSegments)
	mux.HandleFunc("GET /v1/chunks", a.handleChunks)
	mux.HandleFunc("GET /v1/map.png", a.handleMap)
	if a.observer != nil {
		mux.HandleFunc("/v1/observer/bootstrap", a.observer.BootstrapHandler())
		mux.HandleFunc("/v1/observer/ws", a.observer.WSHandler())
	}
	return mux
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, err error) {
	writeJSON(rw, status, map[string]any{"ok": false, "error": err.Error()})
}

// handleBuild runs a YAML track script posted as the request body.
// ?wait=false fails fast with 409 while another build is running.
func (a *app) handleBuild(rw http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxScriptBytes+1))
	if err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}
	if len(raw) > maxScriptBytes {
		writeError(rw, http.StatusRequestEntityTooLarge, fmt.Errorf("script over %d bytes", maxScriptBytes))
		return
	}
	sc, err := script.Parse(raw)
	if err != nil {
		writeError(rw, http.StatusBadRequest, err)
		return
	}

	build := a.sess.Build
	if wait, err := strconv.ParseBool(r.URL.Query().Get("wait")); err == nil && !wait {
		build = a.sess.TryBuild
	}
	res, err := build(r.Context(), sc)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(rw, http.StatusConflict, err)
	case errors.Is(err, track.ErrInvalidParameter), errors.Is(err, track.ErrDegenerateGeometry):
		writeJSON(rw, http.StatusUnprocessableEntity, res)
	case err != nil:
		writeJSON(rw, http.StatusInternalServerError, res)
	default:
		writeJSON(rw, http.StatusOK, res)
	}
}

type statsResponse struct {
	Stats     track.Stats      `json:"stats"`
	Last      *session.Result  `json:"last,omitempty"`
	Minecarts int              `json:"minecarts"`
	Totals    telemetry.Totals `json:"totals"`
	Observers int              `json:"observers"`
}

func (a *app) handleStats(rw http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Stats:     a.sess.Stats(),
		Minecarts: a.sess.Inventory().Count(track.LocalPlayer, blocks.Minecart),
	}
	if last, ok := a.sess.Last(); ok {
		resp.Last = &last
	}
	if a.telemetry != nil {
		resp.Totals = a.telemetry.Totals()
	}
	if a.observer != nil {
		resp.Observers = a.observer.Sessions()
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *app) handleRuns(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		writeError(rw, http.StatusServiceUnavailable, errors.New("run index disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := a.index.Runs(r.Context(), limit)
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"runs": runs})
}

func (a *app) handleSegments(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		writeError(rw, http.StatusServiceUnavailable, errors.New("run index disabled"))
		return
	}
	id := r.PathValue("id")
	segs, err := a.index.Segments(r.Context(), id)
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"run_id": id, "segments": segs})
}

type chunksResponse struct {
	ChunkSize int              `json:"chunk_size"`
	Palette   []string         `json:"palette"`
	Chunks    []store.ChunkRLE `json:"chunks"`
}

// handleChunks exports loaded chunks. ?cx=&cz= narrows the export to one
// chunk column.
func (a *app) handleChunks(rw http.ResponseWriter, r *http.Request) {
	w := a.sess.World()
	keys := w.LoadedChunkKeys()
	q := r.URL.Query()
	if q.Has("cx") || q.Has("cz") {
		cx, errX := strconv.Atoi(q.Get("cx"))
		cz, errZ := strconv.Atoi(q.Get("cz"))
		if errX != nil || errZ != nil {
			writeError(rw, http.StatusBadRequest, errors.New("cx and cz must both be integers"))
			return
		}
		filtered := keys[:0]
		for _, k := range keys {
			if k.CX == cx && k.CZ == cz {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}
	writeJSON(rw, http.StatusOK, chunksResponse{
		ChunkSize: store.ChunkSize,
		Palette:   w.Palette(),
		Chunks:    w.ExportChunks(keys),
	})
}

func (a *app) handleMap(rw http.ResponseWriter, r *http.Request) {
	scale, _ := strconv.Atoi(r.URL.Query().Get("scale"))
	if scale > 16 {
		scale = 16
	}
	opts := render.Options{Scale: scale, Margin: 2}
	if last, ok := a.sess.Last(); ok {
		opts.Marks = append(opts.Marks, last.Report.End)
	}
	img, err := render.TopDown(a.sess.World(), opts)
	if errors.Is(err, render.ErrNothingTouched) {
		writeError(rw, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err)
		return
	}
	rw.Header().Set("Content-Type", "image/png")
	if err := render.EncodePNG(rw, img); err != nil {
		a.log.Printf("map: %v", err)
	}
}

// handleMetrics serves session and queue gauges followed by the OTel
// instruments collected from a.metrics.
func (a *app) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	st := a.sess.Stats()
	fmt.Fprintf(rw, "# HELP coastercraft_track_length Track length laid by this process.\n")
	fmt.Fprintf(rw, "# TYPE coastercraft_track_length gauge\n")
	fmt.Fprintf(rw, "coastercraft_track_length %d\n", st.TotalLength)

	fmt.Fprintf(rw, "# HELP coastercraft_powered_rails Powered rails laid by this process.\n")
	fmt.Fprintf(rw, "# TYPE coastercraft_powered_rails gauge\n")
	fmt.Fprintf(rw, "coastercraft_powered_rails %d\n", st.TotalPoweredRails)

	if a.observer != nil {
		fmt.Fprintf(rw, "# HELP coastercraft_observer_dropped_total Observer messages dropped on slow sockets.\n")
		fmt.Fprintf(rw, "# TYPE coastercraft_observer_dropped_total counter\n")
		fmt.Fprintf(rw, "coastercraft_observer_dropped_total %d\n", a.observer.Dropped())
	}

	if a.index != nil {
		s := a.index.Stats()
		fmt.Fprintf(rw, "# HELP coastercraft_index_queue_depth Pending index writes.\n")
		fmt.Fprintf(rw, "# TYPE coastercraft_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "coastercraft_index_queue_depth %d\n", s.QueueDepth)

		fmt.Fprintf(rw, "# HELP coastercraft_index_dropped_total Index rows dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE coastercraft_index_dropped_total counter\n")
		fmt.Fprintf(rw, "coastercraft_index_dropped_total{row=%q} %d\n", "run", s.DropRunTotal)
		fmt.Fprintf(rw, "coastercraft_index_dropped_total{row=%q} %d\n", "segment", s.DropSegmentTotal)
	}

	if a.metrics != nil {
		if err := a.metrics.WritePrometheus(r.Context(), rw); err != nil {
			a.log.Printf("metrics: collect: %v", err)
		}
	}
}
