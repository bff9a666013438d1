package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/tuning"
)

// SQLiteIndex keeps per-run statistics queryable. Writes are queued and
// applied by one goroutine in batched transactions; the journal stays the
// full record.
type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRun     atomic.Uint64
	dropSegment atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqSegment
)

type req struct {
	kind    reqKind
	run     RunRow
	segment SegmentRow
}

// RunRow is one finished build.
type RunRow struct {
	RunID             string `json:"run_id"`
	Name              string `json:"name"`
	StartedAt         string `json:"started_at"`
	FinishedAt        string `json:"finished_at"`
	Steps             int    `json:"steps"`
	TotalLength       int    `json:"total_length"`
	TotalPoweredRails int    `json:"total_powered_rails"`
	Blocks            int    `json:"blocks"`
	Err               string `json:"err,omitempty"`
}

// SegmentRow is one script step of a run.
type SegmentRow struct {
	RunID        string `json:"run_id"`
	Index        int    `json:"index"`
	Op           string `json:"op"`
	DeltaLength  int    `json:"delta_length"`
	DeltaPowered int    `json:"delta_powered"`
	EndX         int    `json:"end_x"`
	EndY         int    `json:"end_y"`
	EndZ         int    `json:"end_z"`
	Facing       string `json:"facing"`
}

type Stats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropRunTotal     uint64 `json:"drop_run_total"`
	DropSegmentTotal uint64 `json:"drop_segment_total"`
}

// Option configures OpenSQLite.
type Option func(*SQLiteIndex)

// WithLogger routes writer failures to l. They are discarded by default.
func WithLogger(l *log.Logger) Option {
	return func(s *SQLiteIndex) {
		if l != nil {
			s.log = l
		}
	}
}

func OpenSQLite(path string, opts ...Option) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: log.New(io.Discard, "", 0),
		ch:  make(chan req, 16384),
	}
	for _, o := range opts {
		o(s)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			steps INTEGER NOT NULL,
			total_length INTEGER NOT NULL,
			total_powered_rails INTEGER NOT NULL,
			blocks INTEGER NOT NULL,
			err TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);`,
		`CREATE TABLE IF NOT EXISTS segments (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			op TEXT NOT NULL,
			delta_length INTEGER NOT NULL,
			delta_powered INTEGER NOT NULL,
			end_x INTEGER NOT NULL,
			end_y INTEGER NOT NULL,
			end_z INTEGER NOT NULL,
			facing TEXT NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_segments_op ON segments(op);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropRunTotal:     s.dropRun.Load(),
		DropSegmentTotal: s.dropSegment.Load(),
	}
}

// RecordSegment queues one step row. It never blocks; rows are dropped
// when the writer falls behind.
func (s *SQLiteIndex) RecordSegment(r SegmentRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSegment, segment: r}:
	default:
		s.dropSegment.Add(1)
	}
}

func (s *SQLiteIndex) RecordRun(r RunRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRun, run: r}:
	default:
		s.dropRun.Add(1)
	}
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteIndex) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,name,started_at,finished_at,steps,total_length,total_powered_rails,blocks,COALESCE(err,'')
		FROM runs ORDER BY finished_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Name, &r.StartedAt, &r.FinishedAt, &r.Steps, &r.TotalLength, &r.TotalPoweredRails, &r.Blocks, &r.Err); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Segments returns the steps of one run in order.
func (s *SQLiteIndex) Segments(ctx context.Context, runID string) ([]SegmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,idx,op,delta_length,delta_powered,end_x,end_y,end_z,facing
		FROM segments WHERE run_id=? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SegmentRow
	for rows.Next() {
		var r SegmentRow
		if err := rows.Scan(&r.RunID, &r.Index, &r.Op, &r.DeltaLength, &r.DeltaPowered, &r.EndX, &r.EndY, &r.EndZ, &r.Facing); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("blocks_defs", filepath.Join(configDir, "blocks.json"))
		read("items_defs", filepath.Join(configDir, "items.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["blocks_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b := raw["items_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, err := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,name,started_at,finished_at,steps,total_length,total_powered_rails,blocks,err) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		s.log.Printf("indexdb: prepare run insert: %v (run rows will be skipped)", err)
	}
	insertSegment, err := s.db.Prepare(`INSERT OR REPLACE INTO segments(run_id,idx,op,delta_length,delta_powered,end_x,end_y,end_z,facing) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		s.log.Printf("indexdb: prepare segment insert: %v (segment rows will be skipped)", err)
	}
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertSegment != nil {
			_ = insertSegment.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.log.Printf("indexdb: begin: %v", err)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Printf("indexdb: commit of %d rows: %v", opCount, err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	// rollback drops every row queued in the open transaction.
	rollback := func(cause error) {
		if tx == nil {
			return
		}
		s.log.Printf("indexdb: dropping batch of %d rows: %v", opCount+1, cause)
		if err := tx.Rollback(); err != nil {
			s.log.Printf("indexdb: rollback: %v", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	// An idle open tx would hold the only connection and stall readers.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		var r req
		select {
		case <-ticker.C:
			flushIfNeeded()
			continue
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			ru := r.run
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(
					ru.RunID, ru.Name, ru.StartedAt, ru.FinishedAt,
					ru.Steps, ru.TotalLength, ru.TotalPoweredRails, ru.Blocks, ru.Err,
				); err != nil {
					rollback(fmt.Errorf("run %s: %w", ru.RunID, err))
					continue
				}
				opCount++
			}
			// A finished run is what readers ask for.
			commit()
			continue

		case reqSegment:
			sg := r.segment
			if insertSegment != nil {
				if _, err := tx.Stmt(insertSegment).Exec(
					sg.RunID, sg.Index, sg.Op, sg.DeltaLength, sg.DeltaPowered,
					sg.EndX, sg.EndY, sg.EndZ, sg.Facing,
				); err != nil {
					rollback(fmt.Errorf("segment %s/%d: %w", sg.RunID, sg.Index, err))
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}
}
