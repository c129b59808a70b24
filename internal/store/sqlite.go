// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/emer/spiking/snn"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current version of the database schema
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    network TEXT NOT NULL,
    seed INTEGER NOT NULL,
    backend TEXT NOT NULL,
    started TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spikes (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    grp INTEGER NOT NULL,
    second INTEGER NOT NULL,
    idx INTEGER NOT NULL,
    ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_spikes_run_grp ON spikes(run_id, grp, second);

CREATE TABLE IF NOT EXISTS group_stats (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    grp INTEGER NOT NULL,
    second INTEGER NOT NULL,
    da REAL NOT NULL,
    ht REAL NOT NULL,
    ach REAL NOT NULL,
    ne REAL NOT NULL,
    rate REAL NOT NULL,
    avg_rate REAL NOT NULL,
    mean_v REAL,
    PRIMARY KEY (run_id, grp, second)
);

CREATE TABLE IF NOT EXISTS conn_stats (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    pre INTEGER NOT NULL,
    post INTEGER NOT NULL,
    second INTEGER NOT NULL,
    n_pre INTEGER NOT NULL,
    n_post INTEGER NOT NULL,
    n_syn INTEGER NOT NULL,
    min_wt REAL NOT NULL,
    max_wt REAL NOT NULL,
    mean_wt REAL NOT NULL,
    n_changed INTEGER NOT NULL,
    abs_change REAL NOT NULL,
    wts BLOB NOT NULL,
    PRIMARY KEY (run_id, pre, post, second)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// SQLiteStore keeps runs in a sqlite database file
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store on the database file at path,
// or an in-memory database for ":memory:"
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	dsn := s.path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if s.path == ":memory:" {
		dsn = s.path + "?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// single writer, and a single connection keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.db = db
	return nil
}

// initSchema creates the tables of a new database, and checks the version of
// an existing one
func initSchema(ctx context.Context, db *sql.DB) error {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) BeginRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, network, seed, backend, started)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Network, int64(run.Seed), run.Backend, run.Started.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, network, seed, backend, started FROM runs ORDER BY started, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var seed int64
		var started string
		if err := rows.Scan(&r.ID, &r.Network, &seed, &r.Backend, &started); err != nil {
			return nil, err
		}
		r.Seed = uint32(seed)
		r.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad start time: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, snap snn.Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	switch sn := snap.(type) {
	case *snn.SpikeSnap:
		return saveSpikes(ctx, db, runID, spikeRows(sn))
	case *snn.GroupSnap:
		gr := groupRow(sn)
		_, err = db.ExecContext(ctx, `
			INSERT INTO group_stats (run_id, grp, second, da, ht, ach, ne, rate, avg_rate, mean_v)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, grp, second) DO UPDATE SET
				da = excluded.da, ht = excluded.ht, ach = excluded.ach, ne = excluded.ne,
				rate = excluded.rate, avg_rate = excluded.avg_rate, mean_v = excluded.mean_v
		`, runID, gr.Group, gr.Second, gr.Neuromod[0], gr.Neuromod[1], gr.Neuromod[2], gr.Neuromod[3],
			gr.Rate, gr.AvgRate, nullFloat(gr.MeanV))
		return err
	case *snn.ConnSnap:
		cr := connRow(sn)
		_, err = db.ExecContext(ctx, `
			INSERT INTO conn_stats (run_id, pre, post, second, n_pre, n_post, n_syn,
				min_wt, max_wt, mean_wt, n_changed, abs_change, wts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, pre, post, second) DO UPDATE SET
				n_syn = excluded.n_syn, min_wt = excluded.min_wt, max_wt = excluded.max_wt,
				mean_wt = excluded.mean_wt, n_changed = excluded.n_changed,
				abs_change = excluded.abs_change, wts = excluded.wts
		`, runID, cr.Pre, cr.Post, cr.Second, cr.NPre, cr.NPost, cr.NSyn,
			cr.MinWt, cr.MaxWt, cr.MeanWt, cr.NChanged, cr.AbsChange, encodeWts(cr.Wts))
		return err
	default:
		return fmt.Errorf("unsupported snapshot type: %T", snap)
	}
}

// saveSpikes inserts the spikes of one second in a single transaction
func saveSpikes(ctx context.Context, db *sql.DB, runID string, rows []SpikeRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO spikes (run_id, grp, second, idx, ms) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sr := range rows {
		if _, err := stmt.ExecContext(ctx, runID, sr.Group, sr.Second, sr.Idx, sr.Ms); err != nil {
			return fmt.Errorf("insert spike: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Spikes(ctx context.Context, runID string, grp int, fromSec, toSec int64) ([]SpikeRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT grp, second, idx, ms FROM spikes
		WHERE run_id = ? AND grp = ? AND second >= ? AND second < ?
		ORDER BY second, ms, rowid
	`, runID, grp, fromSec, toSec)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []SpikeRow
	for rows.Next() {
		var sr SpikeRow
		if err := rows.Scan(&sr.Group, &sr.Second, &sr.Idx, &sr.Ms); err != nil {
			return nil, err
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) GroupStats(ctx context.Context, runID string, grp int) ([]GroupRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT grp, second, da, ht, ach, ne, rate, avg_rate, mean_v FROM group_stats
		WHERE run_id = ? AND grp = ? ORDER BY second
	`, runID, grp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []GroupRow
	for rows.Next() {
		var gr GroupRow
		var meanV sql.NullFloat64
		if err := rows.Scan(&gr.Group, &gr.Second, &gr.Neuromod[0], &gr.Neuromod[1], &gr.Neuromod[2],
			&gr.Neuromod[3], &gr.Rate, &gr.AvgRate, &meanV); err != nil {
			return nil, err
		}
		gr.MeanV = float32(math.NaN())
		if meanV.Valid {
			gr.MeanV = float32(meanV.Float64)
		}
		res = append(res, gr)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) ConnStats(ctx context.Context, runID string, pre, post int) ([]ConnRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT pre, post, second, n_pre, n_post, n_syn, min_wt, max_wt, mean_wt,
			n_changed, abs_change, wts
		FROM conn_stats WHERE run_id = ? AND pre = ? AND post = ? ORDER BY second
	`, runID, pre, post)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []ConnRow
	for rows.Next() {
		var cr ConnRow
		var blob []byte
		if err := rows.Scan(&cr.Pre, &cr.Post, &cr.Second, &cr.NPre, &cr.NPost, &cr.NSyn,
			&cr.MinWt, &cr.MaxWt, &cr.MeanWt, &cr.NChanged, &cr.AbsChange, &blob); err != nil {
			return nil, err
		}
		cr.Wts, err = decodeWts(blob, cr.NPre*cr.NPost)
		if err != nil {
			return nil, fmt.Errorf("conn %d -> %d second %d: %w", pre, post, cr.Second, err)
		}
		res = append(res, cr)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// nullFloat stores NaN as NULL, which sqlite would otherwise do silently
func nullFloat(v float32) sql.NullFloat64 {
	if v != v {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(v), Valid: true}
}

// encodeWts packs weights as little-endian float32 bits, which keeps NaN
func encodeWts(wts []float32) []byte {
	buf := make([]byte, 4*len(wts))
	for i, w := range wts {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(w))
	}
	return buf
}

func decodeWts(buf []byte, n int) ([]float32, error) {
	if len(buf) != 4*n {
		return nil, fmt.Errorf("weights blob has %d bytes, want %d", len(buf), 4*n)
	}
	wts := make([]float32, n)
	for i := range wts {
		wts[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return wts, nil
}
