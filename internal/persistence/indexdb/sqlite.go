package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"colonysim.ai/internal/sim/catalogs"
	"colonysim.ai/internal/sim/colony"
	"colonysim.ai/internal/sim/tuning"
)

// SQLiteIndex is a secondary read-model of planet ticks. Writes are queued and
// applied by a single goroutine; the JSONL tick log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan colony.TickLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed    atomic.Bool
	dropTicks atomic.Uint64
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTickTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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
		db: db,
		ch: make(chan colony.TickLogEntry, 4096),
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
		`CREATE TABLE IF NOT EXISTS ticks (
			planet_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			energy_produced INTEGER NOT NULL,
			energy_demand INTEGER NOT NULL,
			energy_assigned INTEGER NOT NULL,
			workers_available INTEGER NOT NULL,
			worker_demand INTEGER NOT NULL,
			workers_assigned INTEGER NOT NULL,
			operational INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (planet_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS building_ticks (
			planet_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			building_id TEXT NOT NULL,
			prototype TEXT NOT NULL,
			status TEXT NOT NULL,
			health INTEGER NOT NULL,
			progress INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			energy_received INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			operational INTEGER NOT NULL,
			PRIMARY KEY (planet_id, tick, building_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_building_ticks_building ON building_ticks(building_id, tick);`,
		`CREATE TABLE IF NOT EXISTS removals (
			planet_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			building_id TEXT NOT NULL,
			PRIMARY KEY (planet_id, building_id)
		);`,
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

func (s *SQLiteIndex) WriteTick(entry colony.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		// Drop if the indexer falls behind.
		s.dropTicks.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTicks.Load(),
	}
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "buildings.json")); err == nil {
			rows = append(rows, kv{name: "buildings_defs", digest: cats.Buildings.Digest, json: b})
		}
	}
	{
		// Canonical form sorted by id for easier querying.
		defs := make([]*catalogs.BuildingDef, 0, len(cats.Buildings.ByID))
		for _, d := range cats.Buildings.ByID {
			defs = append(defs, d)
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
		if b, _ := json.Marshal(defs); len(b) > 0 {
			rows = append(rows, kv{name: "buildings", digest: cats.Buildings.Digest, json: b})
		}
	}
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

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(planet_id,tick,energy_produced,energy_demand,energy_assigned,workers_available,worker_demand,workers_assigned,operational,buildings,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertBuilding, _ := s.db.Prepare(`INSERT OR REPLACE INTO building_ticks(planet_id,tick,building_id,prototype,status,health,progress,energy,energy_received,workers,operational) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertRemoval, _ := s.db.Prepare(`INSERT OR REPLACE INTO removals(planet_id,tick,building_id) VALUES(?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertBuilding, insertRemoval} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
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
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil || insertTick == nil || insertBuilding == nil || insertRemoval == nil {
			continue
		}
		if err := s.applyTick(tx, insertTick, insertBuilding, insertRemoval, e); err != nil {
			rollback()
			continue
		}
		opCount += 1 + len(e.Buildings) + len(e.Removed)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func (s *SQLiteIndex) applyTick(tx *sql.Tx, insertTick, insertBuilding, insertRemoval *sql.Stmt, e colony.TickLogEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := tx.Stmt(insertTick).Exec(
		e.PlanetID,
		int64(e.Tick),
		e.EnergyProduced,
		e.EnergyDemand,
		e.EnergyAssigned,
		e.WorkersAvailable,
		e.WorkerDemand,
		e.WorkersAssigned,
		e.Operational,
		len(e.Buildings),
		string(raw),
	); err != nil {
		return err
	}
	for _, b := range e.Buildings {
		if _, err := tx.Stmt(insertBuilding).Exec(
			e.PlanetID,
			int64(e.Tick),
			b.ID,
			b.Prototype,
			b.Status.String(),
			b.Health,
			b.Progress,
			b.Energy,
			b.Received,
			b.Workers,
			boolInt(b.Operational),
		); err != nil {
			return err
		}
	}
	for _, id := range e.Removed {
		if _, err := tx.Stmt(insertRemoval).Exec(e.PlanetID, int64(e.Tick), id); err != nil {
			return err
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
