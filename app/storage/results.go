package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/akismet/app/storage/engine"
	"github.com/umputun/akismet/lib/akismet"
)

// ErrNotFound is returned when the record doesn't exist
var ErrNotFound = errors.New("not found")

// Results is a storage for checks and submissions sent to akismet
type Results struct {
	*engine.SQL
	engine.RWLocker
}

// Kind is a kind of the stored record
type Kind string

// enum of record kinds
const (
	KindCheck Kind = "check"
	KindSpam  Kind = "spam"
	KindHam   Kind = "ham"
)

// Record is a single check result or submission with parameters sent to the API
type Record struct {
	ID         string         `db:"id" json:"id"`
	GID        string         `db:"gid" json:"-"`
	Kind       Kind           `db:"kind" json:"kind"`
	Spam       bool           `db:"spam" json:"spam"` // verdict for checks, submitted class for submissions
	ParamsJSON string         `db:"params" json:"-"`
	Params     akismet.Params `db:"-" json:"params"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// results-related command constants
const (
	CmdAddResult engine.DBCmd = iota + 100
	CmdGetResult
	CmdListResults
	CmdCountResults
	CmdCleanupResults
)

var resultsQueries = engine.NewQueryMap().
	Add(engine.CmdCreateTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			spam BOOLEAN NOT NULL DEFAULT 0,
			params TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			spam BOOLEAN NOT NULL DEFAULT false,
			params TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}).
	AddSame(engine.CmdCreateIndexes, `CREATE INDEX IF NOT EXISTS idx_results_gid_time ON results(gid, created_at DESC)`).
	AddSame(CmdAddResult, `INSERT INTO results (id, gid, kind, spam, params, created_at)
		VALUES (:id, :gid, :kind, :spam, :params, :created_at)`).
	AddSame(CmdGetResult, `SELECT id, gid, kind, spam, params, created_at FROM results WHERE gid = ? AND id = ?`).
	AddSame(CmdListResults, `SELECT id, gid, kind, spam, params, created_at FROM results WHERE gid = ?
		ORDER BY created_at DESC, id LIMIT ?`).
	AddSame(CmdCountResults, `SELECT COUNT(*) FROM results WHERE gid = ?`).
	AddSame(CmdCleanupResults, `DELETE FROM results WHERE gid = ? AND created_at < ?`)

// NewResults creates a new Results storage and makes the table if needed
func NewResults(ctx context.Context, db *engine.SQL) (*Results, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Results{SQL: db, RWLocker: db.MakeLock()}
	if err := db.InitTable(ctx, engine.TableConfig{Name: "results", Queries: resultsQueries}); err != nil {
		return nil, fmt.Errorf("failed to init results storage: %w", err)
	}
	return res, nil
}

// Add stores the record and returns its id. Empty ID is generated, zero CreatedAt is set to now.
func (r *Results) Add(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.GID = r.GID()

	data, err := json.Marshal(rec.Params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}
	rec.ParamsJSON = string(data)

	query, err := resultsQueries.Pick(r.Type(), CmdAddResult)
	if err != nil {
		return "", fmt.Errorf("failed to get query: %w", err)
	}

	r.Lock()
	defer r.Unlock()
	if _, err := r.NamedExecContext(ctx, query, rec); err != nil {
		return "", fmt.Errorf("failed to add %s result: %w", rec.Kind, err)
	}
	log.Printf("[DEBUG] %s result %s stored, spam:%v", rec.Kind, rec.ID, rec.Spam)
	return rec.ID, nil
}

// Get returns the record by id, ErrNotFound if missing
func (r *Results) Get(ctx context.Context, id string) (Record, error) {
	query, err := resultsQueries.Pick(r.Type(), CmdGetResult)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get query: %w", err)
	}

	r.RLock()
	defer r.RUnlock()
	var rec Record
	if err := r.GetContext(ctx, &rec, r.Adopt(query), r.GID(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("result %s: %w", id, ErrNotFound)
		}
		return Record{}, fmt.Errorf("failed to get result %s: %w", id, err)
	}
	if err := rec.decode(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns up to limit most recent records
func (r *Results) List(ctx context.Context, limit int) ([]Record, error) {
	query, err := resultsQueries.Pick(r.Type(), CmdListResults)
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	r.RLock()
	defer r.RUnlock()
	recs := []Record{}
	if err := r.SelectContext(ctx, &recs, r.Adopt(query), r.GID(), limit); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	for i := range recs {
		if err := recs[i].decode(); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Count returns the number of stored records
func (r *Results) Count(ctx context.Context) (int, error) {
	query, err := resultsQueries.Pick(r.Type(), CmdCountResults)
	if err != nil {
		return 0, fmt.Errorf("failed to get query: %w", err)
	}

	r.RLock()
	defer r.RUnlock()
	var count int
	if err := r.GetContext(ctx, &count, r.Adopt(query), r.GID()); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// Cleanup removes records older than maxAge and returns the number of removed records
func (r *Results) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	query, err := resultsQueries.Pick(r.Type(), CmdCleanupResults)
	if err != nil {
		return 0, fmt.Errorf("failed to get query: %w", err)
	}

	r.Lock()
	defer r.Unlock()
	res, err := r.ExecContext(ctx, r.Adopt(query), r.GID(), time.Now().Add(-maxAge).UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n > 0 {
		log.Printf("[INFO] removed %d results older than %v", n, maxAge)
	}
	return n, nil
}

func (rec *Record) decode() error {
	if err := json.Unmarshal([]byte(rec.ParamsJSON), &rec.Params); err != nil {
		return fmt.Errorf("failed to unmarshal params of result %s: %w", rec.ID, err)
	}
	rec.CreatedAt = rec.CreatedAt.Local()
	return nil
}
