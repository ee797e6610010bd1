package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/umputun/akismet/app/storage/engine"
)

// ErrNoSettings is returned by Store when nothing is saved for the instance
var ErrNoSettings = errors.New("no settings found in database")

// Store provides access to settings stored in database, one record per instance (gid)
type Store struct {
	*engine.SQL
	engine.RWLocker
	crypter *Crypter // optional, encrypts sensitive fields if set
}

// config-related command constants
const (
	CmdUpsertConfig engine.DBCmd = iota + 200
	CmdSelectConfig
	CmdDeleteConfig
	CmdSelectConfigUpdatedAt
)

var configQueries = engine.NewQueryMap().
	Add(engine.CmdCreateTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS config (
			id INTEGER PRIMARY KEY,
			gid TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS config (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid)
		)`,
	}).
	Add(CmdUpsertConfig, engine.Query{
		Sqlite: `INSERT INTO config (gid, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (gid) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		Postgres: `INSERT INTO config (gid, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (gid) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	}).
	AddSame(CmdSelectConfig, `SELECT data FROM config WHERE gid = ?`).
	AddSame(CmdDeleteConfig, `DELETE FROM config WHERE gid = ?`).
	AddSame(CmdSelectConfigUpdatedAt, `SELECT updated_at FROM config WHERE gid = ?`)

// NewStore creates a new settings store, crypter is optional
func NewStore(ctx context.Context, db *engine.SQL, crypter *Crypter) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("no db provided")
	}
	res := &Store{SQL: db, RWLocker: db.MakeLock(), crypter: crypter}
	if err := db.InitTable(ctx, engine.TableConfig{Name: "config", Queries: configQueries}); err != nil {
		return nil, fmt.Errorf("failed to init config table: %w", err)
	}
	return res, nil
}

// Load retrieves the settings from the database, sensitive fields are decrypted
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	query, err := configQueries.Pick(s.Type(), CmdSelectConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get select query: %w", err)
	}

	s.RLock()
	var data string
	err = s.GetContext(ctx, &data, s.Adopt(query), s.GID())
	s.RUnlock()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSettings
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	res := New()
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if s.crypter != nil {
		if err := s.crypter.DecryptSensitiveFields(res); err != nil {
			return nil, fmt.Errorf("failed to decrypt settings: %w", err)
		}
	}
	return res, nil
}

// Save stores the settings to the database. Transient fields are never saved,
// sensitive fields are encrypted if crypter is set.
func (s *Store) Save(ctx context.Context, settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("nil settings")
	}

	cp := *settings
	cp.Transient = TransientSettings{}
	if s.crypter != nil {
		if err := s.crypter.EncryptSensitiveFields(&cp); err != nil {
			return fmt.Errorf("failed to encrypt settings: %w", err)
		}
	}

	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	query, err := configQueries.Pick(s.Type(), CmdUpsertConfig)
	if err != nil {
		return fmt.Errorf("failed to get upsert query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	if _, err = s.ExecContext(ctx, s.Adopt(query), s.GID(), string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Delete removes the settings from the database
func (s *Store) Delete(ctx context.Context) error {
	query, err := configQueries.Pick(s.Type(), CmdDeleteConfig)
	if err != nil {
		return fmt.Errorf("failed to get delete query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	if _, err = s.ExecContext(ctx, s.Adopt(query), s.GID()); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}

// LastUpdated returns the last update time of the settings
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	query, err := configQueries.Pick(s.Type(), CmdSelectConfigUpdatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get updated_at query: %w", err)
	}

	s.RLock()
	defer s.RUnlock()
	var updatedAt time.Time
	if err = s.GetContext(ctx, &updatedAt, s.Adopt(query), s.GID()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNoSettings
		}
		return time.Time{}, fmt.Errorf("failed to get settings update time: %w", err)
	}
	return updatedAt, nil
}
