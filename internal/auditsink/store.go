// Package auditsink persists the configuration audit stream off-chain and
// checks that what it stored is an unbroken hash chain.
package auditsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	lru "github.com/hashicorp/golang-lru/v2"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	configtypes "github.com/sovereignlabor/kernel/x/configurator/types"
)

const codespace = "auditsink"

var (
	ErrNotFound         = errorsmod.Register(codespace, 2, "audit entry not found")
	ErrSequenceConflict = errorsmod.Register(codespace, 3, "conflicting audit entry")
	ErrInvalidEntry     = errorsmod.Register(codespace, 4, "invalid audit entry")
)

// DefaultCacheSize bounds the record-hash dedupe cache.
const DefaultCacheSize = 4096

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    sequence      INTEGER PRIMARY KEY,
    record_hash   TEXT NOT NULL UNIQUE,
    previous_hash TEXT NOT NULL,
    module_key    TEXT NOT NULL,
    parameter_key TEXT NOT NULL,
    target        TEXT NOT NULL,
    payload_hash  TEXT NOT NULL,
    old_value     TEXT NOT NULL,
    new_value     TEXT NOT NULL,
    caller        TEXT NOT NULL,
    block_height  INTEGER NOT NULL,
    timestamp     TEXT NOT NULL,
    ingested_at   INTEGER NOT NULL
);
`

const selectColumns = `sequence, record_hash, previous_hash, module_key, parameter_key, target,
payload_hash, old_value, new_value, caller, block_height, timestamp`

// Store is a SQLite-backed audit log mirror.
type Store struct {
	sqlDB     *sql.DB
	seen      *lru.Cache[string, struct{}]
	logger    log.Logger
	cacheSize int
}

type Option func(*Store)

// WithLogger sets the store logger. The default discards output.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCacheSize sets the dedupe cache size.
func WithCacheSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// Open opens or creates the SQLite audit store at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	s := &Store{logger: log.NewNopLogger(), cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(s)
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	cache, err := lru.New[string, struct{}](s.cacheSize)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	s.sqlDB = sqlDB
	s.seen = cache
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// IngestEvents stores every parameter_updated event in events and ignores
// the rest. It returns how many entries were new.
func (s *Store) IngestEvents(ctx context.Context, events []abci.Event) (int, error) {
	var entries []configtypes.AuditEntry
	for _, ev := range events {
		if ev.Type != configtypes.EventTypeParameterUpdated {
			continue
		}
		entry, err := configtypes.EntryFromEvent(sdk.Event(ev))
		if err != nil {
			return 0, errorsmod.Wrapf(ErrInvalidEntry, "decode event: %s", err)
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return s.Ingest(ctx, entries...)
}

// Ingest stores entries in one transaction. Entries already stored are
// skipped. An entry whose hash does not match its contents, or which reuses
// a stored sequence with a different hash, fails the whole call.
func (s *Store) Ingest(ctx context.Context, entries ...configtypes.AuditEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	for _, e := range entries {
		if got := e.ComputeHash(); got != e.RecordHash {
			return 0, errorsmod.Wrapf(ErrInvalidEntry, "entry %d hash %s, recomputed %s", e.Sequence, e.RecordHash, got)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var fresh []string
	for _, e := range entries {
		if s.seen.Contains(e.RecordHash) {
			continue
		}
		inserted, err := insertEntry(ctx, tx, e)
		if err != nil {
			s.logger.Warn("audit ingest rejected", "sequence", e.Sequence, "record_hash", e.RecordHash, "err", err.Error())
			return 0, err
		}
		if inserted {
			fresh = append(fresh, e.RecordHash)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}
	for _, e := range entries {
		s.seen.Add(e.RecordHash, struct{}{})
	}
	if len(fresh) > 0 {
		s.logger.Info("audit entries ingested", "count", len(fresh))
	}
	return len(fresh), nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e configtypes.AuditEntry) (bool, error) {
	var existing string
	err := tx.QueryRowContext(ctx, `SELECT record_hash FROM audit_entries WHERE sequence = ?`, e.Sequence).Scan(&existing)
	switch {
	case err == nil && existing == e.RecordHash:
		return false, nil
	case err == nil:
		return false, errorsmod.Wrapf(ErrSequenceConflict, "sequence %d stored as %s, got %s", e.Sequence, existing, e.RecordHash)
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("lookup sequence %d: %w", e.Sequence, err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO audit_entries (
		   sequence,
		   record_hash,
		   previous_hash,
		   module_key,
		   parameter_key,
		   target,
		   payload_hash,
		   old_value,
		   new_value,
		   caller,
		   block_height,
		   timestamp,
		   ingested_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Sequence,
		e.RecordHash,
		e.PreviousHash,
		e.ModuleKey.Hex(),
		e.ParameterKey.Hex(),
		e.Target,
		e.PayloadHash,
		hexutil.Encode(e.OldValue),
		hexutil.Encode(e.NewValue),
		e.Caller,
		e.BlockHeight,
		e.Timestamp,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, errorsmod.Wrapf(ErrSequenceConflict, "record hash %s already stored at another sequence", e.RecordHash)
		}
		return false, fmt.Errorf("insert audit entry %d: %w", e.Sequence, err)
	}
	return true, nil
}

// Entry returns the stored entry at seq.
func (s *Store) Entry(ctx context.Context, seq uint64) (configtypes.AuditEntry, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM audit_entries WHERE sequence = ?`, seq)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return configtypes.AuditEntry{}, errorsmod.Wrapf(ErrNotFound, "sequence %d", seq)
	}
	return e, err
}

// Entries returns up to limit entries from sequence from onward. A zero
// limit returns everything.
func (s *Store) Entries(ctx context.Context, from uint64, limit int) ([]configtypes.AuditEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM audit_entries WHERE sequence >= ? ORDER BY sequence`
	args := []any{from}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []configtypes.AuditEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

// Head returns the highest stored entry.
func (s *Store) Head(ctx context.Context) (configtypes.AuditEntry, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM audit_entries ORDER BY sequence DESC LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return configtypes.AuditEntry{}, false, nil
	}
	if err != nil {
		return configtypes.AuditEntry{}, false, err
	}
	return e, true, nil
}

// Verify checks the stored log starts at sequence 1, has no gaps and links
// every entry to the one before it.
func (s *Store) Verify(ctx context.Context) error {
	entries, err := s.Entries(ctx, 1, 0)
	if err != nil {
		return err
	}
	if len(entries) > 0 && entries[0].Sequence != 1 {
		return errorsmod.Wrapf(configtypes.ErrBrokenChain, "stored log starts at sequence %d", entries[0].Sequence)
	}
	return configtypes.VerifyChain(configtypes.GenesisHash, entries)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (configtypes.AuditEntry, error) {
	var (
		e                   configtypes.AuditEntry
		moduleKey, paramKey string
		oldValue, newValue  string
	)
	if err := row.Scan(
		&e.Sequence,
		&e.RecordHash,
		&e.PreviousHash,
		&moduleKey,
		&paramKey,
		&e.Target,
		&e.PayloadHash,
		&oldValue,
		&newValue,
		&e.Caller,
		&e.BlockHeight,
		&e.Timestamp,
	); err != nil {
		return e, err
	}
	e.ModuleKey = common.HexToHash(moduleKey)
	e.ParameterKey = common.HexToHash(paramKey)
	var err error
	if e.OldValue, err = hexutil.Decode(oldValue); err != nil {
		return e, fmt.Errorf("decode old value of %d: %w", e.Sequence, err)
	}
	if e.NewValue, err = hexutil.Decode(newValue); err != nil {
		return e, fmt.Errorf("decode new value of %d: %w", e.Sequence, err)
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
