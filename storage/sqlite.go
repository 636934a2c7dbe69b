package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/chazu/dicelang/vm"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores every record in one table of a SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening database: %w", err)
	}
	// One connection keeps writes serialized and ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS variables (
		var_type     TEXT    NOT NULL,
		owner_id     INTEGER NOT NULL,
		name         TEXT    NOT NULL,
		value_string TEXT    NOT NULL,
		UNIQUE (var_type, owner_id, name)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: creating table: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file.
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) Load(tier vm.Tier, owner int64, name string) (vm.Value, bool, error) {
	var text string
	err := b.db.QueryRow(
		"SELECT value_string FROM variables WHERE var_type = ? AND owner_id = ? AND name = ?",
		tier.String(), owner, name,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: querying %s: %w", name, err)
	}
	v, err := vm.DecodeLiteral(text)
	if err != nil {
		log.Warningf("skipping corrupt %s variable %q of %d: %v", tier, name, owner, err)
		return nil, false, nil
	}
	return v, true, nil
}

func (b *SQLiteBackend) Store(tier vm.Tier, owner int64, name string, v vm.Value) error {
	_, err := b.db.Exec(
		`INSERT INTO variables (var_type, owner_id, name, value_string) VALUES (?, ?, ?, ?)
		 ON CONFLICT (var_type, owner_id, name) DO UPDATE SET value_string = excluded.value_string`,
		tier.String(), owner, name, vm.EncodeLiteral(v),
	)
	if err != nil {
		return fmt.Errorf("storage: saving %s: %w", name, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(tier vm.Tier, owner int64, name string) error {
	_, err := b.db.Exec(
		"DELETE FROM variables WHERE var_type = ? AND owner_id = ? AND name = ?",
		tier.String(), owner, name,
	)
	if err != nil {
		return fmt.Errorf("storage: deleting %s: %w", name, err)
	}
	return nil
}

func (b *SQLiteBackend) Names(tier vm.Tier, owner int64) ([]string, error) {
	rows, err := b.db.Query(
		"SELECT name FROM variables WHERE var_type = ? AND owner_id = ? ORDER BY name",
		tier.String(), owner,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: listing names: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("storage: listing names: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Each reads every row before calling fn, so fn may write to the backend.
func (b *SQLiteBackend) Each(fn func(Record) error) error {
	rows, err := b.db.Query("SELECT var_type, owner_id, name, value_string FROM variables")
	if err != nil {
		return fmt.Errorf("storage: scanning variables: %w", err)
	}
	var recs []Record
	for rows.Next() {
		var tierName, name, text string
		var owner int64
		if err := rows.Scan(&tierName, &owner, &name, &text); err != nil {
			rows.Close()
			return fmt.Errorf("storage: scanning variables: %w", err)
		}
		tier, err := vm.ParseTier(tierName)
		if err != nil {
			log.Warningf("skipping variable %q: %v", name, err)
			continue
		}
		v, err := vm.DecodeLiteral(text)
		if err != nil {
			log.Warningf("skipping corrupt %s variable %q of %d: %v", tier, name, owner, err)
			continue
		}
		recs = append(recs, Record{Tier: tier, Owner: owner, Name: name, Value: v})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("storage: scanning variables: %w", err)
	}

	sortRecords(recs)
	for _, r := range recs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
