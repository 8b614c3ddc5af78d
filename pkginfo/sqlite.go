package pkginfo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors for registry operations.
var (
	ErrPackageDuplicate = errors.New("package already registered")
)

// Store is a SQLite-backed package registry implementing Source. It
// stands in for the platform package manager when encoding identities
// off-device: the same UID, name, version and certificate data, held
// in two tables.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates a registry database and runs migrations.
// Use ":memory:" for an ephemeral registry.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps pragmas and :memory: databases coherent
	// across the database/sql pool.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	// Enable foreign key enforcement (off by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS packages (
			uid INTEGER NOT NULL,
			name TEXT NOT NULL,
			version_code INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (uid, name)
		)`,
		`CREATE TABLE IF NOT EXISTS signing_certs (
			uid INTEGER NOT NULL,
			package_name TEXT NOT NULL,
			cert BLOB NOT NULL,
			PRIMARY KEY (uid, package_name, cert),
			FOREIGN KEY (uid, package_name) REFERENCES packages(uid, name) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// AddPackage registers a package and its signing certificates under
// uid. Registering the same uid/name pair twice fails with
// ErrPackageDuplicate.
func (s *Store) AddPackage(uid uint32, rec Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO packages (uid, name, version_code) VALUES (?, ?, ?)`,
		uid, rec.Name, rec.VersionCode,
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return ErrPackageDuplicate
		}
		return fmt.Errorf("insert package: %w", err)
	}

	for _, cert := range rec.SigningCerts {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO signing_certs (uid, package_name, cert) VALUES (?, ?, ?)`,
			uid, rec.Name, cert,
		); err != nil {
			return fmt.Errorf("insert signing cert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RemovePackage deletes a package and, via the foreign key cascade,
// its signing certificates. Returns true if a row was deleted.
func (s *Store) RemovePackage(uid uint32, name string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM packages WHERE uid = ? AND name = ?`, uid, name)
	if err != nil {
		return false, fmt.Errorf("delete package: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListUIDs returns every UID with at least one registered package.
func (s *Store) ListUIDs() ([]uint32, error) {
	rows, err := s.db.Query(`SELECT DISTINCT uid FROM packages ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list uids: %w", err)
	}
	defer rows.Close()

	var uids []uint32
	for rows.Next() {
		var uid uint32
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan uid: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}

// PackagesForUID implements Source.
func (s *Store) PackagesForUID(ctx context.Context, uid uint32) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, version_code FROM packages WHERE uid = ? ORDER BY name`, uid)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.VersionCode); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range recs {
		certs, err := s.signingCerts(ctx, uid, recs[i].Name)
		if err != nil {
			return nil, err
		}
		recs[i].SigningCerts = certs
	}
	return recs, nil
}

func (s *Store) signingCerts(ctx context.Context, uid uint32, name string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cert FROM signing_certs WHERE uid = ? AND package_name = ? ORDER BY cert`, uid, name)
	if err != nil {
		return nil, fmt.Errorf("query signing certs: %w", err)
	}
	defer rows.Close()

	var certs [][]byte
	for rows.Next() {
		var cert []byte
		if err := rows.Scan(&cert); err != nil {
			return nil, fmt.Errorf("scan signing cert: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}
