// Package propdb persists gridprop property snapshots in a SQLite
// database. The schema is managed with embedded golang-migrate migrations
// and applied automatically on Open.
package propdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/strata-data/gridprop"
	"github.com/strata-data/gridprop/internal/config"
)

// Store wraps the snapshot database. It implements gridprop.SnapshotStore.
type Store struct {
	*sql.DB

	busyRetries int
	busyBackoff time.Duration
	defaultKeep int
}

// Open opens the snapshot database at path, creating it when missing, and
// runs pending migrations. Busy-retry and prune tuning come from the
// optional tuning config (GRIDPROP_TUNING).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db %s: %w", path, err)
	}
	cfg := config.LoadDefault()
	s := &Store{
		DB:          db,
		busyRetries: cfg.GetStoreBusyRetries(),
		busyBackoff: cfg.GetStoreBusyBackoff(),
		defaultKeep: cfg.GetSnapshotKeep(),
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SnapshotSummary is one snapshot row without the values blob.
type SnapshotSummary struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Date      string    `json:"date,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
	NCol      int       `json:"ncol"`
	NRow      int       `json:"nrow"`
	NLay      int       `json:"nlay"`
	Discrete  bool      `json:"discrete"`
	Reason    string    `json:"reason,omitempty"`
	Label     string    `json:"label,omitempty"`
	BlobBytes int       `json:"blob_bytes"`
}

// InsertPropSnapshot persists a snapshot and returns the new row id. A nil
// snapshot is a no-op. Snapshots without a UUID get one assigned.
func (s *Store) InsertPropSnapshot(snap *gridprop.PropSnapshot) (int64, error) {
	if snap == nil {
		return 0, nil
	}
	if snap.UUID == "" {
		snap.UUID = uuid.NewString()
	}
	taken := snap.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	codesJSON, err := marshalCodes(snap.Codes)
	if err != nil {
		return 0, fmt.Errorf("encoding codes for snapshot %s: %w", snap.UUID, err)
	}

	stmt := `INSERT INTO prop_snapshots (uuid, name, prop_date, taken_unix_nanos, ncol, nrow, nlay, discrete, dtype, codes_json, values_blob, reason, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var id int64
	err = s.retryOnBusy(func() error {
		res, err := s.Exec(stmt,
			snap.UUID,
			snap.Name,
			nullStr(snap.Date),
			taken.UnixNano(),
			snap.NCol, snap.NRow, snap.NLay,
			snap.Discrete,
			snap.DType,
			codesJSON,
			snap.Blob,
			nullStr(snap.Reason),
			nullStr(snap.Label),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot %s: %w", snap.UUID, err)
	}
	return id, nil
}

const snapshotColumns = `uuid, name, prop_date, taken_unix_nanos, ncol, nrow, nlay, discrete, dtype, codes_json, values_blob, reason, label`

// GetByID returns the snapshot with the given row id, or nil when absent.
func (s *Store) GetByID(id int64) (*gridprop.PropSnapshot, error) {
	row := s.QueryRow(`SELECT `+snapshotColumns+` FROM prop_snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot id %d: %w", id, err)
	}
	return snap, nil
}

// GetByUUID returns the snapshot with the given UUID, or nil when absent.
func (s *Store) GetByUUID(snapUUID string) (*gridprop.PropSnapshot, error) {
	row := s.QueryRow(`SELECT `+snapshotColumns+` FROM prop_snapshots WHERE uuid = ?`, snapUUID)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot %s: %w", snapUUID, err)
	}
	return snap, nil
}

// GetLatest returns the most recent snapshot for a property name, or nil
// when the name has none.
func (s *Store) GetLatest(name string) (*gridprop.PropSnapshot, error) {
	row := s.QueryRow(`SELECT `+snapshotColumns+` FROM prop_snapshots
		WHERE name = ? ORDER BY taken_unix_nanos DESC, id DESC LIMIT 1`, name)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot for %q: %w", name, err)
	}
	return snap, nil
}

// List returns recent snapshot summaries, most recent first, without the
// values blobs. An empty name lists every property.
func (s *Store) List(name string, limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, uuid, name, prop_date, taken_unix_nanos, ncol, nrow, nlay, discrete, reason, label, length(values_blob)
		FROM prop_snapshots
	`
	args := []interface{}{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY taken_unix_nanos DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []SnapshotSummary
	for rows.Next() {
		var sum SnapshotSummary
		var date, reason, label sql.NullString
		var taken int64
		if err := rows.Scan(&sum.ID, &sum.UUID, &sum.Name, &date, &taken,
			&sum.NCol, &sum.NRow, &sum.NLay, &sum.Discrete, &reason, &label, &sum.BlobBytes); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		sum.TakenAt = time.Unix(0, taken)
		if date.Valid {
			sum.Date = date.String
		}
		if reason.Valid {
			sum.Reason = reason.String
		}
		if label.Valid {
			sum.Label = label.String
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Delete removes the snapshot with the given UUID.
func (s *Store) Delete(snapUUID string) error {
	return s.retryOnBusy(func() error {
		_, err := s.Exec(`DELETE FROM prop_snapshots WHERE uuid = ?`, snapUUID)
		return err
	})
}

// Prune keeps the most recent keep snapshots for a property name and
// deletes the rest, returning the number removed. A negative keep uses the
// configured default; zero removes everything for the name.
func (s *Store) Prune(name string, keep int) (int, error) {
	if keep < 0 {
		keep = s.defaultKeep
	}
	var removed int64
	err := s.retryOnBusy(func() error {
		res, err := s.Exec(`
			DELETE FROM prop_snapshots
			WHERE name = ? AND id NOT IN (
				SELECT id FROM prop_snapshots
				WHERE name = ?
				ORDER BY taken_unix_nanos DESC, id DESC
				LIMIT ?
			)`, name, name, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots for %q: %w", name, err)
	}
	return int(removed), nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*gridprop.PropSnapshot, error) {
	var snap gridprop.PropSnapshot
	var date, codesJSON, reason, label sql.NullString
	var taken int64
	err := row.Scan(&snap.UUID, &snap.Name, &date, &taken,
		&snap.NCol, &snap.NRow, &snap.NLay, &snap.Discrete, &snap.DType,
		&codesJSON, &snap.Blob, &reason, &label)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap.TakenAt = time.Unix(0, taken)
	if date.Valid {
		snap.Date = date.String
	}
	if reason.Valid {
		snap.Reason = reason.String
	}
	if label.Valid {
		snap.Label = label.String
	}
	if codesJSON.Valid && codesJSON.String != "" {
		if err := json.Unmarshal([]byte(codesJSON.String), &snap.Codes); err != nil {
			return nil, fmt.Errorf("decoding codes: %w", err)
		}
	}
	return &snap, nil
}

// marshalCodes encodes a code table as JSON, treating an empty table as NULL.
func marshalCodes(codes gridprop.CodeTable) (*string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return nil, err
	}
	str := string(data)
	return &str, nil
}

// nullStr returns nil for empty strings, pointer to string otherwise.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// retryOnBusy runs fn, retrying with linear backoff while SQLite reports
// the database as busy or locked. Other errors return immediately.
func (s *Store) retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < s.busyRetries; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * s.busyBackoff)
	}
	return err
}

// isSQLiteBusy matches the driver's busy and locked conditions, which
// surface as plain error strings.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
