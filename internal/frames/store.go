package frames

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"framewise/internal/config"
)

// ErrStatusRegression is returned when a save would move an answered record
// back to an earlier status without being forced.
var ErrStatusRegression = errors.New("frame status regression")

// Store manages frame record persistence backed by SQLite.
//
// Records are keyed by frame index and written with per-key upserts, so
// concurrent workers handling distinct indices never contend on application
// state; SQLite serializes the writes themselves.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the frame record database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to a frame record database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const schema = `
CREATE TABLE IF NOT EXISTS frame_records (
    frame_index   INTEGER PRIMARY KEY,
    status        TEXT NOT NULL,
    query_id      TEXT,
    label         TEXT,
    confidence    REAL NOT NULL DEFAULT 0,
    answer        INTEGER,
    payload_json  TEXT,
    error_message TEXT,
    source_path   TEXT,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_frame_records_status ON frame_records(status);
`

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save upserts a record keyed by frame index. It refuses to regress an
// answered record; use SaveForced for an explicit re-process.
func (s *Store) Save(ctx context.Context, record *Record) error {
	return s.save(ctx, record, false)
}

// SaveForced upserts a record even when it would regress an answered record.
// This backs the explicit re-submission path.
func (s *Store) SaveForced(ctx context.Context, record *Record) error {
	return s.save(ctx, record, true)
}

func (s *Store) save(ctx context.Context, record *Record, force bool) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if _, ok := ParseStatus(string(record.Status)); !ok {
		return fmt.Errorf("unknown status %q", record.Status)
	}

	if !force {
		existing, err := s.Get(ctx, record.Index)
		if err != nil {
			return err
		}
		if existing != nil && !CanTransition(existing.Status, record.Status) {
			return fmt.Errorf("%w: frame %d %s -> %s", ErrStatusRegression, record.Index, existing.Status, record.Status)
		}
	}

	now := time.Now().UTC()
	record.UpdatedAt = now
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO frame_records (
            frame_index, status, query_id, label, confidence, answer,
            payload_json, error_message, source_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(frame_index) DO UPDATE SET
            status = excluded.status,
            query_id = excluded.query_id,
            label = excluded.label,
            confidence = excluded.confidence,
            answer = excluded.answer,
            payload_json = excluded.payload_json,
            error_message = excluded.error_message,
            source_path = excluded.source_path,
            updated_at = excluded.updated_at`,
		record.Index,
		string(record.Status),
		nullableString(record.QueryID),
		nullableString(record.Label),
		record.Confidence,
		nullableBool(record.Answer),
		nullableString(record.PayloadJSON),
		nullableString(record.ErrorMessage),
		nullableString(record.SourcePath),
		record.CreatedAt.Format(time.RFC3339Nano),
		record.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save frame record: %w", err)
	}
	return nil
}

// Get fetches a record by frame index. A missing record returns nil, nil.
func (s *Store) Get(ctx context.Context, index int) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM frame_records WHERE frame_index = ?`, index)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get frame record: %w", err)
	}
	return record, nil
}

// List returns records filtered by status set (or all records when no status
// is provided), ordered by frame index.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM frame_records`
	orderClause := ` ORDER BY frame_index`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list frame records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM frame_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("frame record stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ResetFailed moves failed records back to unprocessed so the next process
// pass re-submits them.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE frame_records
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE status = ?`,
		string(StatusUnprocessed),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusFailed),
	)
	if err != nil {
		return 0, fmt.Errorf("reset failed records: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = "frame_index, status, query_id, label, confidence, answer, payload_json, error_message, source_path, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		index        int
		statusStr    string
		queryID      sql.NullString
		label        sql.NullString
		confidence   float64
		answer       sql.NullInt64
		payload      sql.NullString
		errorMessage sql.NullString
		sourcePath   sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&index,
		&statusStr,
		&queryID,
		&label,
		&confidence,
		&answer,
		&payload,
		&errorMessage,
		&sourcePath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		Index:        index,
		Status:       Status(statusStr),
		QueryID:      queryID.String,
		Label:        label.String,
		Confidence:   confidence,
		PayloadJSON:  payload.String,
		ErrorMessage: errorMessage.String,
		SourcePath:   sourcePath.String,
	}
	if answer.Valid {
		value := answer.Int64 != 0
		record.Answer = &value
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	if *value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
