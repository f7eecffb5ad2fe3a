// Package store persists finished estimates in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const sqliteDialect = "sqlite3"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no estimate exists for an id.
var ErrNotFound = errors.New("estimate not found")

// Line is a persisted pricing line.
type Line struct {
	Scope       string
	FurnitureID string
	Quantity    int
	Amount      int64
	Description string
}

// Section is a persisted pricing section with its lines.
type Section struct {
	Key         string
	Title       string
	Amount      int64
	Description string
	Lines       []Line
}

// Record is one stored estimate. Payload holds the response document returned to clients.
type Record struct {
	ID               string
	PolicyVersion    string
	MoveType         string
	Area             int
	DistanceKm       string
	Trucks           []string
	TotalCBM         string
	TotalAmount      int64
	SpecialItemCount int
	Payload          []byte
	Sections         []Section
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens the database at path with WAL, foreign keys and a busy timeout.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{"journal_mode(WAL)", "foreign_keys(1)", "busy_timeout(5000)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies pending embedded migrations.
func (s *Store) Migrate(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// SaveEstimate inserts or replaces rec. Sections and lines are rewritten in the same transaction,
// so saving a recalculated estimate never leaves stale sections behind.
func (s *Store) SaveEstimate(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("estimate id is required")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO estimates (
			id, policy_version, move_type, area, distance_km, trucks, total_cbm,
			total_amount, special_item_count, payload, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			policy_version = excluded.policy_version,
			move_type = excluded.move_type,
			area = excluded.area,
			distance_km = excluded.distance_km,
			trucks = excluded.trucks,
			total_cbm = excluded.total_cbm,
			total_amount = excluded.total_amount,
			special_item_count = excluded.special_item_count,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.ID, rec.PolicyVersion, rec.MoveType, rec.Area, rec.DistanceKm, strings.Join(rec.Trucks, ","),
		rec.TotalCBM, rec.TotalAmount, rec.SpecialItemCount, string(rec.Payload),
		rec.CreatedAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert estimate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimate_lines WHERE estimate_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear estimate lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM estimate_sections WHERE estimate_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear estimate sections: %w", err)
	}

	for i, sec := range rec.Sections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO estimate_sections (estimate_id, position, section_key, title, amount, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i, sec.Key, sec.Title, sec.Amount, sec.Description,
		); err != nil {
			return fmt.Errorf("insert section %s: %w", sec.Key, err)
		}
		for j, line := range sec.Lines {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO estimate_lines (
					estimate_id, section_position, position, scope, furniture_id, quantity, amount, description
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, i, j, line.Scope, line.FurnitureID, line.Quantity, line.Amount, line.Description,
			); err != nil {
				return fmt.Errorf("insert line %d of section %s: %w", j, sec.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit estimate: %w", err)
	}
	return nil
}

// GetEstimate loads an estimate with its sections in their original order.
func (s *Store) GetEstimate(ctx context.Context, id string) (Record, error) {
	var (
		rec                  Record
		trucks, payload      string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, policy_version, move_type, area, distance_km, trucks, total_cbm,
		       total_amount, special_item_count, payload, created_at, updated_at
		FROM estimates WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.PolicyVersion, &rec.MoveType, &rec.Area, &rec.DistanceKm, &trucks, &rec.TotalCBM,
		&rec.TotalAmount, &rec.SpecialItemCount, &payload, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query estimate: %w", err)
	}

	if trucks != "" {
		rec.Trucks = strings.Split(trucks, ",")
	}
	rec.Payload = []byte(payload)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Record{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if rec.Sections, err = s.sections(ctx, id); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) sections(ctx context.Context, id string) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_key, title, amount, description
		FROM estimate_sections WHERE estimate_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.Key, &sec.Title, &sec.Amount, &sec.Description); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	lines, err := s.db.QueryContext(ctx, `
		SELECT section_position, scope, furniture_id, quantity, amount, description
		FROM estimate_lines WHERE estimate_id = ? ORDER BY section_position, position`, id)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var (
			pos  int
			line Line
		)
		if err := lines.Scan(&pos, &line.Scope, &line.FurnitureID, &line.Quantity, &line.Amount, &line.Description); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		if pos < 0 || pos >= len(out) {
			return nil, fmt.Errorf("line references missing section %d", pos)
		}
		out[pos].Lines = append(out[pos].Lines, line)
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}
	return out, nil
}

// gooseLogger routes migration output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.s.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.s.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}
