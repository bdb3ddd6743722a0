package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/leaseiq/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time checks: LeaseRepository implements every persistence port.
var (
	_ domain.LeaseRepository     = (*LeaseRepository)(nil)
	_ domain.LeaseFacts          = (*LeaseRepository)(nil)
	_ domain.TransitionCommitter = (*LeaseRepository)(nil)
	_ domain.StatusWriter        = (*LeaseRepository)(nil)
	_ domain.AuditLog            = (*LeaseRepository)(nil)
	_ domain.AuditReader         = (*LeaseRepository)(nil)
	_ domain.EventPublisher      = (*LeaseRepository)(nil)
)

// LeaseRepository implements the lease persistence ports using SQLite.
type LeaseRepository struct {
	db     *sql.DB
	outbox Outbox
}

// Option configures a LeaseRepository.
type Option func(*LeaseRepository)

// WithOutbox sets where CommitTransition writes events. Defaults to the
// lease_events table.
func WithOutbox(o Outbox) Option {
	return func(r *LeaseRepository) { r.outbox = o }
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string, opts ...Option) (*LeaseRepository, error) {
	db, err := Open(dataSourceName)
	if err != nil {
		return nil, err
	}
	return NewFromDB(db, opts...)
}

// Open opens a SQLite database with the pragmas the repository relies on.
// SQLite serializes writers, and every connection to ":memory:" is its own
// database, so the pool is capped at one connection.
func Open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := Configure(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Configure applies connection limits and pragmas to db.
func Configure(db *sql.DB) error {
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	return nil
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB, opts ...Option) (*LeaseRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	r := &LeaseRepository{db: db, outbox: TableOutbox{}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *LeaseRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *LeaseRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

const leaseColumns = `id, property_id, contract_type, status, start_date, end_date,
	keys_handed_over, created_at, updated_at`

func (r *LeaseRepository) Create(ctx context.Context, l domain.Lease) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leases (`+leaseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.PropertyID, string(l.ContractType), string(l.Status),
		l.StartDate.Format(dateFormat),
		formatOptionalDate(l.EndDate),
		l.KeysHandedOver,
		l.CreatedAt.Format(timeFormat),
		l.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting lease: %w", err)
	}
	return nil
}

func (r *LeaseRepository) GetByID(ctx context.Context, id string) (domain.Lease, error) {
	l, err := scanLease(r.db.QueryRowContext(ctx,
		`SELECT `+leaseColumns+` FROM leases WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, err
}

func (r *LeaseRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases`
	var (
		where []string
		args  []any
	)

	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.PropertyID != "" {
		where = append(where, `property_id = ?`)
		args = append(args, filter.PropertyID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	defer rows.Close()

	leases := make([]domain.Lease, 0)
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}

	return leases, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLease(s scanner) (domain.Lease, error) {
	var (
		l                               domain.Lease
		contractType, status, startDate string
		endDate                         sql.NullString
		createdAt, updatedAt            string
	)

	err := s.Scan(&l.ID, &l.PropertyID, &contractType, &status, &startDate, &endDate,
		&l.KeysHandedOver, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lease{}, err
		}
		return domain.Lease{}, fmt.Errorf("scanning lease: %w", err)
	}

	l.ContractType = domain.ContractType(contractType)
	l.Status = domain.Status(status)
	l.StartDate, _ = time.Parse(dateFormat, startDate)
	l.EndDate = parseOptional(dateFormat, endDate)
	l.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	l.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return l, nil
}

func formatOptionalDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func parseOptional(layout string, s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// isForeignKeyViolation checks if a SQLite error is a FOREIGN KEY constraint violation.
func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
