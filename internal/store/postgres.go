package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricing-admin/internal/config"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrStale is returned by compare-and-set updates when the row changed
	// after the caller read it.
	ErrStale = errors.New("record was modified by someone else")
)

// Querier is implemented by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolCfg.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// InTx runs fn inside a transaction, committing when it returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Exec executes a statement and returns the number of rows affected.
func Exec(ctx context.Context, q Querier, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", MapError(err))
	}
	return tag.RowsAffected(), nil
}

// collect scans rows into structs by column name.
func collect[T any](ctx context.Context, q Querier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", MapError(err))
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("collect: %w", MapError(err))
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// collectOne scans exactly one row, returning ErrNotFound when there is none.
func collectOne[T any](ctx context.Context, q Querier, sql string, args ...any) (*T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", MapError(err))
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("collect: %w", MapError(err))
	}
	return out, nil
}

// notFoundOr maps pgx.ErrNoRows to ErrNotFound and everything else through
// MapError.
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return MapError(err)
}

// MapError maps Postgres constraint violations to sentinel errors, keeping
// the original error in the chain.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(pgErr))
		case "22P02":
			// malformed uuid in a lookup
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message)
		}
	}
	return err
}

func conflictDetail(pgErr *pgconn.PgError) string {
	if pgErr.Detail != "" {
		return pgErr.Detail
	}
	return pgErr.Message
}

// Update describes a partial UPDATE of one tenant-scoped row.
type Update struct {
	Table string
	OrgID string
	ID    string
	Set   map[string]any
	// ExpectedUpdatedAt turns the update into a compare-and-set on updated_at.
	ExpectedUpdatedAt *time.Time
	// Refs maps a foreign-key column to the table it points at. Setting such
	// a column only matches when the referenced row has the same organization.
	Refs      map[string]string
	Returning string
}

func (u Update) columns() []string {
	cols := make([]string, 0, len(u.Set))
	for col := range u.Set {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// refGuards appends one ownership predicate per referenced column being set.
func (u Update) refGuards(args []any, orgArg int) ([]string, []any) {
	var guards []string
	for _, col := range u.columns() {
		table, ok := u.Refs[col]
		if !ok {
			continue
		}
		args = append(args, u.Set[col])
		guards = append(guards, fmt.Sprintf(
			"($%[1]d::uuid IS NULL OR EXISTS(SELECT 1 FROM %[2]s WHERE id = $%[1]d::uuid AND organization_id = $%[3]d))",
			len(args), table, orgArg))
	}
	return guards, args
}

// build renders the statement with columns in sorted order.
func (u Update) build() (string, []any) {
	cols := u.columns()

	var sets []string
	var args []any
	for _, col := range cols {
		args = append(args, u.Set[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, u.ID, u.OrgID)
	orgArg := len(args)
	where := fmt.Sprintf("id = $%d AND organization_id = $%d", orgArg-1, orgArg)
	guards, args := u.refGuards(args, orgArg)
	for _, g := range guards {
		where += " AND " + g
	}
	if u.ExpectedUpdatedAt != nil {
		args = append(args, *u.ExpectedUpdatedAt)
		where += fmt.Sprintf(" AND date_trunc('milliseconds', updated_at) = date_trunc('milliseconds', $%d::timestamptz)", len(args))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", u.Table, strings.Join(sets, ", "), where)
	if u.Returning != "" {
		sql += " RETURNING " + u.Returning
	}
	return sql, args
}

// applyUpdate runs u and scans the returned row into T. When nothing is
// updated it distinguishes a missing row (or a reference to another
// organization's row) from a stale compare-and-set.
func applyUpdate[T any](ctx context.Context, q Querier, u Update) (*T, error) {
	sql, args := u.build()
	out, err := collectOne[T](ctx, q, sql, args...)
	if !errors.Is(err, ErrNotFound) || u.ExpectedUpdatedAt == nil {
		return out, err
	}
	cond := "id = $1 AND organization_id = $2"
	guards, args := u.refGuards([]any{u.ID, u.OrgID}, 2)
	for _, g := range guards {
		cond += " AND " + g
	}
	var exists bool
	if err := q.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", u.Table, cond),
		args...).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check %s exists: %w", u.Table, err)
	}
	if exists {
		return nil, ErrStale
	}
	return nil, ErrNotFound
}
