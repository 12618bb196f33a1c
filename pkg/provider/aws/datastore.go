package aws

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	_ "github.com/lib/pq"

	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

const defaultMaxConns = 100

// dataStoreService fronts a PostgreSQL database through database/sql.
// A connection pool opens lazily from the configured options when
// Connect is never called explicitly.
type dataStoreService struct {
	opts  types.DataStoreOptions
	extra map[string]string

	mu sync.Mutex
	db *sql.DB
}

func newDataStoreService(deps provider.Deps) *dataStoreService {
	return &dataStoreService{
		opts:  deps.Config.Options.DataStore,
		extra: deps.Config.Options.Extra,
	}
}

func (s *dataStoreService) Connect(ctx context.Context, connectionString string) error {
	if connectionString == "" {
		var err error
		connectionString, err = s.dsn()
		if err != nil {
			return err
		}
	}
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return errdefs.NewValidation("invalid connection string").WithCause(err)
	}
	maxConns := s.opts.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errdefs.NewUnavailable("database is unreachable").WithCause(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	return nil
}

func (s *dataStoreService) Query(ctx context.Context, query string, args ...interface{}) ([]types.Row, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query")
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *dataStoreService) Execute(ctx context.Context, query string, args ...interface{}) (*types.ExecResult, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "statement")
	}
	return execResult(res), nil
}

func (s *dataStoreService) Transaction(ctx context.Context, fn func(tx contract.Tx) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, "transaction")
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errdefs.NewUnavailable("rollback failed: %v", rbErr).WithCause(err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err, "transaction")
	}
	return nil
}

func (s *dataStoreService) Migrate(ctx context.Context, migrations []types.Migration) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return translate(err, "migration")
	}
	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return translate(err, "migration")
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return translate(err, "migration")
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return translate(err, "migration")
	}

	ordered := make([]types.Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for _, m := range ordered {
		if applied[m.Version] {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return translate(err, "migration")
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return errdefs.NewUnavailable("migration %d (%s) failed", m.Version, m.Name).WithCause(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
			tx.Rollback()
			return errdefs.NewUnavailable("migration %d (%s) failed", m.Version, m.Name).WithCause(err)
		}
		if err := tx.Commit(); err != nil {
			return translate(err, "migration")
		}
	}
	return nil
}

func (s *dataStoreService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *dataStoreService) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db != nil {
		return db, nil
	}
	if err := s.Connect(ctx, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, nil
}

func (s *dataStoreService) dsn() (string, error) {
	if s.opts.Host == "" {
		return "", errdefs.NewValidation("datastore is not configured: set options.dataStore or call Connect")
	}
	port := s.opts.Port
	if port == 0 {
		port = 5432
	}
	sslmode := s.extra["postgres.sslmode"]
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		s.opts.Host, port, s.opts.Name, s.opts.User, s.opts.Password, sslmode), nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...interface{}) ([]types.Row, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query")
	}
	defer rows.Close()
	return scanRows(rows)
}

func (t *sqlTx) Execute(ctx context.Context, query string, args ...interface{}) (*types.ExecResult, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "statement")
	}
	return execResult(res), nil
}

func scanRows(rows *sql.Rows) ([]types.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, translate(err, "query")
	}
	var out []types.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, translate(err, "query")
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "query")
	}
	return out, nil
}

func execResult(res sql.Result) *types.ExecResult {
	out := &types.ExecResult{}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	// The postgres driver does not report insert ids; callers use
	// RETURNING clauses instead.
	if id, err := res.LastInsertId(); err == nil {
		out.InsertID = id
	}
	return out
}
