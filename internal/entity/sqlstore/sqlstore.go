// Package sqlstore is an entity.Session over a Postgres database. Persisted
// entities are buffered and written in one transaction on Flush.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/hanpama/silkweave/internal/entity"
	"github.com/hanpama/silkweave/internal/logging"
)

// Row is an entity waiting to be inserted or already written.
type Row struct {
	Schema *entity.Schema
	Data   map[string]any
}

func (r *Row) Get(name string) any { return r.Data[name] }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for flush summaries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTableName overrides how an entity maps to a table. The default is
// the lowercased entity name.
func WithTableName(fn func(*entity.Schema) string) Option {
	return func(s *Store) { s.table = fn }
}

// Store forks one Session per unit of work over a shared *sql.DB.
type Store struct {
	db     *sql.DB
	logger logrus.FieldLogger
	table  func(*entity.Schema) string
}

var _ entity.Store = (*Store)(nil)

// Open connects to Postgres with the lib/pq driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: logging.Discard(),
		table:  func(e *entity.Schema) string { return strings.ToLower(e.Name) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Fork() entity.Session { return s.Session() }

// Session is Fork with the concrete type.
func (s *Store) Session() *Session { return &Session{store: s} }

// Session buffers inserts until Flush.
type Session struct {
	store *Store

	mu      sync.Mutex
	pending []*Row
}

var _ entity.Session = (*Session)(nil)

// New returns a single session over db.
func New(db *sql.DB, opts ...Option) *Session {
	return NewStore(db, opts...).Session()
}

func (s *Session) Create(_ context.Context, schema *entity.Schema, data map[string]any) (any, error) {
	row, err := entity.FillPrimaryKeys(schema, data)
	if err != nil {
		return nil, err
	}
	return &Row{Schema: schema, Data: row}, nil
}

func (s *Session) Persist(_ context.Context, e any) error {
	r, ok := e.(*Row)
	if !ok {
		return fmt.Errorf("sql session cannot persist %T", e)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, r)
	return nil
}

// Flush inserts every pending row in one transaction. On failure nothing is
// written. The pending rows are dropped either way.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.pending
	s.pending = nil
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for _, r := range rows {
		query, args := s.store.insert(r)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			s.store.logger.WithError(err).WithField("rows", len(rows)).Warn("flush rolled back")
			return fmt.Errorf("insert %s: %w", r.Schema.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.store.logger.WithField("rows", len(rows)).Debug("flushed entities")
	return nil
}

// Pending reports how many rows await Flush.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Store) insert(r *Row) (string, []any) {
	var cols, params []string
	var args []any
	for _, p := range r.Schema.Columns() {
		v, ok := r.Data[p.Name]
		if !ok {
			continue
		}
		if p.Array {
			v = pq.Array(v)
		}
		cols = append(cols, pq.QuoteIdentifier(p.Name))
		args = append(args, v)
		params = append(params, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(s.table(r.Schema)),
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
	)
	return query, args
}
