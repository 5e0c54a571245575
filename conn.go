package tablekit

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Conn is the physical connection abstraction. It stays narrow so tests
// can substitute fakes; the production implementation wraps a dedicated
// *sql.Conn from the mssql driver.
type Conn interface {
	Exec(query string, args ...any) (int64, error)
	Query(query string, args ...any) (Rows, error)
	Close() error
}

// Rows is an iterator over query results, scanned positionally.
type Rows interface {
	Next() bool
	SliceScan() ([]any, error)
	Close() error
	Err() error
}

type sqlConn struct {
	c *sql.Conn
}

func (s *sqlConn) Exec(query string, args ...any) (int64, error) {
	res, err := s.c.ExecContext(context.Background(), query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Not every statement reports affected rows; the count is advisory.
		return 0, nil
	}
	return n, nil
}

func (s *sqlConn) Query(query string, args ...any) (Rows, error) {
	rows, err := s.c.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (s *sqlConn) Close() error { return s.c.Close() }

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool { return r.rows.Next() }

func (r *sqlRows) SliceScan() ([]any, error) { return sqlx.SliceScan(r.rows) }

func (r *sqlRows) Close() error { return r.rows.Close() }

func (r *sqlRows) Err() error { return r.rows.Err() }

// Pool hands out physical connections. Acquire prefers an idle
// connection and dials a new one when none is available; it never blocks
// and never enforces the configured size as a ceiling. The size caps
// only how many idle connections Release retains.
type Pool struct {
	dial func() (Conn, error)
	idle chan Conn
}

// NewPool builds a pool retaining up to size idle connections.
func NewPool(size int, dial func() (Conn, error)) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{dial: dial, idle: make(chan Conn, size)}
}

// Acquire returns an idle connection or dials a new one. Dial failures
// propagate untouched by the pool; no retry is attempted.
func (p *Pool) Acquire() (Conn, error) {
	select {
	case c := <-p.idle:
		return c, nil
	default:
		return p.dial()
	}
}

// Release returns a connection to the idle set, closing it instead when
// the set is full.
func (p *Pool) Release(c Conn) {
	if c == nil {
		return
	}
	select {
	case p.idle <- c:
	default:
		_ = c.Close()
	}
}

// Close drops every idle connection.
func (p *Pool) Close() {
	for {
		select {
		case c := <-p.idle:
			_ = c.Close()
		default:
			return
		}
	}
}
