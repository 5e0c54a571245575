package tablekit

import (
	"time"
)

// Session is one logical execution context. It holds at most one
// physical connection, acquired lazily and kept until Release, so every
// statement of a multi-call transaction runs on the same connection.
// Transaction nesting is a counter: only the outermost Commit touches
// the backend, and Abort cancels the whole transaction from any depth.
type Session struct {
	db       *DB
	conn     Conn
	level    int
	released bool
}

// NewSession builds a session over an explicit connection. Production
// code goes through DB.Session; this entry point exists for wiring fakes.
func NewSession(db *DB, conn Conn) *Session {
	return &Session{db: db, conn: conn}
}

// connection returns the session's connection, acquiring one on first use.
func (s *Session) connection() (Conn, error) {
	if s.released {
		return nil, ErrReleased
	}
	if s.conn == nil {
		c, err := s.db.pool.Acquire()
		if err != nil {
			return nil, err
		}
		s.conn = c
	}
	return s.conn, nil
}

// Level returns the current transaction nesting depth.
func (s *Session) Level() int { return s.level }

// Begin adds a transaction level. The 0→1 transition opens a physical
// transaction; deeper levels only count.
func (s *Session) Begin() error {
	if s.level == 0 {
		c, err := s.connection()
		if err != nil {
			return err
		}
		if _, err := c.Exec("BEGIN TRANSACTION"); err != nil {
			return classify("begin", err)
		}
	}
	s.level++
	return nil
}

// Commit removes a transaction level; the level reaching 0 commits
// physically. Commit without a matching Begin is a no-op. A failed
// physical commit rolls the transaction back before the error surfaces,
// so the connection is never left mid-transaction.
func (s *Session) Commit() error {
	if s.level == 0 {
		return nil
	}
	s.level--
	if s.level > 0 {
		return nil
	}
	c, err := s.connection()
	if err != nil {
		return err
	}
	if _, err := c.Exec("COMMIT TRANSACTION"); err != nil {
		_, _ = c.Exec("ROLLBACK TRANSACTION")
		return classify("commit", err)
	}
	return nil
}

// Abort rolls back the whole transaction from any nesting depth and
// resets the level to 0. Without an open transaction it is a no-op.
func (s *Session) Abort() error {
	if s.level == 0 {
		return nil
	}
	s.level = 0
	c, err := s.connection()
	if err != nil {
		return err
	}
	if _, err := c.Exec("ROLLBACK TRANSACTION"); err != nil {
		return classify("abort", err)
	}
	return nil
}

// Query runs a select and drains the cursor into row tuples.
func (s *Session) Query(query string, args ...any) ([][]any, error) {
	c, err := s.connection()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := c.Query(query, args...)
	if err != nil {
		return nil, classify("query", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, classify("query", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query", err)
	}
	s.trace(query, args, start)
	return out, nil
}

// Exec runs a statement and returns the affected-row count.
func (s *Session) Exec(query string, args ...any) (int64, error) {
	c, err := s.connection()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	n, err := c.Exec(query, args...)
	if err != nil {
		return 0, classify("exec", err)
	}
	s.trace(query, args, start)
	return n, nil
}

func (s *Session) trace(query string, args []any, start time.Time) {
	if s.db == nil {
		return
	}
	s.db.log.Debug("sql",
		"query", query,
		"params", len(args),
		"elapsed", time.Since(start).String(),
	)
}

// Release returns the connection to the pool. An open transaction is
// rolled back first: a connection never re-enters the pool mid-
// transaction. The session is unusable afterwards.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.conn == nil {
		return
	}
	if s.level > 0 {
		s.level = 0
		_, _ = s.conn.Exec("ROLLBACK TRANSACTION")
	}
	if s.db != nil {
		s.db.pool.Release(s.conn)
	}
	s.conn = nil
}
