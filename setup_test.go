package tablekit

import "strings"

// stub routes one canned result set to queries containing match. When
// arg is non-nil the first query argument must equal it too, which keeps
// catalog stubs for different tables apart.
type stub struct {
	match string
	arg   any
	rows  [][]any
}

type fakeRows struct {
	data    [][]any
	idx     int
	scanErr error
	iterErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) SliceScan() ([]any, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	return r.data[r.idx-1], nil
}

func (r *fakeRows) Close() error { r.closed = true; return nil }

func (r *fakeRows) Err() error { return r.iterErr }

// fakeConn records every statement and serves stubbed results.
type fakeConn struct {
	stubs []stub

	queries   []string
	queryArgs [][]any
	execs     []string
	execArgs  [][]any

	affected int64
	execErr  error
	queryErr error
	closed   bool

	// failMatch makes queries containing it fail once with failErr;
	// execFailMatch does the same for Exec statements.
	failMatch     string
	failErr       error
	execFailMatch string
	execFailErr   error
}

func (c *fakeConn) Exec(query string, args ...any) (int64, error) {
	c.execs = append(c.execs, query)
	c.execArgs = append(c.execArgs, args)
	if c.execErr != nil {
		return 0, c.execErr
	}
	if c.execFailErr != nil && c.execFailMatch != "" && strings.Contains(query, c.execFailMatch) {
		err := c.execFailErr
		c.execFailErr = nil
		return 0, err
	}
	return c.affected, nil
}

func (c *fakeConn) Query(query string, args ...any) (Rows, error) {
	c.queries = append(c.queries, query)
	c.queryArgs = append(c.queryArgs, args)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if c.failErr != nil && c.failMatch != "" && strings.Contains(query, c.failMatch) {
		err := c.failErr
		c.failErr = nil
		return nil, err
	}
	for _, s := range c.stubs {
		if !strings.Contains(query, s.match) {
			continue
		}
		if s.arg != nil && (len(args) == 0 || args[0] != s.arg) {
			continue
		}
		return &fakeRows{data: s.rows}, nil
	}
	return &fakeRows{}, nil
}

func (c *fakeConn) Close() error { c.closed = true; return nil }

// argsFor returns the recorded args of the first statement containing
// substr, so assertions are not thrown off by surrounding transaction
// statements.
func argsFor(stmts []string, args [][]any, substr string) []any {
	for i, q := range stmts {
		if strings.Contains(q, substr) {
			return args[i]
		}
	}
	return nil
}

// countMatching counts recorded queries containing substr.
func countMatching(queries []string, substr string) int {
	n := 0
	for _, q := range queries {
		if strings.Contains(q, substr) {
			n++
		}
	}
	return n
}

// itemsCatalog stubs the INFORMATION_SCHEMA response for the ITEMS table
// used across tests: key, required name, optional price and flag.
func itemsCatalog() stub {
	return stub{
		match: "INFORMATION_SCHEMA.COLUMNS",
		arg:   "ITEMS",
		rows: [][]any{
			{"RECID", "int", "NO"},
			{"NAME", "varchar", "NO"},
			{"PRICE", "decimal", "YES"},
			{"ACTIVE", "bit", "YES"},
		},
	}
}

func ordersCatalog() stub {
	return stub{
		match: "INFORMATION_SCHEMA.COLUMNS",
		arg:   "ORDERS",
		rows: [][]any{
			{"RECID", "int", "NO"},
			{"ITEM", "int", "NO"},
			{"QTY", "int", "YES"},
		},
	}
}

// newItems declares the ITEMS entity over a session bound to fc.
func newItems(fc *fakeConn) *Table {
	t := New(NewSession(nil, fc), "items")
	t.Add(NewField("RECID", KindNumber, "onlyNumbers", 0))
	t.Add(NewField("NAME", KindString, "plaintxt", 60))
	t.Add(NewField("PRICE", KindFloat, "any", 0))
	t.Add(NewField("ACTIVE", KindBool, "", 0))
	return t
}

func newOrders(s *Session) *Table {
	t := New(s, "orders")
	t.Add(NewField("RECID", KindNumber, "onlyNumbers", 0))
	t.Add(NewField("ITEM", KindNumber, "onlyNumbers", 0))
	t.Add(NewField("QTY", KindNumber, "onlyNumbers", 0))
	return t
}

// itemRow is the canned ITEMS row most tests select back.
func itemRow() [][]any {
	return [][]any{{int64(5), "Widget", 9.5, true}}
}
