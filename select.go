package tablekit

import (
	"fmt"
	"strings"
)

// Fallback page size when pagination is emitted without an explicit limit.
const defaultFetch = 100

// SelectQuery accumulates a query over one entity through chained calls
// and executes it at most once: the first trigger (Execute, All, First,
// Each, Count, Groups, Entities) sends the SQL, every later trigger
// returns the cached result. A failed execution caches nothing, so a
// retry re-issues the statement.
type SelectQuery struct {
	table    *Table
	where    Expr
	cols     []string
	joins    []joinClause
	orderBy  string
	limit    int
	offset   int
	groupBy  []string
	having   []Having
	distinct bool
	doUpdate bool

	executed bool
	result   *ResultSet
}

// Having is one HAVING clause entry; entries are AND-joined.
type Having struct {
	Field string
	Op    string
	Value any
}

type joinClause struct {
	table     *Table
	kind      string
	on        Expr
	cols      []string
	alias     string
	indexHint string
}

// Where sets the where expression.
func (q *SelectQuery) Where(cond Expr) *SelectQuery {
	q.where = cond
	return q
}

// Columns restricts the projection. Entries are column names, field
// handles, or aggregate expressions like SUM(PRICE) or COUNT(*).
func (q *SelectQuery) Columns(cols ...any) *SelectQuery {
	q.cols = q.cols[:0]
	for _, c := range cols {
		q.cols = append(q.cols, colName(c))
	}
	return q
}

// OrderBy sets the ordering column. Ordering also switches pagination on.
func (q *SelectQuery) OrderBy(col any) *SelectQuery {
	q.orderBy = colName(col)
	return q
}

// Limit caps the fetched row count. Emitted only together with OrderBy.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.limit = n
	return q
}

// Offset skips the first n rows. Emitted only together with OrderBy.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	q.offset = n
	return q
}

// GroupBy sets the grouping columns, qualified by the main alias.
func (q *SelectQuery) GroupBy(cols ...any) *SelectQuery {
	q.groupBy = q.groupBy[:0]
	for _, c := range cols {
		q.groupBy = append(q.groupBy, colName(c))
	}
	return q
}

// Having adds HAVING entries for use with GroupBy.
func (q *SelectQuery) Having(entries ...Having) *SelectQuery {
	q.having = append(q.having, entries...)
	return q
}

// Distinct switches SELECT DISTINCT on.
func (q *SelectQuery) Distinct() *SelectQuery {
	q.distinct = true
	return q
}

// DoUpdate controls whether a successful execution overwrites the
// entity's loaded records and current row. Pass false to run the query
// purely for inspection.
func (q *SelectQuery) DoUpdate(update bool) *SelectQuery {
	q.doUpdate = update
	return q
}

// Join starts an INNER JOIN with another entity.
func (q *SelectQuery) Join(other *Table) *JoinBuilder {
	return &JoinBuilder{q: q, jc: joinClause{table: other, kind: "INNER"}}
}

// LeftJoin starts a LEFT JOIN with another entity.
func (q *SelectQuery) LeftJoin(other *Table) *JoinBuilder {
	return &JoinBuilder{q: q, jc: joinClause{table: other, kind: "LEFT"}}
}

// RightJoin starts a RIGHT JOIN with another entity.
func (q *SelectQuery) RightJoin(other *Table) *JoinBuilder {
	return &JoinBuilder{q: q, jc: joinClause{table: other, kind: "RIGHT"}}
}

// JoinBuilder finishes one join clause; On returns to the query.
type JoinBuilder struct {
	q  *SelectQuery
	jc joinClause
}

// As overrides the joined table's alias (defaults to its name). Field
// handles keep qualifying by the table's own name, so with a custom
// alias build the ON condition and any where clauses against the joined
// columns with NewCond using that alias.
func (j *JoinBuilder) As(alias string) *JoinBuilder {
	j.jc.alias = strings.ToUpper(alias)
	return j
}

// Columns restricts which of the joined table's columns are projected.
func (j *JoinBuilder) Columns(cols ...any) *JoinBuilder {
	for _, c := range cols {
		j.jc.cols = append(j.jc.cols, colName(c))
	}
	return j
}

// UseIndex adds a WITH (INDEX(...)) hint to the join.
func (j *JoinBuilder) UseIndex(hint string) *JoinBuilder {
	j.jc.indexHint = hint
	return j
}

// On sets the join condition and returns the query. Build the condition
// from field handles so both sides render as column references.
func (j *JoinBuilder) On(cond Expr) *SelectQuery {
	j.jc.on = cond
	if j.jc.alias == "" {
		j.jc.alias = j.jc.table.Name()
	}
	j.q.joins = append(j.q.joins, j.jc)
	return j.q
}

// shapeKind tells which view of a ResultSet carries the primary shape.
type shapeKind int

const (
	kindRows shapeKind = iota
	kindGroups
	kindEntities
)

// ResultSet is the outcome of one executed select. Every shape also
// materializes a plain row view, which is what the entity cursor stores.
type ResultSet struct {
	shape    shapeKind
	rows     []Row
	groups   [][]*Table
	entities []*Table
}

// Len returns the number of result rows.
func (r *ResultSet) Len() int { return len(r.rows) }

// Rows returns the plain row view of the results.
func (r *ResultSet) Rows() []Row { return r.rows }

// Groups returns the per-row entity groups ([main, join1, ...]) of a
// joined query, or nil for other shapes.
func (r *ResultSet) Groups() [][]*Table { return r.groups }

// Entities returns the synthesized entity instances of an aggregate or
// grouped query, or nil for other shapes.
func (r *ResultSet) Entities() []*Table { return r.entities }

// Execute runs the query once and returns the (possibly cached) results.
func (q *SelectQuery) Execute() (*ResultSet, error) {
	if q.executed {
		return q.result, nil
	}
	res, err := q.run()
	if err != nil {
		return nil, err
	}
	q.result = res
	q.executed = true
	return res, nil
}

// All executes and returns the plain row view.
func (q *SelectQuery) All() ([]Row, error) {
	res, err := q.Execute()
	if err != nil {
		return nil, err
	}
	return res.Rows(), nil
}

// First executes and returns the first row, or nil when empty.
func (q *SelectQuery) First() (Row, error) {
	res, err := q.Execute()
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 {
		return nil, nil
	}
	return res.rows[0], nil
}

// Count executes and returns the number of result rows.
func (q *SelectQuery) Count() (int, error) {
	res, err := q.Execute()
	if err != nil {
		return 0, err
	}
	return res.Len(), nil
}

// Each executes and visits every row in order.
func (q *SelectQuery) Each(fn func(Row) error) error {
	res, err := q.Execute()
	if err != nil {
		return err
	}
	for _, row := range res.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// Groups executes and returns the joined entity groups.
func (q *SelectQuery) Groups() ([][]*Table, error) {
	res, err := q.Execute()
	if err != nil {
		return nil, err
	}
	return res.Groups(), nil
}

// Entities executes and returns the synthesized entity instances.
func (q *SelectQuery) Entities() ([]*Table, error) {
	res, err := q.Execute()
	if err != nil {
		return nil, err
	}
	return res.Entities(), nil
}

// columnPlan maps one projected result position to its destination.
type columnPlan struct {
	name string
}

func (q *SelectQuery) run() (*ResultSet, error) {
	t := q.table
	if t.name == "" {
		return nil, ErrEmptyTable
	}
	if err := t.validateFields(); err != nil {
		return nil, err
	}
	tableCols, err := t.Columns()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(tableCols))
	var allNames []string
	for _, c := range tableCols {
		name := strings.ToUpper(c.Name)
		known[name] = true
		allNames = append(allNames, name)
	}

	wildcard := len(q.cols) == 0
	hasAggregates := false
	if !wildcard {
		for _, col := range q.cols {
			if isAggregate(col) {
				hasAggregates = true
				if inner := aggregateField(col, t.key); inner != "" && !known[inner] {
					return nil, fmt.Errorf("%w: field %s in aggregate %s does not exist in table %s",
						ErrValidation, inner, col, t.name)
				}
			} else if !known[strings.ToUpper(col)] {
				return nil, fmt.Errorf("%w: invalid column %s for table %s", ErrValidation, col, t.name)
			}
		}
	}

	alias := t.Alias()
	var selectCols []string
	var plan []columnPlan
	if wildcard {
		for _, name := range allNames {
			selectCols = append(selectCols, aliasColumn(alias, name))
			plan = append(plan, columnPlan{name: name})
		}
	} else {
		for _, col := range q.cols {
			if isAggregate(col) {
				selectCols = append(selectCols, col+" AS "+aggregateAlias(col))
				name := aggregateField(col, t.key)
				if name == "" {
					name = aggregateAlias(col)
				}
				plan = append(plan, columnPlan{name: name})
			} else {
				name := strings.ToUpper(col)
				selectCols = append(selectCols, aliasColumn(alias, name))
				plan = append(plan, columnPlan{name: name})
			}
		}
	}

	// Join projections follow the main ones; ON parameters are collected
	// in join order, ahead of where/having parameters.
	var params []any
	var joinSQL strings.Builder
	var joinParts []joinPart
	for _, jc := range q.joins {
		names := jc.cols
		if len(names) == 0 {
			jcols, err := jc.table.Columns()
			if err != nil {
				return nil, err
			}
			for _, c := range jcols {
				names = append(names, strings.ToUpper(c.Name))
			}
		}
		for _, name := range names {
			selectCols = append(selectCols, aliasColumn(jc.alias, name))
		}
		joinParts = append(joinParts, joinPart{table: jc.table, alias: jc.alias, names: names})

		hint := ""
		if jc.indexHint != "" {
			hint = " WITH (INDEX(" + jc.indexHint + "))"
		}
		onSQL, onParams := jc.on.SQL()
		params = append(params, onParams...)
		fmt.Fprintf(&joinSQL, " %s JOIN %s AS %s%s ON %s", jc.kind, jc.table.Name(), jc.alias, hint, onSQL)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(selectCols, ", "))
	fmt.Fprintf(&sb, " FROM %s AS %s", t.name, alias)
	sb.WriteString(joinSQL.String())

	if q.where != nil {
		whereSQL, whereParams := q.where.SQL()
		sb.WriteString(" WHERE " + whereSQL)
		params = append(params, whereParams...)
	}
	if len(q.groupBy) > 0 {
		groups := make([]string, len(q.groupBy))
		for i, g := range q.groupBy {
			groups[i] = alias + "." + strings.ToUpper(g)
		}
		sb.WriteString(" GROUP BY " + strings.Join(groups, ", "))
	}
	if len(q.having) > 0 {
		clauses := make([]string, len(q.having))
		for i, h := range q.having {
			op := h.Op
			if op == "" {
				op = "="
			}
			clauses[i] = h.Field + " " + op + " ?"
			params = append(params, h.Value)
		}
		sb.WriteString(" HAVING " + strings.Join(clauses, " AND "))
	}
	if q.orderBy != "" {
		limit := q.limit
		if limit < 0 {
			limit = defaultFetch
		}
		offset := q.offset
		if offset < 0 {
			offset = 0
		}
		fmt.Fprintf(&sb, " ORDER BY %s.%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
			alias, strings.ToUpper(q.orderBy), offset, limit)
	}

	rows, err := t.session.Query(sb.String(), params...)
	if err != nil {
		return nil, err
	}

	var res *ResultSet
	switch {
	case hasAggregates || len(q.groupBy) > 0:
		res = q.shapeEntities(rows, plan)
	case len(joinParts) > 0:
		res = q.shapeGroups(rows, plan, joinParts)
	default:
		res = q.shapeRows(rows, plan)
	}

	if q.doUpdate && res.Len() > 0 {
		t.records = res.rows
		if res.shape == kindEntities {
			t.SetCurrent(res.entities[0])
			t.extras = res.entities[0].extras
			t.current = res.rows[0]
		} else {
			t.SetCurrent(res.rows[0])
		}
	}
	return res, nil
}

// shapeRows maps plain result tuples onto the projected column names.
func (q *SelectQuery) shapeRows(rows [][]any, plan []columnPlan) *ResultSet {
	out := make([]Row, 0, len(rows))
	for _, tuple := range rows {
		row := Row{}
		for i, p := range plan {
			if i < len(tuple) {
				row[p.name] = tuple[i]
			}
		}
		out = append(out, row)
	}
	return &ResultSet{shape: kindRows, rows: out}
}

// joinPart records the projection layout one join contributes to a row.
type joinPart struct {
	table *Table
	alias string
	names []string
}

// shapeGroups materializes one entity clone per table per result row:
// [main, join1, join2, ...].
func (q *SelectQuery) shapeGroups(rows [][]any, plan []columnPlan, parts []joinPart) *ResultSet {
	rs := &ResultSet{shape: kindGroups}
	for _, tuple := range rows {
		idx := 0
		mainData := Row{}
		for _, p := range plan {
			if idx < len(tuple) {
				mainData[p.name] = tuple[idx]
			}
			idx++
		}
		main := q.table.clone()
		main.SetCurrent(mainData)

		group := []*Table{main}
		for _, part := range parts {
			joined := Row{}
			for _, name := range part.names {
				if idx < len(tuple) {
					joined[name] = tuple[idx]
				}
				idx++
			}
			inst := part.table.clone()
			inst.SetCurrent(joined)
			group = append(group, inst)
		}
		rs.groups = append(rs.groups, group)
		rs.rows = append(rs.rows, mainData)
	}
	return rs
}

// shapeEntities synthesizes entity clones from aggregate/group-by
// output. Values mapping to no declared field land in the clone's extras.
func (q *SelectQuery) shapeEntities(rows [][]any, plan []columnPlan) *ResultSet {
	rs := &ResultSet{shape: kindEntities}
	for _, tuple := range rows {
		inst := q.table.clone()
		row := Row{}
		for i, p := range plan {
			if i >= len(tuple) {
				break
			}
			value := tuple[i]
			row[p.name] = value
			if f := inst.F(p.name); f != nil {
				f.load(value)
			} else {
				if inst.extras == nil {
					inst.extras = map[string]any{}
				}
				inst.extras[p.name] = value
			}
		}
		rs.entities = append(rs.entities, inst)
		rs.rows = append(rs.rows, row)
	}
	return rs
}

// colName normalizes a projection entry: field handles contribute their
// declared name, strings pass through.
func colName(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case *Field:
		return c.Name()
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}
