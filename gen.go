package tablekit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sqlKinds maps catalog data types onto field kinds and validation
// patterns for generated entities.
var sqlKinds = map[string]struct {
	kind    string
	pattern string
}{
	"int":           {"KindNumber", "onlyNumbers"},
	"bigint":        {"KindNumber", "onlyNumbers"},
	"smallint":      {"KindNumber", "onlyNumbers"},
	"tinyint":       {"KindNumber", "onlyNumbers"},
	"bit":           {"KindBool", "bool"},
	"decimal":       {"KindFloat", "any"},
	"numeric":       {"KindFloat", "any"},
	"money":         {"KindFloat", "any"},
	"float":         {"KindFloat", "any"},
	"real":          {"KindFloat", "any"},
	"varchar":       {"KindString", "plaintxt"},
	"nvarchar":      {"KindString", "plaintxt"},
	"char":          {"KindString", "plaintxt"},
	"nchar":         {"KindString", "plaintxt"},
	"text":          {"KindString", "plaintxt"},
	"ntext":         {"KindString", "plaintxt"},
	"datetime":      {"KindString", "any"},
	"datetime2":     {"KindString", "any"},
	"smalldatetime": {"KindString", "any"},
	"date":          {"KindString", "any"},
	"time":          {"KindString", "any"},
}

// Generator is the offline schema compiler: it reads the catalog and
// emits one entity constructor per base table. It is a build-time tool,
// never part of the runtime path.
type Generator struct {
	db     *DB
	logFn  func(messages ...any)
	outDir string
	pkg    string
}

// NewGenerator creates a Generator writing package "model" files into ".".
func NewGenerator(db *DB) *Generator {
	return &Generator{db: db, outDir: ".", pkg: "model"}
}

// SetLog sets the log function for progress messages. If not set,
// messages are silently discarded.
func (g *Generator) SetLog(fn func(messages ...any)) { g.logFn = fn }

// SetOutDir sets the directory generated files are written into.
func (g *Generator) SetOutDir(dir string) { g.outDir = dir }

// SetPackage sets the package name declared in generated files.
func (g *Generator) SetPackage(pkg string) { g.pkg = pkg }

func (g *Generator) log(messages ...any) {
	if g.logFn != nil {
		g.logFn(messages...)
	}
}

// Run generates one file per base table in the connected database.
func (g *Generator) Run() error {
	s := g.db.Session()
	defer s.Release()

	rows, err := s.Query(
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE'")
	if err != nil {
		return err
	}
	var tables []string
	for _, r := range rows {
		if len(r) > 0 && r[0] != nil {
			tables = append(tables, strings.ToUpper(asString(r[0])))
		}
	}
	sort.Strings(tables)
	if len(tables) == 0 {
		return fmt.Errorf("no base tables found")
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return err
	}

	for _, table := range tables {
		src, err := g.generate(s, table)
		if err != nil {
			return fmt.Errorf("generate %s: %w", table, err)
		}
		path := filepath.Join(g.outDir, strings.ToLower(table)+".go")
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return err
		}
		g.log("generated", path)
	}
	return nil
}

// generate emits the entity constructor for one table.
func (g *Generator) generate(s *Session, table string) ([]byte, error) {
	rows, err := s.Query(
		`SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ? ORDER BY ORDINAL_POSITION`,
		table,
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by tablegen. DO NOT EDIT.\n\npackage %s\n\n", g.pkg)
	b.WriteString("import tablekit \"github.com/tablekit/tablekit\"\n\n")
	fmt.Fprintf(&b, "// New%s binds a %s entity to the session.\n", exportName(table), table)
	fmt.Fprintf(&b, "func New%s(s *tablekit.Session) *tablekit.Table {\n", exportName(table))
	fmt.Fprintf(&b, "\tt := tablekit.New(s, %q)\n", table)
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		name := strings.ToUpper(asString(r[0]))
		kind, pattern := mapSQLType(asString(r[1]))
		limit := int64(0)
		if n, ok := toFloat(r[2]); ok && n > 0 {
			limit = int64(n)
		}
		fmt.Fprintf(&b, "\tt.Add(tablekit.NewField(%q, tablekit.%s, %q, %d))\n",
			name, kind, pattern, limit)
	}
	b.WriteString("\treturn t\n}\n")
	return b.Bytes(), nil
}

// mapSQLType resolves a catalog data type; unknown types fall back to
// unvalidated strings.
func mapSQLType(dataType string) (kind, pattern string) {
	if m, ok := sqlKinds[strings.ToLower(strings.TrimSpace(dataType))]; ok {
		return m.kind, m.pattern
	}
	return "KindString", "any"
}

// exportName turns CUSTOMER_GROUPS into CustomerGroups.
func exportName(table string) string {
	parts := strings.Split(strings.ToLower(table), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
