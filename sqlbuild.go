package tablekit

import (
	"regexp"
	"strings"
)

var (
	aggregateFuncRe  = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT|STRING_AGG)\s*\(`)
	aggregateFieldRe = regexp.MustCompile(`\(\s*([A-Za-z_][A-Za-z0-9_]*|\*|\d+)\s*\)`)
)

// isAggregate reports whether a projection entry is an aggregate
// expression rather than a bare column.
func isAggregate(column string) bool {
	return aggregateFuncRe.MatchString(column)
}

// aggregateField extracts the column inside an aggregate expression.
// COUNT(*) and COUNT(1) map to keyColumn so they validate and land on
// the key field. Returns "" when nothing extractable is inside.
func aggregateField(column, keyColumn string) string {
	m := aggregateFieldRe.FindStringSubmatch(column)
	if m == nil {
		return ""
	}
	field := strings.ToUpper(m[1])
	if field == "*" || field == "1" {
		return keyColumn
	}
	return field
}

// aggregateAlias mangles an aggregate expression into a legal result
// alias: SUM(PRICE) -> SUM_PRICE, COUNT(*) -> COUNT_ALL.
func aggregateAlias(column string) string {
	r := strings.NewReplacer("(", "_", ")", "", "*", "ALL", ".", "_", " ", "")
	return r.Replace(strings.ToUpper(column))
}

// aliasColumn renders "qualifier.COL AS qualifier_COL", the projection
// form every non-aggregate column uses so result columns stay unambiguous
// across joins.
func aliasColumn(qualifier, column string) string {
	return qualifier + "." + column + " AS " + qualifier + "_" + column
}
