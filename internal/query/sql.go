package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// quote double-quotes an output alias so case survives on every backend.
func quote(alias string) string { return `"` + alias + `"` }

func col(table, column string) string { return table + "." + column }

// jsonText extracts a top-level key of a JSON column as text.
func jsonText(table, column, key string) string {
	return col(table, column) + "->>'" + key + "'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like matches expr against pattern; the user value is escaped, wildcards are added.
func like(expr, leading, value, trailing string) sq.Sqlizer {
	return sq.Expr(expr+` LIKE ? ESCAPE '\'`, leading+likeEscaper.Replace(value)+trailing)
}

// not negates a predicate.
type not struct{ pred sq.Sqlizer }

func (n not) ToSql() (string, []any, error) {
	s, args, err := n.pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + s + ")", args, nil
}

// exists wraps a subquery in EXISTS or NOT EXISTS.
type exists struct {
	sub    sq.SelectBuilder
	negate bool
}

func (e exists) ToSql() (string, []any, error) {
	s, args, err := e.sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	kw := "EXISTS"
	if e.negate {
		kw = "NOT EXISTS"
	}
	return kw + " (" + s + ")", args, nil
}

// cte is one member of a WITH clause.
type cte struct {
	name  string
	query sq.SelectBuilder
}

// with renders a WITH clause. Members keep their ? placeholders so the
// outer builder's placeholder format numbers them together with its own.
type with []cte

func (w with) ToSql() (string, []any, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("WITH ")
	for i, c := range w {
		s, a, err := c.query.ToSql()
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.name)
		b.WriteString(" AS (")
		b.WriteString(s)
		b.WriteString(")")
		args = append(args, a...)
	}
	return b.String(), args, nil
}

// orderBy renders one sort item with explicit null placement.
func orderBy(expr, dir string) string {
	return expr + " " + dir + " NULLS LAST"
}

// in tests an expression against a subquery.
type in struct {
	expr string
	sub  sq.SelectBuilder
}

func (i in) ToSql() (string, []any, error) {
	s, args, err := i.sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	return i.expr + " IN (" + s + ")", args, nil
}
