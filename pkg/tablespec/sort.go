package tablespec

import (
	"fmt"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
)

const (
	baseAliasPrefix   = "ts_"
	cursorAliasPrefix = "tsc_"
	cursorAlias       = "cursor_select"
)

// orderKey is one ORDER BY term. expr renders the sort expression for a row
// aliased outer, giving relation subqueries their own alias prefix.
// NULL sorts before every value of a nullable key in ascending order, on
// every engine.
type orderKey struct {
	name     string
	expr     func(outer, prefix string) string
	desc     bool
	nullable bool
}

func (k orderKey) clause(outer, prefix string, reverse bool) string {
	dir := "ASC"
	if k.desc != reverse {
		dir = "DESC"
	}
	expr := k.expr(outer, prefix)
	if !k.nullable {
		return expr + " " + dir
	}
	return fmt.Sprintf("(%s IS NOT NULL) %s, %s %s", expr, dir, expr, dir)
}

// equal compares a and b treating two NULLs as equal.
func (k orderKey) equal(a, b string) string {
	if !k.nullable {
		return fmt.Sprintf("%s = %s", a, b)
	}
	return fmt.Sprintf("((%s IS NULL AND %s IS NULL) OR %s = %s)", a, b, a, b)
}

// beyond reports a sorting after b (greater when !less) with NULL as the
// smallest value.
func (k orderKey) beyond(a, b string, less bool) string {
	op := ">"
	if less {
		op = "<"
	}
	if !k.nullable {
		return fmt.Sprintf("%s %s %s", a, op, b)
	}
	if less {
		return fmt.Sprintf("((%s IS NULL AND %s IS NOT NULL) OR %s < %s)", a, b, a, b)
	}
	return fmt.Sprintf("((%s IS NOT NULL AND %s IS NULL) OR %s > %s)", a, b, a, b)
}

// requestedSort reads <prefix>sort and <prefix>dir. A leading "-" or
// dir=desc sorts descending.
func (r *resolution) requestedSort() (name string, desc bool) {
	name = strings.TrimSpace(r.query.Params.Get(r.def.SortParam()))
	if strings.HasPrefix(name, "-") {
		desc = true
		name = strings.TrimPrefix(name, "-")
	}
	if strings.EqualFold(r.query.Params.Get(r.def.DirParam()), string(SortDesc)) {
		desc = true
	}
	return name, desc
}

// effectiveSort is the sort the rows are ordered by: the requested sort when
// the column allows it, else the default sort.
func (r *resolution) effectiveSort() (string, SortDirection) {
	name, desc := r.requestedSort()
	if name != "" && r.sortable(name) {
		if desc {
			return name, SortDesc
		}
		return name, SortAsc
	}
	return r.def.defaultSort, r.def.defaultSortDir
}

func (r *resolution) sortable(name string) bool {
	for _, c := range r.def.columns {
		if c.Sortable && (c.Name == name || c.SortKey() == name) {
			return true
		}
	}
	return false
}

// orderKeys builds the full ordering: requested sort when allowed, else the
// default sort, then the primary key as tiebreak.
func (r *resolution) orderKeys() []orderKey {
	var keys []orderKey

	name, desc := r.requestedSort()
	if name != "" {
		if key, ok := r.allowedSort(name, desc); ok {
			keys = append(keys, key)
		} else {
			logger.Warn("Table %s: ignoring sort on '%s', column is not sortable", r.def.name, name)
		}
	}

	if len(keys) == 0 && r.def.defaultSort != "" {
		if key, ok := r.defaultSortKey(); ok {
			keys = append(keys, key)
		}
	}

	pk := r.def.primaryKey
	for _, k := range keys {
		if k.name == pk {
			return keys
		}
	}
	return append(keys, r.plainKey(pk, false))
}

func (r *resolution) allowedSort(name string, desc bool) (orderKey, bool) {
	for _, c := range r.def.columns {
		if !c.Sortable {
			continue
		}
		if c.Name == name || c.SortKey() == name {
			return r.columnKey(c, desc)
		}
	}
	return orderKey{}, false
}

func (r *resolution) defaultSortKey() (orderKey, bool) {
	desc := r.def.defaultSortDir == SortDesc
	for _, c := range r.def.columns {
		if c.Name == r.def.defaultSort || c.SortKey() == r.def.defaultSort {
			return r.columnKey(c, desc)
		}
	}
	return r.plainKey(r.def.defaultSort, desc), true
}

func (r *resolution) plainKey(column string, desc bool) orderKey {
	return orderKey{
		name:     column,
		desc:     desc,
		nullable: column != r.def.primaryKey,
		expr:     func(outer, _ string) string { return outer + "." + column },
	}
}

// columnKey sorts relation columns by a correlated subquery over the related
// attribute since it does not exist on the base table.
func (r *resolution) columnKey(c Column, desc bool) (orderKey, bool) {
	path, attribute := c.target()
	if len(path) == 0 {
		return r.plainKey(attribute, desc), true
	}
	chain, err := r.relations.chain(path)
	if err != nil {
		logger.Warn("Table %s: cannot sort by '%s': %v", r.def.name, c.Name, err)
		return orderKey{}, false
	}
	return orderKey{
		name:     c.SortKey(),
		desc:     desc,
		nullable: true,
		expr:     func(outer, prefix string) string { return chain.scalar(outer, prefix, attribute) },
	}, true
}

// applyOrder adds the ORDER BY terms; reverse flips every direction for
// backward cursor pages.
func applyOrder(q common.SelectQuery, keys []orderKey, outer string, reverse bool) common.SelectQuery {
	for _, k := range keys {
		q = q.Order(k.clause(outer, baseAliasPrefix, reverse))
	}
	return q
}

// keysetPredicate selects rows after (or before, when backward) the boundary
// row identified by its primary key. Each term keeps the earlier keys equal
// so mixed directions page correctly, and NULL keys follow the placement of
// orderKey.clause.
func (r *resolution) keysetPredicate(keys []orderKey, backward bool) string {
	terms := make([]string, 0, len(keys))
	for i, k := range keys {
		parts := make([]string, 0, i+1)
		for _, prev := range keys[:i] {
			parts = append(parts, prev.equal(prev.expr(r.alias, baseAliasPrefix), prev.expr(cursorAlias, cursorAliasPrefix)))
		}
		parts = append(parts, k.beyond(k.expr(r.alias, baseAliasPrefix), k.expr(cursorAlias, cursorAliasPrefix), k.desc != backward))
		terms = append(terms, "("+strings.Join(parts, " AND ")+")")
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = ? AND (%s))",
		r.def.table, cursorAlias, cursorAlias, r.def.primaryKey, strings.Join(terms, " OR "))
}
