package tablespec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
)

// predicate is a parameterized SQL fragment. Only identifiers taken from
// descriptors ever reach sql; user values travel in args.
type predicate struct {
	sql  string
	args []any
}

var comparisonSQL = map[Operator]string{
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpEqual:          "=",
	OpNotEqual:       "<>",
}

// buildPredicate compiles op/value against column for filter f. ok is false
// when the pair matches everything (empty value for a value-bearing operator).
func buildPredicate(column string, op Operator, value string, f Filter) (predicate, bool) {
	switch op {
	case OpIsSet:
		return predicate{sql: column + " IS NOT NULL"}, true
	case OpIsNotSet:
		return predicate{sql: column + " IS NULL"}, true
	}

	if strings.TrimSpace(value) == "" {
		return predicate{}, false
	}

	expr := column
	if f.isDate() {
		expr = "DATE(" + column + ")"
	}

	switch op {
	case OpBetween, OpNotBetween:
		return betweenPredicate(expr, op == OpNotBetween, value, f)

	case OpIn, OpNotIn:
		values := splitList(value)
		if len(values) == 0 {
			return predicate{}, false
		}
		holders := make([]string, len(values))
		args := make([]any, len(values))
		for i, v := range values {
			holders[i] = "?"
			args[i] = filterArg(f, v)
		}
		keyword := "IN"
		if op == OpNotIn {
			keyword = "NOT IN"
		}
		return predicate{sql: fmt.Sprintf("%s %s (%s)", expr, keyword, strings.Join(holders, ", ")), args: args}, true

	case OpEndsWith, OpNotEndsWith, OpStartsWith, OpNotStartsWith, OpContains, OpNotContains:
		return likePredicate(column, op, value), true
	}

	if sqlOp, ok := comparisonSQL[op]; ok {
		return predicate{sql: fmt.Sprintf("%s %s ?", expr, sqlOp), args: []any{filterArg(f, value)}}, true
	}

	// unknown tokens never get here; equality keeps the translator total
	return predicate{sql: expr + " = ?", args: []any{value}}, true
}

// betweenPredicate handles "lower,upper" with either bound optional.
func betweenPredicate(expr string, negate bool, value string, f Filter) (predicate, bool) {
	lowerRaw, upperRaw, _ := strings.Cut(value, ",")
	lowerRaw, upperRaw = strings.TrimSpace(lowerRaw), strings.TrimSpace(upperRaw)

	switch {
	case lowerRaw != "" && upperRaw != "":
		keyword := "BETWEEN"
		if negate {
			keyword = "NOT BETWEEN"
		}
		return predicate{
			sql:  fmt.Sprintf("%s %s ? AND ?", expr, keyword),
			args: []any{filterArg(f, lowerRaw), filterArg(f, upperRaw)},
		}, true
	case lowerRaw != "":
		op := ">="
		if negate {
			op = "<"
		}
		return predicate{sql: fmt.Sprintf("%s %s ?", expr, op), args: []any{filterArg(f, lowerRaw)}}, true
	case upperRaw != "":
		op := "<="
		if negate {
			op = ">"
		}
		return predicate{sql: fmt.Sprintf("%s %s ?", expr, op), args: []any{filterArg(f, upperRaw)}}, true
	}
	return predicate{}, false
}

func likePredicate(column string, op Operator, value string) predicate {
	escaped := common.EscapeLike(strings.ToLower(value))
	var pattern string
	switch op {
	case OpEndsWith, OpNotEndsWith:
		pattern = "%" + escaped
	case OpStartsWith, OpNotStartsWith:
		pattern = escaped + "%"
	default:
		pattern = "%" + escaped + "%"
	}
	keyword := "LIKE"
	if op.Negated() {
		keyword = "NOT LIKE"
	}
	return predicate{
		sql:  fmt.Sprintf("LOWER(%s) %s ? ESCAPE '%s'", column, keyword, common.LikeEscapeChar),
		args: []any{pattern},
	}
}

// searchPredicate is the case-insensitive substring match used by search.
func searchPredicate(column, term string) predicate {
	return likePredicate(column, OpContains, term)
}

// filterArg converts a raw value to the type the column compares with.
func filterArg(f Filter, v string) any {
	switch {
	case f.isDate():
		return common.ToDateString(v)
	case f.isTimestamp():
		t, err := common.ParseDateTime(v)
		if err != nil {
			return v
		}
		if f.UTCConvert {
			t = t.UTC()
		}
		return t
	case f.Type == FilterNumber:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
		if fl, err := strconv.ParseFloat(v, 64); err == nil {
			return fl
		}
	case f.Type == FilterBoolean:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
