package common

import (
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether name is safe to embed in SQL text as a
// (possibly dotted) identifier. Each segment must be a plain word and must
// not be a SQL keyword.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !identifierPattern.MatchString(part) {
			return false
		}
		if IsSQLKeyword(strings.ToLower(part)) {
			return false
		}
	}
	return true
}

// SplitTableName splits a table name that may contain schema into separate schema and table
// For example: "public.users" -> ("public", "users")
//
//	"users" -> ("", "users")
func SplitTableName(fullTableName string) (schema, table string) {
	if idx := strings.LastIndex(fullTableName, "."); idx != -1 {
		return fullTableName[:idx], fullTableName[idx+1:]
	}
	return "", fullTableName
}

// SplitPath splits a dot path into its segments. "a.b.c" -> [a b c]
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// LikeEscapeChar is the escape character used by EscapeLike. It is not a
// backslash so the same SQL works on MySQL, Postgres and SQLite.
const LikeEscapeChar = "!"

// EscapeLike escapes LIKE metacharacters so the value matches literally.
// Use together with ESCAPE '!'.
func EscapeLike(value string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(value)
}

// IsSQLKeyword checks if a string is a SQL keyword that shouldn't be treated as a column name
func IsSQLKeyword(word string) bool {
	keywords := []string{"select", "from", "where", "and", "or", "not", "in", "is", "null", "true", "false", "like", "between", "exists", "union", "drop", "delete", "insert", "update", "order", "group", "limit"}
	for _, kw := range keywords {
		if word == kw {
			return true
		}
	}
	return false
}
