package common

import "context"

// Database is the read side of the query engine the table resolver talks to.
// Adapters exist for GORM and Bun in pkg/common/adapters/database.
type Database interface {
	NewSelect() SelectQuery
}

// SelectQuery is a composable select builder. Every method returns the
// receiver so calls can be chained; Clone returns an independent copy so
// a count and a page fetch can share the same predicates.
type SelectQuery interface {
	Model(model interface{}) SelectQuery
	Table(table string) SelectQuery
	Where(query string, args ...interface{}) SelectQuery
	WhereOr(query string, args ...interface{}) SelectQuery
	// WhereGroup wraps the predicates added by fn in parentheses and joins
	// the group to the outer query with AND.
	WhereGroup(fn func(SelectQuery) SelectQuery) SelectQuery
	Preload(relation string) SelectQuery
	Order(order string) SelectQuery
	Limit(n int) SelectQuery
	Offset(n int) SelectQuery
	Clone() SelectQuery

	Scan(ctx context.Context, dest interface{}) error
	Count(ctx context.Context) (int, error)
}

// TableNameProvider is implemented by models that declare their table name.
type TableNameProvider interface {
	TableName() string
}

// TableAliaser is implemented by adapters whose generated SQL refers to the
// base table by an alias instead of its name (Bun aliases every model).
type TableAliaser interface {
	TableAlias(model interface{}) string
}

// RelationInspector is implemented by adapters able to derive relation links
// from model metadata. path is a list of relation names, each one relative
// to the previous relation's target model.
type RelationInspector interface {
	RelationPath(model interface{}, path []string) ([]RelationLink, error)
}
