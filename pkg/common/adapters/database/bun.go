package database

import (
	"context"
	"reflect"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/uptrace/bun"
)

// BunAdapter adapts Bun to work with our Database interface
type BunAdapter struct {
	db *bun.DB
}

// NewBunAdapter creates a new Bun adapter
func NewBunAdapter(db *bun.DB) *BunAdapter {
	return &BunAdapter{db: db}
}

func (b *BunAdapter) NewSelect() common.SelectQuery {
	return &BunSelectQuery{db: b.db}
}

// TableAlias returns the alias bun gives the model's table, e.g. "employee"
// for a model whose table is "employees".
func (b *BunAdapter) TableAlias(model interface{}) string {
	typ := modelType(model)
	if typ == nil || typ.Kind() != reflect.Struct {
		return ""
	}
	return b.db.Table(typ).Alias
}

// BunSelectQuery implements SelectQuery for Bun.
// Operations are recorded and replayed on a fresh bun query so Clone is exact.
type BunSelectQuery struct {
	db       *bun.DB
	ops      []func(*bun.SelectQuery) *bun.SelectQuery
	hasModel bool
}

func (b *BunSelectQuery) apply(op func(*bun.SelectQuery) *bun.SelectQuery) common.SelectQuery {
	b.ops = append(b.ops, op)
	return b
}

func (b *BunSelectQuery) build() *bun.SelectQuery {
	q := b.db.NewSelect()
	for _, op := range b.ops {
		q = op(q)
	}
	return q
}

func (b *BunSelectQuery) Model(model interface{}) common.SelectQuery {
	b.hasModel = true
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Model(model) })
}

func (b *BunSelectQuery) Table(table string) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Table(table) })
}

func (b *BunSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where(query, args...) })
}

func (b *BunSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.WhereOr(query, args...) })
}

func (b *BunSelectQuery) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	inner, ok := fn(&BunSelectQuery{db: b.db}).(*BunSelectQuery)
	if !ok || len(inner.ops) == 0 {
		return b
	}
	ops := inner.ops
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, op := range ops {
				q = op(q)
			}
			return q
		})
	})
}

func (b *BunSelectQuery) Preload(relation string) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Relation(relation) })
}

// Order takes a raw expression; bun's Order would quote it as an identifier.
func (b *BunSelectQuery) Order(order string) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.OrderExpr(order) })
}

func (b *BunSelectQuery) Limit(n int) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Limit(n) })
}

func (b *BunSelectQuery) Offset(n int) common.SelectQuery {
	return b.apply(func(q *bun.SelectQuery) *bun.SelectQuery { return q.Offset(n) })
}

func (b *BunSelectQuery) Clone() common.SelectQuery {
	ops := make([]func(*bun.SelectQuery) *bun.SelectQuery, len(b.ops))
	copy(ops, b.ops)
	return &BunSelectQuery{db: b.db, ops: ops, hasModel: b.hasModel}
}

// Scan fills the model slice when one was set, so relations attached with
// Preload are loaded into it.
func (b *BunSelectQuery) Scan(ctx context.Context, dest interface{}) error {
	if b.hasModel {
		return b.build().Scan(ctx)
	}
	return b.build().Scan(ctx, dest)
}

func (b *BunSelectQuery) Count(ctx context.Context) (int, error) {
	return b.build().Count(ctx)
}
