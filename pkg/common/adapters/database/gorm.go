package database

import (
	"context"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"gorm.io/gorm"
)

// GormAdapter adapts GORM to work with our Database interface
type GormAdapter struct {
	db *gorm.DB
}

// NewGormAdapter creates a new GORM adapter
func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func (g *GormAdapter) NewSelect() common.SelectQuery {
	return &GormSelectQuery{db: g.db.Session(&gorm.Session{NewDB: true})}
}

// DB exposes the wrapped connection
func (g *GormAdapter) DB() *gorm.DB {
	return g.db
}

// GormSelectQuery implements SelectQuery for GORM
type GormSelectQuery struct {
	db *gorm.DB
}

func (g *GormSelectQuery) Model(model interface{}) common.SelectQuery {
	g.db = g.db.Model(model)
	return g
}

func (g *GormSelectQuery) Table(table string) common.SelectQuery {
	g.db = g.db.Table(table)
	return g
}

func (g *GormSelectQuery) Where(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Where(query, args...)
	return g
}

func (g *GormSelectQuery) WhereOr(query string, args ...interface{}) common.SelectQuery {
	g.db = g.db.Or(query, args...)
	return g
}

func (g *GormSelectQuery) WhereGroup(fn func(common.SelectQuery) common.SelectQuery) common.SelectQuery {
	inner := &GormSelectQuery{db: g.db.Session(&gorm.Session{NewDB: true})}
	grouped, ok := fn(inner).(*GormSelectQuery)
	if !ok {
		return g
	}
	g.db = g.db.Where(grouped.db)
	return g
}

func (g *GormSelectQuery) Preload(relation string) common.SelectQuery {
	g.db = g.db.Preload(relation)
	return g
}

func (g *GormSelectQuery) Order(order string) common.SelectQuery {
	g.db = g.db.Order(order)
	return g
}

func (g *GormSelectQuery) Limit(n int) common.SelectQuery {
	g.db = g.db.Limit(n)
	return g
}

func (g *GormSelectQuery) Offset(n int) common.SelectQuery {
	g.db = g.db.Offset(n)
	return g
}

// Clone copies the statement now. Session alone defers the copy to the next
// chained call, so Scopes() is used to force it.
func (g *GormSelectQuery) Clone() common.SelectQuery {
	return &GormSelectQuery{db: g.db.Session(&gorm.Session{}).Scopes()}
}

func (g *GormSelectQuery) Scan(ctx context.Context, dest interface{}) error {
	return g.db.WithContext(ctx).Find(dest).Error
}

func (g *GormSelectQuery) Count(ctx context.Context) (int, error) {
	var count int64
	err := g.db.Session(&gorm.Session{}).WithContext(ctx).Count(&count).Error
	return int(count), err
}
