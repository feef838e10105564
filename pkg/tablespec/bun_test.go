package tablespec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap/zaptest"

	"github.com/Warky-Devs/TableSpec/pkg/common/adapters/database"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

func newBunTestDB(t *testing.T) *database.BunAdapter {
	t.Helper()
	logger.SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { logger.SetLogger(nil) })

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqlite.DriverName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, testmodels.SeedBun(context.Background(), db))
	return database.NewBunAdapter(db)
}

func bunEmployeeTable(t *testing.T, configure func(*Builder)) *Definition {
	t.Helper()
	b := New(&testmodels.Employee{}).
		Prefix("").
		Relations(
			BelongsTo("department", "departments", "department_id", "id"),
			BelongsTo("department.manager", "employees", "manager_id", "id"),
		).
		Columns(
			NewColumn("name").Sortable().Searchable(),
			NewColumn("age").Sortable(),
			NewColumn("department.title").BelongsTo("department", "title").Sortable().Searchable(),
		).
		Filters(
			NumberFilter("age"),
			DateFilter("hire_date"),
			TextFilter("department.manager.name"),
		)
	if configure != nil {
		configure(b)
	}
	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func resolveBun(t *testing.T, db *database.BunAdapter, def *Definition, pairs ...string) *Payload {
	t.Helper()
	payload, err := Resolve(context.Background(), db, def, Query{Path: "/tables/employees", Params: params(pairs...)})
	require.NoError(t, err)
	return payload
}

func TestBunResolveSearchAndRelations(t *testing.T) {
	db := newBunTestDB(t)
	def := bunEmployeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	rows := resolveBun(t, db, def, "q", "eng", "sort", "-name").Rows()
	assert.Equal(t, []uint{3, 1}, rowIDs(rows))
	assert.Equal(t, "Engineering", rows[0]["department.title"])

	assert.Equal(t, []uint{1, 3}, rowIDs(resolveBun(t, db, def, "filter[department.manager.name]", "=*:carol", "sort", "name").Rows()))
	assert.Equal(t, []uint{3, 4}, rowIDs(resolveBun(t, db, def, "filter[age]", "><:40", "sort", "age").Rows()))
	assert.Equal(t, []uint{1}, rowIDs(resolveBun(t, db, def, "filter[hire_date]", "=:2020-01-15").Rows()))
	assert.Equal(t, []uint{5, 1, 3, 2, 4}, rowIDs(resolveBun(t, db, def, "sort", "department.title").Rows()))
}

func TestBunResolvePagination(t *testing.T) {
	db := newBunTestDB(t)

	offset := bunEmployeeTable(t, func(b *Builder) { b.StandardPaginate().PerPage(2) })
	page := resolveBun(t, db, offset, "page", "3").Items.(*LengthAwarePage)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, []uint{5}, rowIDs(page.Data))

	cursor := bunEmployeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(3).DefaultSort("age", SortDesc) })
	first := resolveBun(t, db, cursor).Items.(*CursorPage)
	assert.Equal(t, []uint{4, 3, 1}, rowIDs(first.Data))
	require.NotNil(t, first.NextCursor)

	second := resolveBun(t, db, cursor, "page", *first.NextCursor).Items.(*CursorPage)
	assert.Equal(t, []uint{2, 5}, rowIDs(second.Data))
	assert.Nil(t, second.NextCursor)
}
