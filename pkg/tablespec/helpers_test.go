package tablespec

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/Warky-Devs/TableSpec/pkg/common/adapters/database"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

// newTestDB opens a seeded in-memory sqlite database private to the test.
func newTestDB(t *testing.T) *database.GormAdapter {
	t.Helper()
	logger.SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { logger.SetLogger(nil) })

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlog.Default.LogMode(gormlog.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testmodels.Seed(db))
	return database.NewGormAdapter(db)
}

// employeeTable is the definition most resolver tests run against.
func employeeTable(t *testing.T, configure func(*Builder)) *Definition {
	t.Helper()
	b := New(&testmodels.Employee{}).
		Prefix("").
		Columns(
			NewColumn("name").Sortable().Searchable(),
			NewColumn("email").Searchable(),
			NewColumn("status").Sortable(),
			NewColumn("age").Sortable(),
			NewColumn("department.title").BelongsTo("department", "title").Sortable().Searchable(),
			NewColumn("projects").HasMany("projects", "name"),
		).
		Filters(
			TextFilter("name"),
			NumberFilter("age"),
			NumberFilter("department_id"),
			SelectFilter("status",
				Option{ID: "active", Value: "active", Label: "Active"},
				Option{ID: "pending", Value: "pending", Label: "Pending"},
				Option{ID: "inactive", Value: "inactive", Label: "Inactive"},
			).Multiple(),
			DateFilter("hire_date"),
			TextFilter("department.title"),
			TextFilter("department.manager.name"),
			TextFilter("projects.name"),
		)
	if configure != nil {
		configure(b)
	}
	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func params(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Add(pairs[i], pairs[i+1])
	}
	return v
}

func resolve(t *testing.T, db *database.GormAdapter, def *Definition, values url.Values) *Payload {
	t.Helper()
	payload, err := Resolve(context.Background(), db, def, Query{Path: "/tables/employees", Params: values})
	require.NoError(t, err)
	return payload
}

// rowIDs collects the id column of rendered rows in order.
func rowIDs(rows []Row) []uint {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r["id"].(uint))
	}
	return ids
}
