package database

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
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

func memoryDSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

func newGorm(t *testing.T) *GormAdapter {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(memoryDSN(t)), &gorm.Config{
		Logger:                                   gormlog.Default.LogMode(gormlog.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, testmodels.Seed(db))
	return NewGormAdapter(db)
}

func newBun(t *testing.T) *BunAdapter {
	t.Helper()
	sqldb, err := sql.Open(sqlite.DriverName, memoryDSN(t))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	require.NoError(t, testmodels.SeedBun(context.Background(), db))
	return NewBunAdapter(db)
}

func ids(employees []testmodels.Employee) []uint {
	out := make([]uint, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.ID)
	}
	return out
}

func TestGormRelationPath(t *testing.T) {
	g := newGorm(t)

	tests := []struct {
		name  string
		model any
		path  []string
		want  []common.RelationLink
	}{
		{
			"belongs to", &testmodels.Employee{}, []string{"department"},
			[]common.RelationLink{{Name: "department", Field: "Department", Type: common.RelationBelongsTo, Table: "departments", ParentKey: "department_id", RelatedKey: "id"}},
		},
		{
			"go field name", &[]testmodels.Employee{}, []string{"Department"},
			[]common.RelationLink{{Name: "Department", Field: "Department", Type: common.RelationBelongsTo, Table: "departments", ParentKey: "department_id", RelatedKey: "id"}},
		},
		{
			"two hops", &testmodels.Employee{}, []string{"department", "manager"},
			[]common.RelationLink{
				{Name: "department", Field: "Department", Type: common.RelationBelongsTo, Table: "departments", ParentKey: "department_id", RelatedKey: "id"},
				{Name: "manager", Field: "Manager", Type: common.RelationBelongsTo, Table: "employees", ParentKey: "manager_id", RelatedKey: "id"},
			},
		},
		{
			"has many", &testmodels.Department{}, []string{"employees"},
			[]common.RelationLink{{Name: "employees", Field: "Employees", Type: common.RelationHasMany, Table: "employees", ParentKey: "id", RelatedKey: "department_id"}},
		},
		{
			"many to many", &testmodels.Employee{}, []string{"projects"},
			[]common.RelationLink{{
				Name: "projects", Field: "Projects", Type: common.RelationManyToMany, Table: "projects",
				ParentKey: "id", RelatedKey: "id",
				JoinTable: "employee_projects", JoinParentKey: "employee_id", JoinRelatedKey: "project_id",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := g.RelationPath(tt.model, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, links)
		})
	}

	_, err := g.RelationPath(&testmodels.Employee{}, []string{"department", "budget"})
	assert.ErrorContains(t, err, "relation budget not found")
}

func TestGormSelectQuery(t *testing.T) {
	ctx := context.Background()
	g := newGorm(t)

	base := g.NewSelect().Model(&testmodels.Employee{}).Where("status = ?", "active")
	clone := base.Clone().Where("age > ?", 30)

	n, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = clone.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var employees []testmodels.Employee
	err = g.NewSelect().Model(&testmodels.Employee{}).
		WhereGroup(func(q common.SelectQuery) common.SelectQuery {
			return q.Where("status = ?", "pending").WhereOr("age > ?", 50)
		}).
		Where("department_id IS NOT NULL").
		Order("id").
		Scan(ctx, &employees)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, ids(employees))

	employees = nil
	err = g.NewSelect().Model(&testmodels.Employee{}).Order("age DESC").Limit(2).Offset(1).Preload("Department").Scan(ctx, &employees)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids(employees))
	require.NotNil(t, employees[0].Department)
	assert.Equal(t, "Engineering", employees[0].Department.Title)

	// every NewSelect starts from a clean statement
	n, err = g.NewSelect().Model(&testmodels.Employee{}).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestBunTableAlias(t *testing.T) {
	b := newBun(t)
	assert.Equal(t, "employee", b.TableAlias(&testmodels.Employee{}))
	assert.Equal(t, "employee", b.TableAlias(&[]testmodels.Employee{}))
	assert.Equal(t, "department", b.TableAlias(testmodels.Department{}))
	assert.Equal(t, "", b.TableAlias("employees"))
}

func TestBunSelectQuery(t *testing.T) {
	ctx := context.Background()
	b := newBun(t)

	base := b.NewSelect().Model((*testmodels.Employee)(nil)).Where("status = ?", "active")
	clone := base.Clone().Where("age > ?", 30)

	n, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = clone.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var employees []testmodels.Employee
	err = b.NewSelect().Model(&employees).
		WhereGroup(func(q common.SelectQuery) common.SelectQuery {
			return q.Where("status = ?", "pending").WhereOr("age > ?", 50)
		}).
		Where("department_id IS NOT NULL").
		Order("employee.id").
		Scan(ctx, &employees)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, ids(employees))

	// an empty group adds nothing
	employees = nil
	err = b.NewSelect().Model(&employees).
		WhereGroup(func(q common.SelectQuery) common.SelectQuery { return q }).
		Order("employee.age DESC").Limit(2).Offset(1).Preload("Department").
		Scan(ctx, &employees)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids(employees))
	require.NotNil(t, employees[0].Department)
	assert.Equal(t, "Engineering", employees[0].Department.Title)
}
