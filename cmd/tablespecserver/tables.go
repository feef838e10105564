package main

import (
	"net/http"

	"github.com/Warky-Devs/TableSpec/pkg/registry"
	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

var statusOptions = []tablespec.Option{
	{ID: "active", Value: "active", Label: "Active"},
	{ID: "pending", Value: "pending", Label: "Pending"},
	{ID: "inactive", Value: "inactive", Label: "Inactive"},
}

// countAction reports how many rows are selected and how many the current
// view matches.
func countAction() tablespec.Action {
	return tablespec.NewAction("count").ForSelection().WithHandler(func(ac tablespec.ActionContext) (any, error) {
		rows, err := tablespec.ResolveRows(ac.Ctx, ac.DB, ac.Definition, ac.Query)
		if err != nil {
			return nil, err
		}
		return map[string]int{"selected": len(ac.IDs), "matching": len(rows)}, nil
	})
}

// registerTables registers the demo tables. Bun has no relation metadata the
// resolver can read, so withRelations declares the links explicitly, and the
// many-to-many projects relation is left out.
func registerTables(reg *registry.TableRegistry, withRelations bool) error {
	employees := func(*http.Request) (*tablespec.Definition, error) {
		b := tablespec.New(&testmodels.Employee{}).
			Name("employees").
			Title("Employees").
			DefaultSort("name", tablespec.SortAsc).
			Actions(countAction(), tablespec.ExportAction())

		columns := []*tablespec.ColumnBuilder{
			tablespec.NewColumn("name").Sortable().Searchable(),
			tablespec.NewColumn("email").Searchable(),
			tablespec.NewColumn("status").Sortable(),
			tablespec.NewColumn("age").Sortable().Align("right"),
			tablespec.NewColumn("department.title").Label("Department").BelongsTo("department", "title").Sortable().Searchable(),
		}
		filters := []*tablespec.FilterBuilder{
			tablespec.TextFilter("name"),
			tablespec.NumberFilter("age"),
			tablespec.SelectFilter("status", statusOptions...).Multiple(),
			tablespec.DateFilter("hire_date"),
			tablespec.TextFilter("department.title").Label("Department"),
			tablespec.TextFilter("department.manager.name").Label("Manager"),
		}

		if withRelations {
			b.Relations(
				tablespec.BelongsTo("department", "departments", "department_id", "id"),
				tablespec.BelongsTo("department.manager", "employees", "manager_id", "id"),
			)
		} else {
			columns = append(columns, tablespec.NewColumn("projects").HasMany("projects", "name").Separator(", "))
			filters = append(filters, tablespec.TextFilter("projects.name").Label("Project"))
		}

		return b.Columns(columns...).Filters(filters...).Build()
	}

	departments := func(*http.Request) (*tablespec.Definition, error) {
		b := tablespec.New(&testmodels.Department{}).
			Name("departments").
			SimplePaginate().
			Columns(
				tablespec.NewColumn("title").Sortable().Searchable(),
				tablespec.NewColumn("code").Sortable(),
				tablespec.NewColumn("manager.name").Label("Manager").BelongsTo("manager", "name").Sortable(),
				tablespec.NewColumn("employees").HasMany("employees", "name").Separator(", "),
			).
			Filters(
				tablespec.TextFilter("title"),
				tablespec.TextFilter("employees.name").Label("Employee"),
			).
			Actions(tablespec.ExportAction())
		if withRelations {
			b.Relations(
				tablespec.BelongsTo("manager", "employees", "manager_id", "id"),
				tablespec.HasMany("employees", "employees", "id", "department_id"),
			)
		}
		return b.Build()
	}

	projects := func(*http.Request) (*tablespec.Definition, error) {
		return tablespec.New(&testmodels.Project{}).
			Name("projects").
			CursorPaginate().
			DefaultSort("budget", tablespec.SortDesc).
			Columns(
				tablespec.NewColumn("name").Sortable().Searchable(),
				tablespec.NewColumn("status").Sortable(),
				tablespec.NewColumn("budget").Sortable().Align("right"),
			).
			Filters(
				tablespec.SelectFilter("status",
					tablespec.Option{ID: "active", Value: "active", Label: "Active"},
					tablespec.Option{ID: "planned", Value: "planned", Label: "Planned"},
				),
				tablespec.NumberFilter("budget"),
			).
			Actions(tablespec.ExportAction()).
			Build()
	}

	for name, factory := range map[string]registry.TableFactory{
		"employees":   employees,
		"departments": departments,
		"projects":    projects,
	} {
		if err := reg.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}
