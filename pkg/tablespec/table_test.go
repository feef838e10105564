package tablespec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

type EmployeeProject struct {
	ID   int `json:"id"`
	Name string
}

func TestNewDerivesDefaults(t *testing.T) {
	def, err := New(&testmodels.Employee{}).Build()
	require.NoError(t, err)

	assert.Equal(t, "employee", def.Prefix())
	assert.Equal(t, "Employee", def.Title())
	assert.Equal(t, "employees", def.BaseRoute())
	assert.Equal(t, "employees", def.Table())
	assert.Equal(t, "id", def.PrimaryKey())
	assert.Equal(t, "id", def.IDField())
	assert.Equal(t, "data", def.Name())
	assert.Equal(t, "employees.index", def.TableRoute())
	assert.Equal(t, "employees.action", def.ActionRoute())
	assert.Equal(t, PaginationSimple, def.PaginationMethod())
	assert.Equal(t, DefaultPerPage, def.PerPage())
	assert.Equal(t, DefaultPerPageOptions, def.PerPageOptions())
	assert.True(t, def.CanEdit())
	assert.True(t, def.CanRestore())

	assert.Equal(t, "employeesort", def.SortParam())
	assert.Equal(t, "employeedir", def.DirParam())
	assert.Equal(t, "employeeq", def.SearchParam())
	assert.Equal(t, "employeepage", def.PageParam())
	assert.Equal(t, "employeeperPage", def.PerPageParam())
	assert.Equal(t, "employeefilter", def.FilterParam())
}

func TestNewWithoutTableName(t *testing.T) {
	def, err := New(EmployeeProject{}).Build()
	require.NoError(t, err)

	assert.Equal(t, "employee_project", def.Prefix())
	assert.Equal(t, "Employee Project", def.Title())
	assert.Equal(t, "employee_projects", def.BaseRoute())
	assert.Equal(t, "employee_projects", def.Table())
	assert.Equal(t, "id", def.PrimaryKey())
	assert.Equal(t, "id", def.IDField())
}

func TestNewFromTableName(t *testing.T) {
	def, err := New("projects").Name("projects").Build()
	require.NoError(t, err)
	assert.Equal(t, "projects", def.Table())
	assert.Equal(t, "projects", def.Prefix())
	assert.Equal(t, "id", def.PrimaryKey())
	assert.Nil(t, def.modelType)
}

func TestBuildRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
	}{
		{"nil model", func() *Builder { return New(nil) }},
		{"non struct model", func() *Builder { return New(42) }},
		{"bad pagination", func() *Builder { return New("projects").Pagination("pages") }},
		{"bad per page", func() *Builder { return New("projects").PerPage(0) }},
		{"bad per page option", func() *Builder { return New("projects").PerPageOptions(10, -5) }},
		{"bad prefix", func() *Builder { return New("projects").Prefix("a b") }},
		{"bad table", func() *Builder { return New("projects").Table("projects; drop") }},
		{"empty name", func() *Builder { return New("projects").Name("") }},
		{"bad column", func() *Builder { return New("projects").Columns(NewColumn("LOWER(name)")) }},
		{"duplicate column", func() *Builder { return New("projects").Columns(NewColumn("name"), NewColumn("name")) }},
		{"bad relation binding", func() *Builder {
			return New("projects").Columns(NewColumn("owner").BelongsTo("owner", "name desc"))
		}},
		{"bad filter field", func() *Builder { return New("projects").Filters(TextFilter("name'")) }},
		{"unknown operator", func() *Builder { return New("projects").Filters(TextFilter("name").Operators("like")) }},
		{"bad relation link", func() *Builder {
			return New("projects").Relations(BelongsTo("owner", "employees", "owner id", "id"))
		}},
		{"bad default sort", func() *Builder { return New("projects").DefaultSort("name desc", SortAsc) }},
		{"bad sort direction", func() *Builder { return New("projects").DefaultSort("name", "up") }},
		{"bad selection policy", func() *Builder { return New("projects").SelectionPolicy("all") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := tt.build().Build()
			assert.Nil(t, def)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), err.Error())
		})
	}
}

func TestSelectionPolicyDefaults(t *testing.T) {
	def, err := New("projects").StandardPaginate().Build()
	require.NoError(t, err)
	assert.Equal(t, SelectionLogicalTotal, def.SelectionPolicy())

	def, err = New("projects").StandardPaginate().DisablePagination(true).Build()
	require.NoError(t, err)
	assert.Equal(t, SelectionPageLocal, def.SelectionPolicy())

	def, err = New("projects").CursorPaginate().Build()
	require.NoError(t, err)
	assert.Equal(t, SelectionPageLocal, def.SelectionPolicy())

	def, err = New("projects").SelectionPolicy(SelectionLogicalTotal).Build()
	require.NoError(t, err)
	assert.Equal(t, SelectionLogicalTotal, def.SelectionPolicy())
}

func TestDefinitionIsolatedFromBuilder(t *testing.T) {
	b := New("projects").Columns(NewColumn("name"))
	def, err := b.Build()
	require.NoError(t, err)

	b.Columns(NewColumn("budget"))
	assert.Len(t, def.Columns(), 1)

	cols := def.Columns()
	cols[0].Label = "changed"
	c, ok := def.Column("name")
	require.True(t, ok)
	assert.Equal(t, "Name", c.Label)
}

func TestDefinitionFiltersAreCopies(t *testing.T) {
	config := map[string]any{"min": 1, "steps": []any{1, 5}, "format": map[string]any{"unit": "years"}}
	status := SelectFilter("status", Option{ID: "active", Value: "active", Label: "Active"})
	b := New("employees").Filters(
		NumberFilter("age").Config(config),
		status,
	)
	def, err := b.Build()
	require.NoError(t, err)

	config["min"] = 99
	config["format"].(map[string]any)["unit"] = "days"

	filters := def.Filters()
	filters[0].Operators[0].Label = "changed"
	filters[0].Config["min"] = 42
	filters[0].Config["steps"].([]any)[0] = 7
	filters[1].Options[0].Label = "changed"

	age, ok := def.Filter("age")
	require.True(t, ok)
	assert.NotEqual(t, "changed", age.Operators[0].Label)
	assert.Equal(t, 1, age.Config["min"])
	assert.Equal(t, []any{1, 5}, age.Config["steps"])
	assert.Equal(t, map[string]any{"unit": "years"}, age.Config["format"])

	age.Operators[0].Label = "changed again"
	again, _ := def.Filter("age")
	assert.NotEqual(t, "changed again", again.Operators[0].Label)

	st, ok := def.Filter("status")
	require.True(t, ok)
	assert.Equal(t, "Active", st.Options[0].Label)
}

func TestColumnAndFilterDefaults(t *testing.T) {
	c := NewColumn("department.title").BelongsTo("department", "title").Build()
	assert.Equal(t, "Department Title", c.Label)
	assert.True(t, c.Toggleable)
	assert.True(t, c.IsRelation())
	assert.Equal(t, "department.title", c.SortKey())

	f := SelectFilter("status", Option{ID: "a", Value: "a", Label: "A"}).Build()
	assert.Equal(t, FilterSelect, f.Type)
	assert.Equal(t, Options(SelectOperators...), f.Operators)
	assert.Len(t, f.Options, 1)

	path, attr := TextFilter("department.manager.name").Build().target()
	assert.Equal(t, []string{"department", "manager"}, path)
	assert.Equal(t, "name", attr)
}
