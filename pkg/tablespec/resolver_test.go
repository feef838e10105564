package tablespec

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

func TestResolveSearchAndSort(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.Prefix("emp_").DisablePagination(true) })

	payload := resolve(t, db, def, params("emp_q", "ENG", "emp_sort", "name", "emp_dir", "desc"))

	rows := payload.Rows()
	assert.Equal(t, []uint{3, 1}, rowIDs(rows))
	assert.Equal(t, "Carol White", rows[0]["name"])
	assert.Equal(t, "Engineering", rows[0]["department.title"])
	assert.Equal(t, "ENG", payload.Filters.Q)
	assert.Equal(t, "name", payload.Filters.Sort)
	assert.Equal(t, SortDesc, payload.Filters.Dir)
}

func TestResolveSearchEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	assert.Empty(t, resolve(t, db, def, params("q", "%")).Rows())
	assert.Empty(t, resolve(t, db, def, params("q", "_")).Rows())
	assert.Len(t, resolve(t, db, def, params("q", "example.com")).Rows(), 5)
}

func TestResolveFilters(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	tests := []struct {
		name  string
		field string
		raw   string
		ids   []uint
	}{
		{"greater", "age", ">:34", []uint{3, 4}},
		{"greater or equal", "age", ">=:34", []uint{1, 3, 4}},
		{"less", "age", "<:28", []uint{5}},
		{"less or equal", "age", "<=:28", []uint{2, 5}},
		{"equal", "age", "=:34", []uint{1}},
		{"not equal", "age", "!=:34", []uint{2, 3, 4, 5}},
		{"between inclusive", "age", "><:28,45", []uint{1, 2, 3}},
		{"between open upper", "age", "><:40", []uint{3, 4}},
		{"between open lower", "age", "><:,30", []uint{2, 5}},
		{"not between", "age", "!><:25,45", []uint{4, 5}},
		{"not between open upper", "age", "!><:40", []uint{1, 2, 5}},
		{"ends with", "name", "*=:SMITH", []uint{2}},
		{"not ends with", "name", "!*=:smith", []uint{1, 3, 4, 5}},
		{"starts with", "name", "=*:al", []uint{1}},
		{"not starts with", "name", "!=*:al", []uint{2, 3, 4, 5}},
		{"contains", "name", "*:o", []uint{1, 2, 3, 4}},
		{"not contains", "name", "!*:o", []uint{5}},
		{"in", "status", "in:active,pending", []uint{1, 2, 3, 5}},
		{"not in", "status", "notIn:active,pending", []uint{4}},
		{"is set", "department_id", "isSet", []uint{1, 2, 3, 4}},
		{"is not set", "department_id", "isNotSet", []uint{5}},
		{"date equal", "hire_date", "=:2020-01-15", []uint{1}},
		{"date between", "hire_date", "><:2019-01-01,2020-12-31", []uint{1, 3}},
		{"date in", "hire_date", "in:2020-01-15,2018-11-05", []uint{1, 4}},
		{"date after", "hire_date", ">:2021-01-01", []uint{2, 5}},
		{"date with time is truncated", "hire_date", "<:2019-01-01T10:00:00Z", []uint{4}},
		{"belongs to", "department.title", "=:Engineering", []uint{1, 3}},
		{"belongs to contains", "department.title", "*:ERA", []uint{2}},
		{"two level relation", "department.manager.name", "=*:carol", []uint{1, 3}},
		{"many to many", "projects.name", "=:Apollo", []uint{1, 3}},
		{"many to many is set", "projects.name", "isSet", []uint{1, 3, 4}},
		{"unknown token is literal equality", "status", "active", []uint{1, 3, 5}},
		{"unknown operator keeps raw value", "status", "foo:active", nil},
		{"empty value is ignored", "age", "=:", []uint{1, 2, 3, 4, 5}},
		{"empty between is ignored", "age", "><:,", []uint{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := resolve(t, db, def, params("filter["+tt.field+"]", tt.raw))
			ids := rowIDs(payload.Rows())
			if tt.ids == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, map[string]string{tt.field: tt.raw}, payload.Filters.Filter)
		})
	}
}

func TestResolveIgnoresUnregisteredFilter(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	payload := resolve(t, db, def, params("filter[email]", "=:alice@example.com"))
	assert.Len(t, payload.Rows(), 5)
}

func TestResolveFilterHook(t *testing.T) {
	db := newTestDB(t)
	var seen FilterContext
	def, err := New(&testmodels.Employee{}).
		Prefix("").
		DisablePagination(true).
		Columns(NewColumn("name")).
		Filters(TextFilter("name").QueryUsing(func(fc FilterContext) common.SelectQuery {
			seen = fc
			return fc.Query.Where(fc.Column+" LIKE ?", fc.Value+"%")
		})).
		Build()
	require.NoError(t, err)

	payload := resolve(t, db, def, params("filter[name]", "=:Bo"))
	assert.Equal(t, []uint{2}, rowIDs(payload.Rows()))
	assert.Equal(t, OpEqual, seen.Operator)
	assert.Equal(t, "Bo", seen.Value)
	assert.Equal(t, "=:Bo", seen.Raw)
	assert.Equal(t, "employees.name", seen.Column)
}

func TestResolveRelationSort(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	payload := resolve(t, db, def, params("sort", "department.title"))
	assert.Equal(t, []uint{5, 1, 3, 2, 4}, rowIDs(payload.Rows()))

	payload = resolve(t, db, def, params("sort", "-department.title"))
	assert.Equal(t, []uint{4, 2, 1, 3, 5}, rowIDs(payload.Rows()))
}

func TestResolveSortFallbacks(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true).DefaultSort("age", SortDesc) })

	payload := resolve(t, db, def, nil)
	assert.Equal(t, []uint{4, 3, 1, 2, 5}, rowIDs(payload.Rows()))
	assert.Equal(t, "age", payload.Filters.Sort)
	assert.Equal(t, SortDesc, payload.Filters.Dir)

	// email is not sortable, so the default applies
	payload = resolve(t, db, def, params("sort", "email"))
	assert.Equal(t, []uint{4, 3, 1, 2, 5}, rowIDs(payload.Rows()))
	assert.Equal(t, "age", payload.Filters.Sort)
	assert.Equal(t, SortDesc, payload.Filters.Dir)
}

func TestResolveEchoesEffectiveSort(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	payload := resolve(t, db, def, params("sort", "-name"))
	assert.Equal(t, []uint{5, 4, 3, 2, 1}, rowIDs(payload.Rows()))
	assert.Equal(t, "name", payload.Filters.Sort)
	assert.Equal(t, SortDesc, payload.Filters.Dir)

	payload = resolve(t, db, def, params("sort", "department.title", "dir", "desc"))
	assert.Equal(t, "department.title", payload.Filters.Sort)
	assert.Equal(t, SortDesc, payload.Filters.Dir)

	payload = resolve(t, db, def, params("sort", "age"))
	assert.Equal(t, "age", payload.Filters.Sort)
	assert.Equal(t, SortAsc, payload.Filters.Dir)
}

func TestResolveRendersRelations(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	rows := resolve(t, db, def, params("sort", "name")).Rows()
	require.Len(t, rows, 5)

	alice := rows[0]
	assert.Equal(t, uint(1), alice["id"])
	assert.Equal(t, "Engineering", alice["department.title"])
	assert.Equal(t, HTML{HTML: "<span>Apollo Zeus</span>"}, alice["projects"])

	eve := rows[4]
	assert.Equal(t, "", eve["department.title"])
	assert.Equal(t, HTML{HTML: "<span></span>"}, eve["projects"])
}

func TestResolveSimplePagination(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.PerPage(2) })

	payload := resolve(t, db, def, nil)
	page, ok := payload.Items.(*SimplePage)
	require.True(t, ok)
	assert.Equal(t, []uint{1, 2}, rowIDs(page.Data))
	assert.Equal(t, 1, page.CurrentPage)
	require.NotNil(t, page.NextPageURL)
	assert.Equal(t, "/tables/employees?page=2", *page.NextPageURL)
	assert.Nil(t, page.PrevPageURL)
	assert.Equal(t, 1, *page.From)
	assert.Equal(t, 2, *page.To)

	payload = resolve(t, db, def, params("page", "3"))
	page = payload.Items.(*SimplePage)
	assert.Equal(t, []uint{5}, rowIDs(page.Data))
	assert.Nil(t, page.NextPageURL)
	require.NotNil(t, page.PrevPageURL)
	assert.Equal(t, "/tables/employees?page=2", *page.PrevPageURL)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "total")
}

func TestResolveLengthAwarePagination(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.StandardPaginate().PerPage(2) })

	payload := resolve(t, db, def, params("page", "2", "q", "e"))
	page, ok := payload.Items.(*LengthAwarePage)
	require.True(t, ok)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, []uint{3, 4}, rowIDs(page.Data))
	assert.Equal(t, 3, *page.From)
	assert.Equal(t, 4, *page.To)
	assert.Equal(t, "/tables/employees?page=3&q=e", *page.NextPageURL)
	assert.Equal(t, "/tables/employees?page=1&q=e", *page.PrevPageURL)
	assert.Equal(t, "/tables/employees?page=1&q=e", page.FirstPageURL)
	assert.Equal(t, "/tables/employees?page=3&q=e", page.LastPageURL)

	require.Len(t, page.Links, 5)
	assert.Equal(t, "&laquo; Previous", page.Links[0].Label)
	assert.True(t, page.Links[2].Active)
	assert.Equal(t, "Next &raquo;", page.Links[4].Label)
	assert.Equal(t, SelectionLogicalTotal, payload.SelectionPolicy)
}

func TestResolvePerPageParam(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, nil)

	payload := resolve(t, db, def, params("perPage", "3"))
	assert.Len(t, payload.Rows(), 3)
	assert.Equal(t, 3, payload.PerPage)

	payload = resolve(t, db, def, params("perPage", "-1"))
	assert.Len(t, payload.Rows(), 5)
	assert.Equal(t, 10, payload.PerPage)
}

func TestResolveClampsPaging(t *testing.T) {
	db := newTestDB(t)
	huge := strconv.Itoa(math.MaxInt)

	offset := employeeTable(t, func(b *Builder) { b.StandardPaginate().PerPage(2) })
	page := resolve(t, db, offset, params("page", huge)).Items.(*LengthAwarePage)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, []uint{5}, rowIDs(page.Data))
	require.NotNil(t, page.From)
	assert.Equal(t, 5, *page.From)
	assert.Nil(t, page.NextPageURL)

	simple := employeeTable(t, func(b *Builder) { b.PerPage(2) })
	far := resolve(t, db, simple, params("page", huge)).Items.(*SimplePage)
	assert.Empty(t, far.Data)
	assert.Nil(t, far.From)
	assert.Nil(t, far.NextPageURL)
	assert.Equal(t, math.MaxInt/2-1, far.CurrentPage)

	payload := resolve(t, db, employeeTable(t, nil), params("perPage", huge))
	assert.Equal(t, 100, payload.PerPage)
	assert.Len(t, payload.Rows(), 5)

	capped := employeeTable(t, func(b *Builder) { b.PerPage(2).PerPageOptions(2, 4) })
	assert.Equal(t, 4, resolve(t, db, capped, params("perPage", "50")).PerPage)
}

func TestResolveCursorPagination(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(2).DefaultSort("name", SortAsc) })

	first := resolve(t, db, def, nil).Items.(*CursorPage)
	assert.Equal(t, []uint{1, 2}, rowIDs(first.Data))
	assert.Nil(t, first.PrevCursor)
	require.NotNil(t, first.NextCursor)

	second := resolve(t, db, def, params("page", *first.NextCursor)).Items.(*CursorPage)
	assert.Equal(t, []uint{3, 4}, rowIDs(second.Data))
	require.NotNil(t, second.PrevCursor)
	require.NotNil(t, second.NextCursor)
	assert.Contains(t, *second.NextPageURL, "page="+*second.NextCursor)

	third := resolve(t, db, def, params("page", *second.NextCursor)).Items.(*CursorPage)
	assert.Equal(t, []uint{5}, rowIDs(third.Data))
	assert.Nil(t, third.NextCursor)
	require.NotNil(t, third.PrevCursor)

	back := resolve(t, db, def, params("page", *second.PrevCursor)).Items.(*CursorPage)
	assert.Equal(t, []uint{1, 2}, rowIDs(back.Data))
	assert.Nil(t, back.PrevCursor)
	require.NotNil(t, back.NextCursor)
}

func TestResolveCursorDescendingRelationSort(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(2) })

	values := params("sort", "department.title", "dir", "desc")
	first := resolve(t, db, def, values).Items.(*CursorPage)
	assert.Equal(t, []uint{4, 2}, rowIDs(first.Data))

	values.Set("page", *first.NextCursor)
	second := resolve(t, db, def, values).Items.(*CursorPage)
	assert.Equal(t, []uint{1, 3}, rowIDs(second.Data))
}

// walkCursor follows next cursors from the first page and returns the ids of
// every page in visiting order.
func walkCursor(t *testing.T, db common.Database, def *Definition, values url.Values) [][]uint {
	t.Helper()
	var pages [][]uint
	values = cloneValues(values)
	for i := 0; i < 10; i++ {
		payload, err := Resolve(context.Background(), db, def, Query{Path: "/tables/employees", Params: values})
		require.NoError(t, err)
		page := payload.Items.(*CursorPage)
		pages = append(pages, rowIDs(page.Data))
		if page.NextCursor == nil {
			return pages
		}
		values.Set("page", *page.NextCursor)
	}
	t.Fatalf("cursor walk did not end: %v", pages)
	return nil
}

func cloneValues(values url.Values) url.Values {
	out := url.Values{}
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func TestResolveCursorWalksNullSortKeys(t *testing.T) {
	engines := map[string]func(t *testing.T) (common.Database, *Definition){
		"gorm": func(t *testing.T) (common.Database, *Definition) {
			return newTestDB(t), employeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(1) })
		},
		"bun": func(t *testing.T) (common.Database, *Definition) {
			return newBunTestDB(t), bunEmployeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(1) })
		},
	}
	tests := []struct {
		name    string
		perPage string
		dir     string
		pages   [][]uint
	}{
		{"ascending one per page", "1", "asc", [][]uint{{5}, {1}, {3}, {2}, {4}}},
		{"ascending two per page", "2", "asc", [][]uint{{5, 1}, {3, 2}, {4}}},
		{"descending one per page", "1", "desc", [][]uint{{4}, {2}, {1}, {3}, {5}}},
		{"descending two per page", "2", "desc", [][]uint{{4, 2}, {1, 3}, {5}}},
	}

	for engine, setup := range engines {
		for _, tt := range tests {
			t.Run(engine+"/"+tt.name, func(t *testing.T) {
				db, def := setup(t)
				values := params("sort", "department.title", "dir", tt.dir, "perPage", tt.perPage)
				assert.Equal(t, tt.pages, walkCursor(t, db, def, values))
			})
		}
	}
}

func TestResolveCursorBackFromNullBoundary(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(2) })
	values := params("sort", "department.title", "dir", "desc")

	first := resolve(t, db, def, values).Items.(*CursorPage)
	values.Set("page", *first.NextCursor)
	second := resolve(t, db, def, values).Items.(*CursorPage)
	require.NotNil(t, second.NextCursor)

	values.Set("page", *second.NextCursor)
	last := resolve(t, db, def, values).Items.(*CursorPage)
	assert.Equal(t, []uint{5}, rowIDs(last.Data))
	assert.Nil(t, last.NextCursor)
	require.NotNil(t, last.PrevCursor)

	values.Set("page", *last.PrevCursor)
	back := resolve(t, db, def, values).Items.(*CursorPage)
	assert.Equal(t, []uint{1, 3}, rowIDs(back.Data))
}

func TestResolveMalformedCursorStartsOver(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.CursorPaginate().PerPage(2) })

	page := resolve(t, db, def, params("page", "not-a-cursor")).Items.(*CursorPage)
	assert.Equal(t, []uint{1, 2}, rowIDs(page.Data))
}

func TestResolveQueryHook(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) {
		b.DisablePagination(true).QueryUsing(func(qc QueryContext) common.SelectQuery {
			if qc.Params.Get("only") == "active" {
				return qc.Query.Where("employees.status = ?", "active")
			}
			return qc.Query
		})
	})

	assert.Equal(t, []uint{1, 3, 5}, rowIDs(resolve(t, db, def, params("only", "active")).Rows()))
	assert.Len(t, resolve(t, db, def, nil).Rows(), 5)
}

func TestResolvePayload(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) {
		b.Name("employees").Actions(ExportAction()).Delete(false)
	})

	payload := resolve(t, db, def, params("filter[status]", "in:active"))
	raw, err := json.Marshal(map[string]any{def.Name(): payload})
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	doc := decoded["employees"]
	for _, key := range []string{"items", "filters", "perPage", "perPageOptions", "columns", "actions", "prefix", "name",
		"edit", "view", "delete", "forceDelete", "restore", "disablePagination", "paginationMethod",
		"baseRoute", "tableRoute", "actionRoute", "title", "selectionPolicy", "idField"} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, false, doc["delete"])
	assert.Equal(t, "simple", doc["paginationMethod"])
	assert.Equal(t, "employees.index", doc["tableRoute"])
	assert.Equal(t, "pageLocal", doc["selectionPolicy"])

	filters := doc["filters"].(map[string]any)
	assert.Equal(t, map[string]any{"status": "in:active"}, filters["filter"])
	assert.Len(t, filters["opt"], 8)
}

func TestResolveDisabledPaginationPayload(t *testing.T) {
	db := newTestDB(t)
	def := employeeTable(t, func(b *Builder) { b.DisablePagination(true) })

	payload := resolve(t, db, def, nil)
	_, ok := payload.Items.([]Row)
	assert.True(t, ok)
	assert.Equal(t, 0, payload.PerPage)
	assert.Equal(t, []int{}, payload.PerPageOptions)
}

func TestResolveMapRows(t *testing.T) {
	db := newTestDB(t)
	def, err := New("projects").
		DisablePagination(true).
		Columns(NewColumn("name").Searchable(), NewColumn("budget").Sortable()).
		Build()
	require.NoError(t, err)

	payload := resolve(t, db, def, params("projectssort", "budget", "projectsq", "e"))
	rows := payload.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Hermes", rows[0]["name"])
	assert.Equal(t, "Zeus", rows[1]["name"])
}
