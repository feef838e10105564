package tablespec

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/jinzhu/inflection"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/reflection"
)

// PaginationMethod selects how pages are computed.
type PaginationMethod string

const (
	// PaginationOffset counts the total and pages with LIMIT/OFFSET.
	PaginationOffset PaginationMethod = "paginate"
	// PaginationSimple pages forward without a total.
	PaginationSimple PaginationMethod = "simple"
	// PaginationCursor pages with an opaque keyset token.
	PaginationCursor PaginationMethod = "cursor"
)

// Valid reports whether m is a known pagination method.
func (m PaginationMethod) Valid() bool {
	return m == PaginationOffset || m == PaginationSimple || m == PaginationCursor
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SelectionPolicy tells the client what "select all" means.
type SelectionPolicy string

const (
	// SelectionPageLocal selects the visible rows, merged with earlier picks.
	SelectionPageLocal SelectionPolicy = "pageLocal"
	// SelectionLogicalTotal treats the selection as spanning every page;
	// everything is selected once the count reaches the total.
	SelectionLogicalTotal SelectionPolicy = "logicalTotal"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

// DefaultPerPage is the page size of tables that do not set one.
var DefaultPerPage = 10

// DefaultPerPageOptions are the page sizes offered by default.
var DefaultPerPageOptions = []int{10, 25, 50, 100}

// Definition is a built, read-only table definition. It is safe to share
// between goroutines.
type Definition struct {
	model       any
	modelType   reflect.Type
	name        string
	title       string
	prefix      string
	baseRoute   string
	tableRoute  string
	actionRoute string
	table       string
	primaryKey  string
	idField     string

	paginationMethod  PaginationMethod
	disablePagination bool
	perPage           int
	perPageOptions    []int
	selectionPolicy   SelectionPolicy

	canEdit        bool
	canView        bool
	canDelete      bool
	canForceDelete bool
	canRestore     bool

	columns   []Column
	filters   []Filter
	actions   []Action
	relations map[string]common.RelationLink

	defaultSort    string
	defaultSortDir SortDirection

	queryUsing  QueryFunc
	exportUsing ExportFunc
}

// Builder assembles a Definition. The first configuration error is kept and
// returned by Build.
type Builder struct {
	def             Definition
	err             error
	selectionPolicy SelectionPolicy
}

// New starts a table definition for model. model is a struct (or pointer to
// one) describing a row, or a plain table name for map rows. Prefix, title,
// base route and table name are derived from the type name.
func New(model any) *Builder {
	b := &Builder{def: Definition{
		model:            model,
		name:             "data",
		paginationMethod: PaginationSimple,
		perPage:          DefaultPerPage,
		perPageOptions:   append([]int(nil), DefaultPerPageOptions...),
		canEdit:          true,
		canView:          true,
		canDelete:        true,
		canForceDelete:   true,
		canRestore:       true,
		defaultSortDir:   SortAsc,
		relations:        map[string]common.RelationLink{},
	}}

	base := ""
	switch m := model.(type) {
	case string:
		base = m
		b.def.table = m
	case nil:
		b.fail("model is required")
		return b
	default:
		typ := reflection.ModelType(model)
		if typ == nil || typ.Kind() != reflect.Struct {
			b.fail("model must be a struct or a table name, got %T", model)
			return b
		}
		b.def.modelType = typ
		base = typ.Name()
		if provider, ok := reflect.New(typ).Interface().(common.TableNameProvider); ok {
			b.def.table = provider.TableName()
		} else {
			b.def.table = inflection.Plural(toSnakeCase(base))
		}
		b.def.primaryKey = reflection.GetPrimaryKeyName(model)
		if field, ok := reflection.FieldByName(typ, b.def.primaryKey); ok {
			b.def.idField = reflection.JSONName(field)
		}
	}

	snake := toSnakeCase(base)
	b.def.prefix = snake
	b.def.title = headline(base)
	b.def.baseRoute = inflection.Plural(snake)
	if b.def.primaryKey == "" {
		b.def.primaryKey = "id"
	}
	if b.def.idField == "" {
		b.def.idField = b.def.primaryKey
	}
	return b
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}
}

// Name sets the key the payload is published under.
func (b *Builder) Name(name string) *Builder {
	b.def.name = name
	return b
}

func (b *Builder) Title(title string) *Builder {
	b.def.title = title
	return b
}

// Prefix namespaces every query parameter of the table.
func (b *Builder) Prefix(prefix string) *Builder {
	b.def.prefix = prefix
	return b
}

func (b *Builder) BaseRoute(route string) *Builder {
	b.def.baseRoute = route
	return b
}

func (b *Builder) TableRoute(route string) *Builder {
	b.def.tableRoute = route
	return b
}

func (b *Builder) ActionRoute(route string) *Builder {
	b.def.actionRoute = route
	return b
}

// Table overrides the SQL table name of the base rows.
func (b *Builder) Table(table string) *Builder {
	b.def.table = table
	return b
}

// Pagination selects the pagination method: paginate, simple or cursor.
func (b *Builder) Pagination(method PaginationMethod) *Builder {
	if !method.Valid() {
		b.fail("pagination method %q is not one of paginate, simple, cursor", method)
		return b
	}
	b.def.paginationMethod = method
	return b
}

func (b *Builder) SimplePaginate() *Builder   { return b.Pagination(PaginationSimple) }
func (b *Builder) CursorPaginate() *Builder   { return b.Pagination(PaginationCursor) }
func (b *Builder) StandardPaginate() *Builder { return b.Pagination(PaginationOffset) }

// DisablePagination makes the table return every matching row.
func (b *Builder) DisablePagination(disabled bool) *Builder {
	b.def.disablePagination = disabled
	return b
}

func (b *Builder) PerPage(perPage int) *Builder {
	if perPage <= 0 {
		b.fail("per page must be positive, got %d", perPage)
		return b
	}
	b.def.perPage = perPage
	return b
}

func (b *Builder) PerPageOptions(options ...int) *Builder {
	for _, o := range options {
		if o <= 0 {
			b.fail("per page options must be positive, got %d", o)
			return b
		}
	}
	b.def.perPageOptions = append([]int(nil), options...)
	return b
}

func (b *Builder) Edit(allowed bool) *Builder {
	b.def.canEdit = allowed
	return b
}

func (b *Builder) View(allowed bool) *Builder {
	b.def.canView = allowed
	return b
}

func (b *Builder) Delete(allowed bool) *Builder {
	b.def.canDelete = allowed
	return b
}

func (b *Builder) ForceDelete(allowed bool) *Builder {
	b.def.canForceDelete = allowed
	return b
}

func (b *Builder) Restore(allowed bool) *Builder {
	b.def.canRestore = allowed
	return b
}

// Columns appends columns in display order.
func (b *Builder) Columns(columns ...*ColumnBuilder) *Builder {
	for _, c := range columns {
		b.def.columns = append(b.def.columns, c.Build())
	}
	return b
}

// Filters appends filter descriptors.
func (b *Builder) Filters(filters ...*FilterBuilder) *Builder {
	for _, f := range filters {
		b.def.filters = append(b.def.filters, f.Build())
	}
	return b
}

func (b *Builder) Actions(actions ...Action) *Builder {
	b.def.actions = append(b.def.actions, actions...)
	return b
}

// DefaultSort orders rows by column when the request names no sort.
func (b *Builder) DefaultSort(column string, dir SortDirection) *Builder {
	if dir != SortAsc && dir != SortDesc {
		b.fail("default sort direction %q must be asc or desc", dir)
		return b
	}
	b.def.defaultSort = column
	b.def.defaultSortDir = dir
	return b
}

// QueryUsing customizes the base query of every request.
func (b *Builder) QueryUsing(fn QueryFunc) *Builder {
	b.def.queryUsing = fn
	return b
}

// ExportUsing replaces the built-in CSV export.
func (b *Builder) ExportUsing(fn ExportFunc) *Builder {
	b.def.exportUsing = fn
	return b
}

// Relations declares relation links by dotted path. Paths not declared are
// derived from the database adapter when it can inspect models.
func (b *Builder) Relations(links ...common.RelationLink) *Builder {
	for _, link := range links {
		b.def.relations[link.Name] = link
	}
	return b
}

func (b *Builder) SelectionPolicy(policy SelectionPolicy) *Builder {
	if policy != SelectionPageLocal && policy != SelectionLogicalTotal {
		b.fail("selection policy %q is not pageLocal or logicalTotal", policy)
		return b
	}
	b.selectionPolicy = policy
	return b
}

// IDField names the row key the client uses to track selection.
func (b *Builder) IDField(field string) *Builder {
	b.def.idField = field
	return b
}

// Build validates the configuration and returns the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	def := b.def

	if !prefixPattern.MatchString(def.prefix) {
		return nil, fmt.Errorf("%w: prefix %q is not a valid parameter name", ErrInvalidConfiguration, def.prefix)
	}
	if !common.IsValidIdentifier(def.table) {
		return nil, fmt.Errorf("%w: table %q is not a valid identifier", ErrInvalidConfiguration, def.table)
	}
	if !common.IsValidIdentifier(def.primaryKey) {
		return nil, fmt.Errorf("%w: primary key %q is not a valid identifier", ErrInvalidConfiguration, def.primaryKey)
	}
	if def.name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfiguration)
	}

	seen := make(map[string]bool, len(def.columns))
	for _, c := range def.columns {
		if !common.IsValidIdentifier(c.Name) {
			return nil, fmt.Errorf("%w: column name %q is not a valid identifier", ErrInvalidConfiguration, c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidConfiguration, c.Name)
		}
		seen[c.Name] = true
		if c.Relation != "" && (!common.IsValidIdentifier(c.Relation) || !common.IsValidIdentifier(c.RelationKey)) {
			return nil, fmt.Errorf("%w: column %q has an invalid relation binding %q.%q", ErrInvalidConfiguration, c.Name, c.Relation, c.RelationKey)
		}
	}

	for _, f := range def.filters {
		if !common.IsValidIdentifier(f.Field) {
			return nil, fmt.Errorf("%w: filter field %q is not a valid identifier", ErrInvalidConfiguration, f.Field)
		}
		for _, op := range f.Operators {
			if !op.Value.Valid() {
				return nil, fmt.Errorf("%w: filter %q offers unknown operator %q", ErrInvalidConfiguration, f.Field, op.Value)
			}
		}
	}

	for path, link := range def.relations {
		if err := validateLink(path, link); err != nil {
			return nil, err
		}
	}

	if def.defaultSort != "" && !common.IsValidIdentifier(def.defaultSort) {
		return nil, fmt.Errorf("%w: default sort %q is not a valid identifier", ErrInvalidConfiguration, def.defaultSort)
	}

	switch {
	case b.selectionPolicy != "":
		def.selectionPolicy = b.selectionPolicy
	case def.paginationMethod == PaginationOffset && !def.disablePagination:
		def.selectionPolicy = SelectionLogicalTotal
	default:
		def.selectionPolicy = SelectionPageLocal
	}

	def.columns = append([]Column(nil), def.columns...)
	def.filters = cloneFilters(def.filters)
	def.actions = append([]Action(nil), def.actions...)
	relations := make(map[string]common.RelationLink, len(def.relations))
	for k, v := range def.relations {
		relations[k] = v
	}
	def.relations = relations

	if cols := common.ModelColumns(def.model); cols.Len() > 0 {
		for _, c := range def.columns {
			if !c.IsRelation() && (c.Sortable || c.Searchable) && c.RenderUsing == nil && !cols.Has(c.Name) {
				logger.Warn("Table %s: column '%s' is not a field of %s", def.name, c.Name, reflection.TypeName(def.model))
			}
		}
	}

	return &def, nil
}

func (d *Definition) Name() string        { return d.name }
func (d *Definition) Title() string       { return d.title }
func (d *Definition) Prefix() string      { return d.prefix }
func (d *Definition) BaseRoute() string   { return d.baseRoute }
func (d *Definition) Table() string       { return d.table }
func (d *Definition) PrimaryKey() string  { return d.primaryKey }
func (d *Definition) IDField() string     { return d.idField }
func (d *Definition) Model() any          { return d.model }
func (d *Definition) PerPage() int        { return d.perPage }
func (d *Definition) DefaultSort() string { return d.defaultSort }

// TableRoute defaults to "<baseRoute>.index".
func (d *Definition) TableRoute() string {
	if d.tableRoute != "" {
		return d.tableRoute
	}
	return d.baseRoute + ".index"
}

// ActionRoute defaults to "<baseRoute>.action".
func (d *Definition) ActionRoute() string {
	if d.actionRoute != "" {
		return d.actionRoute
	}
	return d.baseRoute + ".action"
}

func (d *Definition) PaginationMethod() PaginationMethod { return d.paginationMethod }
func (d *Definition) PaginationDisabled() bool          { return d.disablePagination }
func (d *Definition) SelectionPolicy() SelectionPolicy  { return d.selectionPolicy }
func (d *Definition) DefaultSortDir() SortDirection     { return d.defaultSortDir }

func (d *Definition) PerPageOptions() []int {
	return append([]int(nil), d.perPageOptions...)
}

func (d *Definition) CanEdit() bool        { return d.canEdit }
func (d *Definition) CanView() bool        { return d.canView }
func (d *Definition) CanDelete() bool      { return d.canDelete }
func (d *Definition) CanForceDelete() bool { return d.canForceDelete }
func (d *Definition) CanRestore() bool     { return d.canRestore }

// Columns returns a copy of the columns in display order.
func (d *Definition) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// Column finds a column by name.
func (d *Definition) Column(name string) (Column, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (d *Definition) Filters() []Filter {
	return cloneFilters(d.filters)
}

// Filter finds a filter descriptor by field.
func (d *Definition) Filter(field string) (Filter, bool) {
	for _, f := range d.filters {
		if f.Field == field {
			return f.clone(), true
		}
	}
	return Filter{}, false
}

func (d *Definition) Actions() []Action {
	return append([]Action(nil), d.actions...)
}

// Action finds an action by name.
func (d *Definition) Action(name string) (Action, bool) {
	for _, a := range d.actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Query parameter names, namespaced by the prefix.
func (d *Definition) SortParam() string    { return d.prefix + "sort" }
func (d *Definition) DirParam() string     { return d.prefix + "dir" }
func (d *Definition) SearchParam() string  { return d.prefix + "q" }
func (d *Definition) PageParam() string    { return d.prefix + "page" }
func (d *Definition) PerPageParam() string { return d.prefix + "perPage" }
func (d *Definition) FilterParam() string  { return d.prefix + "filter" }

// newRows allocates a *[]*Model (or *[]map[string]any) to scan into.
func (d *Definition) newRows() any {
	if d.modelType == nil {
		rows := make([]map[string]any, 0)
		return &rows
	}
	return reflect.New(reflect.SliceOf(reflect.PointerTo(d.modelType))).Interface()
}
