package tablespec

import "github.com/Warky-Devs/TableSpec/pkg/common"

// Column describes how one table column is fetched, matched and rendered.
// Columns are values; a Definition keeps its own copies.
type Column struct {
	Name          string              `json:"name"`
	Label         string              `json:"label"`
	Sortable      bool                `json:"sortable"`
	Searchable    bool                `json:"searchable"`
	Hidden        bool                `json:"hidden"`
	Toggleable    bool                `json:"toggleable"`
	HeadClass     string              `json:"headClass"`
	CellClass     string              `json:"cellClass"`
	Align         string              `json:"align,omitempty"`
	Wrap          bool                `json:"wrap,omitempty"`
	TruncateLines int                 `json:"truncateLines,omitempty"`
	Component     string              `json:"component,omitempty"`
	Relation      string              `json:"relation,omitempty"`
	RelationKey   string              `json:"relationKey,omitempty"`
	RelationType  common.RelationType `json:"relationType,omitempty"`
	Separator     string              `json:"-"`
	RenderUsing   RenderFunc          `json:"-"`
}

// ColumnBuilder configures a Column fluently.
type ColumnBuilder struct {
	column Column
}

// NewColumn starts a column. The label defaults to the humanized name.
func NewColumn(name string) *ColumnBuilder {
	return &ColumnBuilder{column: Column{
		Name:       name,
		Label:      humanize(name),
		Toggleable: true,
		Separator:  " ",
	}}
}

func (b *ColumnBuilder) Label(label string) *ColumnBuilder {
	b.column.Label = label
	return b
}

func (b *ColumnBuilder) Sortable() *ColumnBuilder {
	b.column.Sortable = true
	return b
}

func (b *ColumnBuilder) Searchable() *ColumnBuilder {
	b.column.Searchable = true
	return b
}

func (b *ColumnBuilder) Hidden() *ColumnBuilder {
	b.column.Hidden = true
	return b
}

func (b *ColumnBuilder) Toggleable(toggleable bool) *ColumnBuilder {
	b.column.Toggleable = toggleable
	return b
}

func (b *ColumnBuilder) HeadClass(class string) *ColumnBuilder {
	b.column.HeadClass = class
	return b
}

func (b *ColumnBuilder) CellClass(class string) *ColumnBuilder {
	b.column.CellClass = class
	return b
}

func (b *ColumnBuilder) Align(align string) *ColumnBuilder {
	b.column.Align = align
	return b
}

func (b *ColumnBuilder) Wrap() *ColumnBuilder {
	b.column.Wrap = true
	return b
}

func (b *ColumnBuilder) TruncateLines(lines int) *ColumnBuilder {
	b.column.TruncateLines = lines
	return b
}

// Component names a custom cell component on the client, e.g. "badge".
func (b *ColumnBuilder) Component(name string) *ColumnBuilder {
	b.column.Component = name
	return b
}

// Separator sets the string used to join hasMany values.
func (b *ColumnBuilder) Separator(sep string) *ColumnBuilder {
	b.column.Separator = sep
	return b
}

func (b *ColumnBuilder) RenderUsing(fn RenderFunc) *ColumnBuilder {
	b.column.RenderUsing = fn
	return b
}

// BelongsTo binds the column to a single related record (relation may be a
// dot path like "department.manager") and displays its key attribute.
func (b *ColumnBuilder) BelongsTo(relation, key string) *ColumnBuilder {
	b.column.Relation = relation
	b.column.RelationKey = key
	b.column.RelationType = common.RelationBelongsTo
	return b
}

// HasMany binds the column to a related collection whose key attribute is
// joined into one cell.
func (b *ColumnBuilder) HasMany(relation, key string) *ColumnBuilder {
	b.column.Relation = relation
	b.column.RelationKey = key
	b.column.RelationType = common.RelationHasMany
	return b
}

// Build returns the configured column.
func (b *ColumnBuilder) Build() Column {
	return b.column
}

// IsRelation reports whether the value comes from a related record.
func (c Column) IsRelation() bool {
	return c.Relation != "" || len(common.SplitPath(c.Name)) > 1
}

// SortKey is the name a client sends to sort by this column.
func (c Column) SortKey() string {
	if c.Relation != "" && c.RelationKey != "" {
		return c.Relation + "." + c.RelationKey
	}
	return c.Name
}

// target splits the column into its relation path and the attribute read
// at the end of it. Plain columns have an empty path.
func (c Column) target() (path []string, attribute string) {
	if c.Relation != "" {
		return common.SplitPath(c.Relation), c.RelationKey
	}
	parts := common.SplitPath(c.Name)
	if len(parts) <= 1 {
		return nil, c.Name
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}
