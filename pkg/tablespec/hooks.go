package tablespec

import (
	"context"
	"io"
	"net/url"

	"github.com/Warky-Devs/TableSpec/pkg/common"
)

// QueryContext is handed to a table level query hook before filters, search
// and sorting are applied.
type QueryContext struct {
	Ctx        context.Context
	Query      common.SelectQuery
	Definition *Definition
	Params     url.Values
}

// QueryFunc customizes the base query and returns the query to continue with.
type QueryFunc func(QueryContext) common.SelectQuery

// FilterContext is handed to a filter's own predicate hook.
type FilterContext struct {
	Ctx    context.Context
	Query  common.SelectQuery
	Filter Filter
	// Column is the SQL expression of the filtered attribute on the base
	// table, empty for relation fields.
	Column   string
	Operator Operator
	Value    string
	Raw      string
}

// FilterFunc replaces the built-in predicate of a filter.
type FilterFunc func(FilterContext) common.SelectQuery

// RenderContext carries everything a cell renderer may look at.
type RenderContext struct {
	// Value is the raw value at the column's path, []any for plural paths.
	Value      any
	Row        any
	Column     Column
	Definition *Definition
}

// RenderFunc turns a raw cell value into its display value. Return HTML to
// mark pre-escaped markup.
type RenderFunc func(RenderContext) any

// ExportContext is handed to a custom export routine.
type ExportContext struct {
	Ctx        context.Context
	DB         common.Database
	Definition *Definition
	Query      Query
	Writer     io.Writer
}

// ExportFunc replaces the built-in CSV export.
type ExportFunc func(ExportContext) error

// ActionContext is handed to an action handler.
type ActionContext struct {
	Ctx        context.Context
	DB         common.Database
	Definition *Definition
	Action     Action
	IDs        []string
	Query      Query
}

// ActionFunc runs a table action and returns data for the response envelope.
type ActionFunc func(ActionContext) (any, error)
