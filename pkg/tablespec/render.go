package tablespec

import (
	"html"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/reflection"
)

// HTML marks a cell value as pre-escaped markup. It serializes as
// {"__html": "..."}, which the client renders without escaping.
type HTML struct {
	HTML string `json:"__html"`
}

// renderRows maps every scanned row through the column rules.
func (d *Definition) renderRows(rows []any) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, d.renderRow(row))
	}
	return out
}

// renderRow builds the flat display row. The source row is only read.
func (d *Definition) renderRow(row any) Row {
	out := make(Row, len(d.columns)+1)
	for _, c := range d.columns {
		out[c.Name] = d.renderCell(c, row)
	}
	if _, ok := out[d.idField]; !ok {
		if res := reflection.Resolve(row, []string{d.idField}); res.Found {
			out[d.idField] = res.Value
		} else if v := reflection.GetPrimaryKeyValue(row); v != nil {
			out[d.idField] = v
		}
	}
	return out
}

func (d *Definition) renderCell(c Column, row any) any {
	if c.RenderUsing != nil {
		return c.RenderUsing(RenderContext{
			Value:      reflection.Resolve(row, common.SplitPath(c.Name)).Value,
			Row:        row,
			Column:     c,
			Definition: d,
		})
	}

	switch c.RelationType {
	case common.RelationBelongsTo:
		return singleValue(reflection.Resolve(row, relationAttributePath(c)))
	case common.RelationHasMany:
		return aggregateValue(reflection.Resolve(row, relationAttributePath(c)), c.Separator)
	}

	path := common.SplitPath(c.Name)
	res := reflection.Resolve(row, path)
	if len(path) > 1 {
		if res.Plural {
			return aggregateValue(res, c.Separator)
		}
		return singleValue(res)
	}
	return res.Value
}

func relationAttributePath(c Column) []string {
	return append(common.SplitPath(c.Relation), c.RelationKey)
}

// singleValue is the display string of one related value, truncated.
func singleValue(res reflection.Resolved) string {
	if res.Plural {
		return limitText(joinValues(res.Value, " "), displayLimit)
	}
	return limitText(displayString(res.Value), displayLimit)
}

// aggregateValue joins a related collection, truncates it and wraps it for
// display as markup.
func aggregateValue(res reflection.Resolved, sep string) HTML {
	var text string
	if res.Plural {
		text = joinValues(res.Value, sep)
	} else {
		text = displayString(res.Value)
	}
	text = limitText(text, displayLimit)
	return HTML{HTML: "<span>" + wordWrap(html.EscapeString(text), wrapWidth, wrapBreak) + "</span>"}
}

func joinValues(v any, sep string) string {
	values, _ := v.([]any)
	parts := make([]string, 0, len(values))
	for _, item := range values {
		if s := displayString(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
