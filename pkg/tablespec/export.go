package tablespec

import (
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
)

// ExportURLParam carries the table URL whose query string is exported.
const ExportURLParam = "url"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ExportQuery merges the query string of the url parameter into the query,
// so an export reproduces the filters and sort of the table view.
func ExportQuery(query Query) Query {
	path := query.Path
	params := url.Values{}
	for k, v := range query.Params {
		params[k] = append([]string(nil), v...)
	}
	if raw := params.Get(ExportURLParam); raw != "" {
		if u, err := url.Parse(raw); err == nil {
			for k, v := range u.Query() {
				params[k] = v
			}
			if path == "" {
				path = u.Path
			}
		} else {
			logger.Warn("Export: ignoring malformed url parameter: %v", err)
		}
	}
	params.Del(ExportURLParam)
	return Query{Path: path, Params: params}
}

// ExportFileName is the attachment name of a table export.
func ExportFileName(def *Definition) string {
	name := def.baseRoute
	if name == "" {
		name = def.name
	}
	return name + ".csv"
}

// Export writes every matching row as CSV, or runs the table's ExportUsing
// routine when one is set.
func Export(ctx context.Context, db common.Database, def *Definition, query Query, w io.Writer) error {
	query = ExportQuery(query)
	if def.exportUsing != nil {
		return def.exportUsing(ExportContext{Ctx: ctx, DB: db, Definition: def, Query: query, Writer: w})
	}

	rows, err := ResolveRows(ctx, db, def, query)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(def.columns))
	for i, c := range def.columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	record := make([]string, len(def.columns))
	for _, row := range rows {
		for i, c := range def.columns {
			record[i] = exportCell(row[c.Name])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// exportCell flattens markup cells to plain text.
func exportCell(v any) string {
	if h, ok := v.(HTML); ok {
		text := strings.ReplaceAll(h.HTML, wrapBreak, " ")
		return html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
	}
	return displayString(v)
}
