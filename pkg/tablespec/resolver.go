package tablespec

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/reflection"
)

// Query is the inbound request as the resolver sees it.
type Query struct {
	// Path is the URL path page links are built on.
	Path   string
	Params url.Values
}

// QueryFromRequest takes path and query string from r.
func QueryFromRequest(r *http.Request) Query {
	return Query{Path: r.URL.Path, Params: r.URL.Query()}
}

// resolution is the per-request state of one Resolve call.
type resolution struct {
	ctx       context.Context
	db        common.Database
	def       *Definition
	query     Query
	alias     string
	relations *relationResolver
	filters   map[string]string
}

func newResolution(ctx context.Context, db common.Database, def *Definition, query Query) *resolution {
	if query.Params == nil {
		query.Params = url.Values{}
	}
	r := &resolution{
		ctx:       ctx,
		db:        db,
		def:       def,
		query:     query,
		alias:     def.table,
		relations: newRelationResolver(def, db),
	}
	if aliaser, ok := db.(common.TableAliaser); ok && def.modelType != nil {
		if a := aliaser.TableAlias(def.model); a != "" {
			r.alias = a
		}
	}
	r.filters = parseFilterParams(query.Params, def.FilterParam())
	return r
}

// parseFilterParams collects <filterParam>[field]=value pairs.
func parseFilterParams(params url.Values, filterParam string) map[string]string {
	out := map[string]string{}
	open := filterParam + "["
	for key, values := range params {
		if !strings.HasPrefix(key, open) || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}
		field := key[len(open) : len(key)-1]
		if field == "" {
			continue
		}
		out[field] = values[0]
	}
	return out
}

// Resolve runs the table query for one request and returns the payload.
func Resolve(ctx context.Context, db common.Database, def *Definition, query Query) (*Payload, error) {
	r := newResolution(ctx, db, def, query)
	items, err := r.items()
	if err != nil {
		return nil, err
	}
	return r.payload(items), nil
}

// ResolveRows returns every matching row, filtered and sorted, without
// pagination.
func ResolveRows(ctx context.Context, db common.Database, def *Definition, query Query) ([]Row, error) {
	r := newResolution(ctx, db, def, query)
	q, dest := r.baseQuery()
	q = applyOrder(q, r.orderKeys(), r.alias, false)
	rows, err := r.fetch(q, dest)
	if err != nil {
		return nil, err
	}
	return def.renderRows(rows), nil
}

// baseQuery builds the filtered query every pagination method starts from.
func (r *resolution) baseQuery() (common.SelectQuery, any) {
	dest := r.def.newRows()
	q := r.db.NewSelect()
	if r.def.modelType != nil {
		q = q.Model(dest)
	} else {
		q = q.Table(r.def.table)
	}

	if r.def.queryUsing != nil {
		q = r.def.queryUsing(QueryContext{Ctx: r.ctx, Query: q, Definition: r.def, Params: r.query.Params})
	}

	q = r.applyFilters(q)
	q = r.applySearch(q)

	logger.Debug("Table %s: sort=%q dir=%q search=%q filters=%v", r.def.name,
		r.query.Params.Get(r.def.SortParam()), r.query.Params.Get(r.def.DirParam()),
		r.query.Params.Get(r.def.SearchParam()), r.filters)
	return q, dest
}

// applyFilters adds one predicate per active filter in declaration order.
func (r *resolution) applyFilters(q common.SelectQuery) common.SelectQuery {
	known := make(map[string]bool, len(r.def.filters))
	for _, f := range r.def.filters {
		known[f.Field] = true
		raw, ok := r.filters[f.Field]
		if !ok {
			continue
		}
		q = r.applyFilter(q, f, raw)
	}

	unknown := make([]string, 0)
	for field := range r.filters {
		if !known[field] {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		logger.Warn("Table %s: ignoring filters on unregistered fields %v", r.def.name, unknown)
	}
	return q
}

func (r *resolution) applyFilter(q common.SelectQuery, f Filter, raw string) common.SelectQuery {
	op, value := ParseFilterValue(raw)
	path, attribute := f.target()

	var chain *relationChain
	column := r.alias + "." + attribute
	if len(path) > 0 {
		var err error
		chain, err = r.relations.chain(path)
		if err != nil {
			logger.Warn("Table %s: ignoring filter on '%s': %v", r.def.name, f.Field, err)
			return q
		}
		column = chain.target(baseAliasPrefix) + "." + attribute
	}

	var pred predicate
	switch {
	case !op.Valid():
		// unknown token: literal equality on the raw value
		pred = predicate{sql: column + " = ?", args: []any{raw}}
	case f.QueryUsing != nil:
		ctxColumn := column
		if chain != nil {
			ctxColumn = ""
		}
		return f.QueryUsing(FilterContext{
			Ctx:      r.ctx,
			Query:    q,
			Filter:   f,
			Column:   ctxColumn,
			Operator: op,
			Value:    value,
			Raw:      raw,
		})
	default:
		var ok bool
		pred, ok = buildPredicate(column, op, value, f)
		if !ok {
			logger.Warn("Table %s: filter '%s' has no value for operator '%s', ignored", r.def.name, f.Field, op)
			return q
		}
	}

	if chain != nil {
		return q.Where(chain.exists(r.alias, baseAliasPrefix, pred.sql), pred.args...)
	}
	return q.Where(pred.sql, pred.args...)
}

// applySearch ORs a substring match over every searchable column.
func (r *resolution) applySearch(q common.SelectQuery) common.SelectQuery {
	term := strings.TrimSpace(r.query.Params.Get(r.def.SearchParam()))
	if term == "" {
		return q
	}

	preds := make([]predicate, 0)
	for _, c := range r.def.columns {
		if !c.Searchable {
			continue
		}
		path, attribute := c.target()
		if len(path) == 0 {
			preds = append(preds, searchPredicate(r.alias+"."+attribute, term))
			continue
		}
		chain, err := r.relations.chain(path)
		if err != nil {
			logger.Warn("Table %s: cannot search '%s': %v", r.def.name, c.Name, err)
			continue
		}
		p := searchPredicate(chain.target(baseAliasPrefix)+"."+attribute, term)
		p.sql = chain.exists(r.alias, baseAliasPrefix, p.sql)
		preds = append(preds, p)
	}
	if len(preds) == 0 {
		return q
	}

	return q.WhereGroup(func(g common.SelectQuery) common.SelectQuery {
		for i, p := range preds {
			if i == 0 {
				g = g.Where(p.sql, p.args...)
			} else {
				g = g.WhereOr(p.sql, p.args...)
			}
		}
		return g
	})
}

// preload attaches every relation rendered columns read from.
func (r *resolution) preload(q common.SelectQuery) common.SelectQuery {
	if r.def.modelType == nil {
		return q
	}
	seen := map[string]bool{}
	paths := make([]string, 0)
	for _, c := range r.def.columns {
		path, _ := c.target()
		if len(path) == 0 {
			continue
		}
		field, ok := r.relations.preloadPath(path)
		if !ok {
			logger.Warn("Table %s: no relation field for column '%s'", r.def.name, c.Name)
			continue
		}
		if !seen[field] {
			seen[field] = true
			paths = append(paths, field)
		}
	}
	for _, p := range paths {
		q = q.Preload(p)
	}
	return q
}

// fetch preloads, scans and returns the rows as a slice of models.
func (r *resolution) fetch(q common.SelectQuery, dest any) ([]any, error) {
	q = r.preload(q)
	if err := q.Scan(r.ctx, dest); err != nil {
		return nil, fmt.Errorf("fetch %s rows: %w", r.def.name, err)
	}
	v := reflect.ValueOf(dest).Elem()
	rows := make([]any, v.Len())
	for i := range rows {
		rows[i] = v.Index(i).Interface()
	}
	return rows, nil
}

// perPage reads <prefix>perPage, falling back to the table default. Requests
// are capped at the largest page size the table offers.
func (r *resolution) perPage() int {
	n, err := strconv.Atoi(r.query.Params.Get(r.def.PerPageParam()))
	if err != nil || n <= 0 {
		return r.def.perPage
	}
	limit := r.def.perPage
	for _, option := range r.def.perPageOptions {
		if option > limit {
			limit = option
		}
	}
	if n > limit {
		return limit
	}
	return n
}

// clampPage keeps the offset of page and the look-ahead row within int.
func clampPage(page, perPage int) int {
	limit := math.MaxInt/perPage - 1
	if limit < 1 {
		limit = 1
	}
	if page > limit {
		return limit
	}
	return page
}

func (r *resolution) pager() pager {
	return pager{path: r.query.Path, params: r.query.Params, pageParam: r.def.PageParam()}
}

// items computes the "items" member of the payload.
func (r *resolution) items() (any, error) {
	q, dest := r.baseQuery()
	keys := r.orderKeys()

	if r.def.disablePagination {
		rows, err := r.fetch(applyOrder(q, keys, r.alias, false), dest)
		if err != nil {
			return nil, err
		}
		return r.def.renderRows(rows), nil
	}

	switch r.def.paginationMethod {
	case PaginationOffset:
		return r.lengthAwarePage(q, dest, keys)
	case PaginationCursor:
		return r.cursorPage(q, dest, keys)
	default:
		return r.simplePage(q, dest, keys)
	}
}

func (r *resolution) lengthAwarePage(q common.SelectQuery, dest any, keys []orderKey) (*LengthAwarePage, error) {
	total, err := q.Clone().Count(r.ctx)
	if err != nil {
		return nil, fmt.Errorf("count %s rows: %w", r.def.name, err)
	}
	perPage := r.perPage()
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	page := parsePage(r.query.Params.Get(r.def.PageParam()))
	if page > lastPage {
		page = lastPage
	}
	offset := (page - 1) * perPage

	rows, err := r.fetch(applyOrder(q, keys, r.alias, false).Limit(perPage).Offset(offset), dest)
	if err != nil {
		return nil, err
	}

	p := r.pager()
	from, to := rangeBounds(offset, len(rows))
	out := &LengthAwarePage{
		CurrentPage:  page,
		Data:         r.def.renderRows(rows),
		FirstPageURL: p.pageURL(1),
		From:         from,
		LastPage:     lastPage,
		LastPageURL:  p.pageURL(lastPage),
		Links:        p.pageLinks(page, lastPage),
		Path:         r.query.Path,
		PerPage:      perPage,
		To:           to,
		Total:        total,
	}
	if page > 1 {
		out.PrevPageURL = p.pageURLPtr(page - 1)
	}
	if page < lastPage {
		out.NextPageURL = p.pageURLPtr(page + 1)
	}
	return out, nil
}

func (r *resolution) simplePage(q common.SelectQuery, dest any, keys []orderKey) (*SimplePage, error) {
	perPage := r.perPage()
	page := clampPage(parsePage(r.query.Params.Get(r.def.PageParam())), perPage)
	offset := (page - 1) * perPage

	rows, err := r.fetch(applyOrder(q, keys, r.alias, false).Limit(perPage+1).Offset(offset), dest)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}

	p := r.pager()
	from, to := rangeBounds(offset, len(rows))
	out := &SimplePage{
		CurrentPage:  page,
		Data:         r.def.renderRows(rows),
		FirstPageURL: p.pageURL(1),
		From:         from,
		Path:         r.query.Path,
		PerPage:      perPage,
		To:           to,
	}
	if page > 1 {
		out.PrevPageURL = p.pageURLPtr(page - 1)
	}
	if hasMore {
		out.NextPageURL = p.pageURLPtr(page + 1)
	}
	return out, nil
}

func (r *resolution) cursorPage(q common.SelectQuery, dest any, keys []orderKey) (*CursorPage, error) {
	perPage := r.perPage()

	var tok *cursorToken
	if raw := r.query.Params.Get(r.def.PageParam()); raw != "" {
		decoded, err := decodeCursor(raw)
		if err != nil {
			logger.Warn("Table %s: %v, starting from the first page", r.def.name, err)
		} else {
			tok = &decoded
		}
	}
	backward := tok != nil && tok.Direction == CursorPrev
	if tok != nil {
		q = q.Where(r.keysetPredicate(keys, backward), tok.Key)
	}

	rows, err := r.fetch(applyOrder(q, keys, r.alias, backward).Limit(perPage+1), dest)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	if backward {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	out := &CursorPage{
		Data:    r.def.renderRows(rows),
		Path:    r.query.Path,
		PerPage: perPage,
	}
	if len(rows) == 0 {
		return out, nil
	}

	hasNext := hasMore
	hasPrev := tok != nil
	if backward {
		hasNext, hasPrev = true, hasMore
	}
	p := r.pager()
	if hasNext {
		c := encodeCursor(r.rowKey(rows[len(rows)-1]), CursorNext)
		u := p.url(c)
		out.NextCursor, out.NextPageURL = &c, &u
	}
	if hasPrev {
		c := encodeCursor(r.rowKey(rows[0]), CursorPrev)
		u := p.url(c)
		out.PrevCursor, out.PrevPageURL = &c, &u
	}
	return out, nil
}

// rowKey reads the primary key of a scanned row.
func (r *resolution) rowKey(row any) any {
	if m, ok := row.(map[string]any); ok {
		return m[r.def.primaryKey]
	}
	if v := reflection.GetPrimaryKeyValue(row); v != nil {
		return v
	}
	return reflection.Resolve(row, []string{r.def.primaryKey}).Value
}
