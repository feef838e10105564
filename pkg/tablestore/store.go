package tablestore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
)

// Listener is called after every mutation of a store, outside its lock.
type Listener func(s *Store)

// FiltersPatch updates part of the filter echo. Nil fields are kept.
type FiltersPatch struct {
	Q      *string
	Sort   *string
	Dir    *tablespec.SortDirection
	Filter map[string]string
}

// Store is the client state of one table: the last payload plus selection,
// column visibility, filter editors and sort/search input. Every operation
// is total; unknown fields, ids and indexes are ignored.
type Store struct {
	mu sync.RWMutex

	table         Table
	selected      []string
	hiddenColumns map[string]bool
	activeFilters []ActiveFilter
	openPopovers  map[string]bool
	searchQuery   string
	sort          string
	dir           tablespec.SortDirection
	perPage       int

	listeners  map[int]Listener
	listenerID int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		table:         emptyTable(),
		hiddenColumns: map[string]bool{},
		openPopovers:  map[string]bool{},
		dir:           tablespec.SortAsc,
		listeners:     map[int]Listener{},
	}
}

// Subscribe registers fn and returns a function removing it again.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenerID++
	id := s.listenerID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// update runs fn under the write lock and then notifies the listeners in
// subscription order.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer logger.CatchPanic("tablestore.Listener")
			l(s)
		}()
	}
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// SetData replaces the payload and derives the UI state from it: hidden
// columns, active filters, search and sort. Selection and popovers are
// cleared.
func (s *Store) SetData(payload *tablespec.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode table payload: %w", err)
	}
	return s.SetJSON(raw)
}

// SetJSON is SetData for a payload document as received over the wire.
func (s *Store) SetJSON(data []byte) error {
	table, err := DecodeTable(data)
	if err != nil {
		return err
	}
	s.SetTable(table)
	return nil
}

// SetTable is SetData for an already decoded payload.
func (s *Store) SetTable(table Table) {
	s.update(func() {
		s.table = table
		s.initUIState()
	})
}

func (s *Store) initUIState() {
	s.hiddenColumns = make(map[string]bool, len(s.table.Columns))
	for _, c := range s.table.Columns {
		s.hiddenColumns[c.Name] = c.Hidden
	}

	s.activeFilters = nil
	fields := make([]string, 0, len(s.table.Filters.Filter))
	seen := map[string]bool{}
	for _, def := range s.table.Filters.Opt {
		if _, ok := s.table.Filters.Filter[def.Field]; ok && !seen[def.Field] {
			fields = append(fields, def.Field)
			seen[def.Field] = true
		}
	}
	extra := make([]string, 0)
	for field := range s.table.Filters.Filter {
		if !seen[field] {
			extra = append(extra, field)
		}
	}
	sort.Strings(extra)
	for _, field := range append(fields, extra...) {
		s.activeFilters = append(s.activeFilters, ParseActiveFilter(field, s.table.Filters.Filter[field], s.isMultiple(field)))
	}

	s.selected = nil
	s.openPopovers = map[string]bool{}
	s.searchQuery = s.table.Filters.Q
	s.sort = s.table.Filters.Sort
	s.dir = s.table.Filters.Dir
	if s.dir == "" {
		s.dir = tablespec.SortAsc
	}
	s.perPage = 0
}

func (s *Store) isMultiple(field string) bool {
	def, ok := s.table.filterDef(field)
	return ok && def.Type == tablespec.FilterSelect && def.Multiple
}

// ResetData empties the payload and leaves the UI state alone.
func (s *Store) ResetData() {
	s.update(func() { s.table = emptyTable() })
}

// Data returns the visible rows.
func (s *Store) Data() []Item {
	var out []Item
	s.read(func() { out = append([]Item(nil), s.table.Items.Data...) })
	return out
}

// Items returns the page metadata and rows.
func (s *Store) Items() Items {
	var out Items
	s.read(func() {
		out = s.table.Items
		out.Data = append([]Item(nil), s.table.Items.Data...)
	})
	return out
}

// Table returns a copy of the held payload.
func (s *Store) Table() Table {
	var out Table
	s.read(func() {
		out = s.table
		out.Items.Data = append([]Item(nil), s.table.Items.Data...)
	})
	return out
}

// IsEmpty reports whether no payload was loaded yet.
func (s *Store) IsEmpty() bool {
	var out bool
	s.read(func() { out = s.table.Prefix == "" && s.table.Name == "" })
	return out
}

func (s *Store) IsInitialized() bool {
	var out bool
	s.read(func() { out = s.table.Name != "" })
	return out
}

func (s *Store) TotalItems() int {
	var out int
	s.read(func() { out = s.table.Items.Total })
	return out
}

func (s *Store) CurrentPage() int {
	var out int
	s.read(func() { out = s.table.Items.CurrentPage })
	return out
}

// HasSimplePaginate reports whether the table pages without a total.
func (s *Store) HasSimplePaginate() bool {
	var out bool
	s.read(func() { out = s.hasSimplePaginate() })
	return out
}

func (s *Store) hasSimplePaginate() bool {
	return s.table.PaginationMethod == tablespec.PaginationSimple || s.table.PaginationMethod == tablespec.PaginationCursor
}

// SelectionPolicy is the payload's policy, or the one implied by the
// pagination method for payloads that carry none.
func (s *Store) SelectionPolicy() tablespec.SelectionPolicy {
	var out tablespec.SelectionPolicy
	s.read(func() { out = s.selectionPolicy() })
	return out
}

func (s *Store) selectionPolicy() tablespec.SelectionPolicy {
	if s.table.SelectionPolicy != "" {
		return s.table.SelectionPolicy
	}
	if s.hasSimplePaginate() || s.table.DisablePagination {
		return tablespec.SelectionPageLocal
	}
	return tablespec.SelectionLogicalTotal
}

// IsAllSelected is true when every visible row is selected (page local) or
// when the selection count reaches the total (logical total).
func (s *Store) IsAllSelected() bool {
	var out bool
	s.read(func() {
		if len(s.table.Items.Data) == 0 {
			return
		}
		if s.selectionPolicy() == tablespec.SelectionLogicalTotal {
			out = len(s.selected) == s.table.Items.Total
			return
		}
		for _, id := range s.visibleIDs() {
			if !s.isChecked(id) {
				return
			}
		}
		out = true
	})
	return out
}

func (s *Store) visibleIDs() []string {
	field := s.table.idField()
	ids := make([]string, 0, len(s.table.Items.Data))
	for _, item := range s.table.Items.Data {
		if id := ItemID(item, field); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) IsChecked(id string) bool {
	var out bool
	s.read(func() { out = s.isChecked(id) })
	return out
}

func (s *Store) isChecked(id string) bool {
	for _, sel := range s.selected {
		if sel == id {
			return true
		}
	}
	return false
}

// SelectedIDs returns the selection in selection order.
func (s *Store) SelectedIDs() []string {
	var out []string
	s.read(func() { out = append([]string{}, s.selected...) })
	return out
}

func (s *Store) HasSelection() bool {
	var out bool
	s.read(func() { out = len(s.selected) > 0 })
	return out
}

// ToggleSelectAll adds every visible row to the selection, or clears it.
func (s *Store) ToggleSelectAll(checked bool) {
	s.update(func() {
		if !checked {
			s.selected = nil
			return
		}
		merged := make([]string, 0, len(s.selected)+len(s.table.Items.Data))
		seen := map[string]bool{}
		for _, id := range append(s.visibleIDs(), s.selected...) {
			if !seen[id] {
				seen[id] = true
				merged = append(merged, id)
			}
		}
		s.selected = merged
	})
}

func (s *Store) ToggleSelectOne(id string) {
	s.update(func() {
		for i, sel := range s.selected {
			if sel == id {
				s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
				return
			}
		}
		s.selected = append(s.selected, id)
	})
}

func (s *Store) ClearSelection() {
	s.update(func() { s.selected = nil })
}

// UpdateItems replaces the page, keeping the rest of the payload.
func (s *Store) UpdateItems(items Items) {
	s.update(func() { s.table.Items = items })
}

func (s *Store) UpdateItemsData(data []Item) {
	s.update(func() { s.table.Items.Data = append([]Item(nil), data...) })
}

// UpdateSingleItem merges item into the row at index.
func (s *Store) UpdateSingleItem(index int, item Item) {
	s.update(func() {
		if index < 0 || index >= len(s.table.Items.Data) {
			return
		}
		merged := make(Item, len(s.table.Items.Data[index])+len(item))
		for k, v := range s.table.Items.Data[index] {
			merged[k] = v
		}
		for k, v := range item {
			merged[k] = v
		}
		s.table.Items.Data[index] = merged
	})
}

// AddItem prepends item and counts it in the total.
func (s *Store) AddItem(item Item) {
	s.update(func() {
		s.table.Items.Data = append([]Item{item}, s.table.Items.Data...)
		s.table.Items.Total++
	})
}

func (s *Store) RemoveItem(index int) {
	s.update(func() {
		if index < 0 || index >= len(s.table.Items.Data) {
			return
		}
		s.table.Items.Data = append(s.table.Items.Data[:index:index], s.table.Items.Data[index+1:]...)
		s.table.Items.Total--
	})
}

func (s *Store) UpdateFilters(patch FiltersPatch) {
	s.update(func() {
		if patch.Q != nil {
			s.table.Filters.Q = *patch.Q
		}
		if patch.Sort != nil {
			s.table.Filters.Sort = *patch.Sort
		}
		if patch.Dir != nil {
			s.table.Filters.Dir = *patch.Dir
		}
		if patch.Filter != nil {
			s.table.Filters.Filter = make(map[string]string, len(patch.Filter))
			for k, v := range patch.Filter {
				s.table.Filters.Filter[k] = v
			}
		}
	})
}

func (s *Store) UpdatePagination(page int) {
	s.update(func() { s.table.Items.CurrentPage = page })
}

// ToggleColumn flips the visibility of one column.
func (s *Store) ToggleColumn(name string) {
	s.update(func() { s.hiddenColumns[name] = !s.hiddenColumns[name] })
}

func (s *Store) ShowAllColumns() {
	s.update(func() {
		for k := range s.hiddenColumns {
			s.hiddenColumns[k] = false
		}
	})
}

func (s *Store) HideAllColumns() {
	s.update(func() {
		for k := range s.hiddenColumns {
			s.hiddenColumns[k] = true
		}
	})
}

// IsColumnHidden reports the visibility toggle of a column.
func (s *Store) IsColumnHidden(name string) bool {
	var out bool
	s.read(func() { out = s.hiddenColumns[name] })
	return out
}

// VisibleColumns is the payload's column list without the hidden ones.
func (s *Store) VisibleColumns() []tablespec.Column {
	var out []tablespec.Column
	s.read(func() {
		out = make([]tablespec.Column, 0, len(s.table.Columns))
		for _, c := range s.table.Columns {
			if !s.hiddenColumns[c.Name] {
				out = append(out, c)
			}
		}
	})
	return out
}

// ActiveFilters returns copies of the filters being edited or applied.
func (s *Store) ActiveFilters() []ActiveFilter {
	var out []ActiveFilter
	s.read(func() {
		out = make([]ActiveFilter, 0, len(s.activeFilters))
		for _, f := range s.activeFilters {
			out = append(out, f.clone())
		}
	})
	return out
}

// ActiveFilter finds the active filter of field.
func (s *Store) ActiveFilter(field string) (ActiveFilter, bool) {
	var (
		out ActiveFilter
		ok  bool
	)
	s.read(func() {
		if i := s.filterIndex(field); i >= 0 {
			out, ok = s.activeFilters[i].clone(), true
		}
	})
	return out, ok
}

func (s *Store) HasFilters() bool {
	var out bool
	s.read(func() { out = len(s.activeFilters) > 0 })
	return out
}

func (s *Store) filterIndex(field string) int {
	for i, f := range s.activeFilters {
		if f.Field == field {
			return i
		}
	}
	return -1
}

// AddFilter starts editing field with its first operator and an empty
// value, then opens its popover and closes every other one. A field that is
// already active only gets its popover opened; an unknown field is ignored.
func (s *Store) AddFilter(field string) {
	s.update(func() {
		if s.filterIndex(field) < 0 {
			def, ok := s.table.filterDef(field)
			if !ok {
				return
			}
			f := ActiveFilter{Field: field, Multiple: def.Type == tablespec.FilterSelect && def.Multiple}
			if len(def.Operators) > 0 {
				f.Operator = def.Operators[0].Value
			}
			if f.Multiple {
				f.Values = []string{}
			}
			s.activeFilters = append(s.activeFilters, f)
		}
		s.openPopover(field)
	})
}

// RemoveFilter drops the active filter of field and its popover state.
func (s *Store) RemoveFilter(field string) {
	s.update(func() {
		if i := s.filterIndex(field); i >= 0 {
			s.activeFilters = append(s.activeFilters[:i:i], s.activeFilters[i+1:]...)
		}
		delete(s.openPopovers, field)
	})
}

func (s *Store) ClearAllFilters() {
	s.update(func() {
		s.activeFilters = nil
		s.openPopovers = map[string]bool{}
	})
}

// UpdateFilter patches the active filter of field with fn. The field name
// cannot be changed.
func (s *Store) UpdateFilter(field string, fn func(f *ActiveFilter)) {
	s.update(func() {
		i := s.filterIndex(field)
		if i < 0 {
			return
		}
		f := s.activeFilters[i].clone()
		fn(&f)
		f.Field = field
		s.activeFilters[i] = f
	})
}

// HandleFilterChange sets operator and value of an active filter. Multi
// value filters take every value, the others their comma joined form.
func (s *Store) HandleFilterChange(field string, op tablespec.Operator, values ...string) {
	s.UpdateFilter(field, func(f *ActiveFilter) {
		f.Operator = op
		if f.Multiple {
			f.Values = append([]string{}, values...)
			return
		}
		f.Value = ""
		for i, v := range values {
			if i > 0 {
				f.Value += ","
			}
			f.Value += v
		}
	})
}

// UpdateFilterOptions replaces the choices of a filter descriptor, e.g.
// after a server side option search.
func (s *Store) UpdateFilterOptions(field string, options []tablespec.Option) {
	s.update(func() {
		if def, ok := s.table.filterDef(field); ok {
			def.Options = append([]tablespec.Option(nil), options...)
		}
	})
}

// DisplayFilter is the chip text of f: "None", up to two option labels or
// "<n> selected" for multi value filters, the option label for selects and
// the raw value otherwise.
func (s *Store) DisplayFilter(f ActiveFilter) string {
	var out string
	s.read(func() {
		def, _ := s.table.filterDef(f.Field)
		out = displayFilter(f, def)
	})
	return out
}

// OpenPopover opens the popover of field and closes all others.
func (s *Store) OpenPopover(field string) {
	s.update(func() { s.openPopover(field) })
}

func (s *Store) openPopover(field string) {
	for k := range s.openPopovers {
		s.openPopovers[k] = false
	}
	s.openPopovers[field] = true
}

func (s *Store) ClosePopover(field string) {
	s.update(func() {
		if _, ok := s.openPopovers[field]; ok {
			s.openPopovers[field] = false
		}
	})
}

func (s *Store) CloseAllPopovers() {
	s.update(func() { s.openPopovers = map[string]bool{} })
}

func (s *Store) IsPopoverOpen(field string) bool {
	var out bool
	s.read(func() { out = s.openPopovers[field] })
	return out
}

// OpenPopovers lists the fields whose popover is open.
func (s *Store) OpenPopovers() []string {
	var out []string
	s.read(func() {
		for k, open := range s.openPopovers {
			if open {
				out = append(out, k)
			}
		}
	})
	sort.Strings(out)
	return out
}

// HandleSort flips the direction when column is already the sort key and
// otherwise sorts by column ascending.
func (s *Store) HandleSort(column string) {
	s.update(func() {
		if s.sort == column {
			if s.dir == tablespec.SortAsc {
				s.dir = tablespec.SortDesc
			} else {
				s.dir = tablespec.SortAsc
			}
			return
		}
		s.sort = column
		s.dir = tablespec.SortAsc
	})
}

// Sort returns the sort key and direction the next request uses.
func (s *Store) Sort() (string, tablespec.SortDirection) {
	var (
		key string
		dir tablespec.SortDirection
	)
	s.read(func() { key, dir = s.sort, s.dir })
	return key, dir
}

func (s *Store) SetSearchQuery(q string) {
	s.update(func() { s.searchQuery = q })
}

func (s *Store) SearchQuery() string {
	var out string
	s.read(func() { out = s.searchQuery })
	return out
}

// SetPerPage picks the page size of the next request; 0 leaves it to the
// server.
func (s *Store) SetPerPage(n int) {
	s.update(func() {
		if n < 0 {
			n = 0
		}
		s.perPage = n
	})
}

// QueryParams builds the prefixed query string of the next request from
// search, sort, page size and the non-empty active filters.
func (s *Store) QueryParams() url.Values {
	values := url.Values{}
	s.read(func() {
		prefix := s.table.Prefix
		if s.searchQuery != "" {
			values.Set(prefix+"q", s.searchQuery)
		}
		if s.sort != "" {
			values.Set(prefix+"sort", s.sort)
			values.Set(prefix+"dir", string(s.dir))
		}
		if s.perPage > 0 {
			values.Set(prefix+"perPage", strconv.Itoa(s.perPage))
		}
		for _, f := range s.activeFilters {
			if f.IsEmpty() {
				continue
			}
			values.Set(prefix+"filter["+f.Field+"]", f.Encode())
		}
	})
	return values
}
