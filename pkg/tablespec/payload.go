package tablespec

// FilterState echoes the active search, sort and filters back to the client.
type FilterState struct {
	Q      string            `json:"q"`
	Sort   string            `json:"sort"`
	Dir    SortDirection     `json:"dir"`
	Opt    []Filter          `json:"opt"`
	Filter map[string]string `json:"filter"`
}

// Payload is the JSON document the client table store consumes.
type Payload struct {
	// Items is a *LengthAwarePage, *SimplePage, *CursorPage, or []Row when
	// pagination is disabled.
	Items             any              `json:"items"`
	Filters           FilterState      `json:"filters"`
	PerPage           int              `json:"perPage"`
	PerPageOptions    []int            `json:"perPageOptions"`
	Columns           []Column         `json:"columns"`
	Actions           []Action         `json:"actions"`
	Prefix            string           `json:"prefix"`
	Name              string           `json:"name"`
	Edit              bool             `json:"edit"`
	View              bool             `json:"view"`
	Delete            bool             `json:"delete"`
	ForceDelete       bool             `json:"forceDelete"`
	Restore           bool             `json:"restore"`
	DisablePagination bool             `json:"disablePagination"`
	PaginationMethod  PaginationMethod `json:"paginationMethod"`
	BaseRoute         string           `json:"baseRoute"`
	TableRoute        string           `json:"tableRoute"`
	ActionRoute       string           `json:"actionRoute"`
	Title             string           `json:"title"`
	SelectionPolicy   SelectionPolicy  `json:"selectionPolicy"`
	IDField           string           `json:"idField"`
}

// Rows returns the rendered rows whatever the page shape.
func (p *Payload) Rows() []Row {
	switch items := p.Items.(type) {
	case []Row:
		return items
	case *LengthAwarePage:
		return items.Data
	case *SimplePage:
		return items.Data
	case *CursorPage:
		return items.Data
	}
	return nil
}

func (r *resolution) payload(items any) *Payload {
	def := r.def
	params := r.query.Params

	sort, dir := r.effectiveSort()
	state := FilterState{
		Q:    params.Get(def.SearchParam()),
		Sort: sort,
		Dir:  dir,
		Opt:  def.Filters(),
	}
	if len(r.filters) > 0 {
		state.Filter = r.filters
	}

	perPage := r.perPage()
	options := def.PerPageOptions()
	if def.disablePagination {
		perPage = 0
		options = []int{}
	}

	return &Payload{
		Items:             items,
		Filters:           state,
		PerPage:           perPage,
		PerPageOptions:    options,
		Columns:           def.Columns(),
		Actions:           def.Actions(),
		Prefix:            def.prefix,
		Name:              def.name,
		Edit:              def.canEdit,
		View:              def.canView,
		Delete:            def.canDelete,
		ForceDelete:       def.canForceDelete,
		Restore:           def.canRestore,
		DisablePagination: def.disablePagination,
		PaginationMethod:  def.paginationMethod,
		BaseRoute:         def.baseRoute,
		TableRoute:        def.TableRoute(),
		ActionRoute:       def.ActionRoute(),
		Title:             def.title,
		SelectionPolicy:   def.selectionPolicy,
		IDField:           def.idField,
	}
}
