package tablestore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
)

// Item is one row as the client receives it.
type Item map[string]any

// Items is the page part of a payload. Length aware, simple and cursor pages
// all decode into it; a bare row array (pagination disabled) fills Data only.
type Items struct {
	Data         []Item           `json:"data"`
	CurrentPage  int              `json:"current_page"`
	From         *int             `json:"from"`
	To           *int             `json:"to"`
	LastPage     int              `json:"last_page"`
	Links        []tablespec.Link `json:"links"`
	Path         string           `json:"path"`
	PerPage      int              `json:"per_page"`
	Total        int              `json:"total"`
	FirstPageURL string           `json:"first_page_url,omitempty"`
	LastPageURL  string           `json:"last_page_url,omitempty"`
	NextPageURL  *string          `json:"next_page_url"`
	PrevPageURL  *string          `json:"prev_page_url"`
	NextCursor   *string          `json:"next_cursor,omitempty"`
	PrevCursor   *string          `json:"prev_cursor,omitempty"`

	bare bool
}

type itemsFields Items

func (i *Items) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []Item
		if err := decodeNumbers(trimmed, &rows); err != nil {
			return fmt.Errorf("decode rows: %w", err)
		}
		*i = Items{Data: rows, CurrentPage: 1, LastPage: 1, Total: len(rows), bare: true}
		return nil
	}
	var fields itemsFields
	if err := decodeNumbers(trimmed, &fields); err != nil {
		return err
	}
	*i = Items(fields)
	return nil
}

// MarshalJSON writes a bare array back when the items arrived as one.
func (i Items) MarshalJSON() ([]byte, error) {
	if i.bare {
		if i.Data == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(i.Data)
	}
	return json.Marshal(itemsFields(i))
}

// Filters mirrors the filter echo of the payload.
type Filters struct {
	Q      string                  `json:"q"`
	Sort   string                  `json:"sort"`
	Dir    tablespec.SortDirection `json:"dir"`
	Opt    []tablespec.Filter      `json:"opt"`
	Filter map[string]string       `json:"filter"`
}

// Table is the client copy of a resolved table payload.
type Table struct {
	Items             Items                      `json:"items"`
	Filters           Filters                    `json:"filters"`
	PerPage           int                        `json:"perPage"`
	PerPageOptions    []int                      `json:"perPageOptions"`
	Columns           []tablespec.Column         `json:"columns"`
	Actions           []tablespec.Action         `json:"actions"`
	Prefix            string                     `json:"prefix"`
	Name              string                     `json:"name"`
	Title             string                     `json:"title"`
	Edit              bool                       `json:"edit"`
	View              bool                       `json:"view"`
	Delete            bool                       `json:"delete"`
	ForceDelete       bool                       `json:"forceDelete"`
	Restore           bool                       `json:"restore"`
	DisablePagination bool                       `json:"disablePagination"`
	PaginationMethod  tablespec.PaginationMethod `json:"paginationMethod"`
	BaseRoute         string                     `json:"baseRoute"`
	TableRoute        string                     `json:"tableRoute"`
	ActionRoute       string                     `json:"actionRoute"`
	SelectionPolicy   tablespec.SelectionPolicy  `json:"selectionPolicy"`
	IDField           string                     `json:"idField"`
}

func emptyTable() Table {
	return Table{
		Items:            Items{CurrentPage: 1, LastPage: 1, PerPage: tablespec.DefaultPerPage, Data: []Item{}},
		Filters:          Filters{Dir: tablespec.SortAsc},
		PaginationMethod: tablespec.PaginationSimple,
	}
}

// DecodeTable parses a payload document. Numbers are kept as json.Number so
// row ids keep their exact text.
func DecodeTable(data []byte) (Table, error) {
	t := emptyTable()
	if err := decodeNumbers(data, &t); err != nil {
		return Table{}, fmt.Errorf("decode table payload: %w", err)
	}
	return t, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// idField is the row key selection is tracked by.
func (t *Table) idField() string {
	if t.IDField != "" {
		return t.IDField
	}
	return "id"
}

// filterDef finds the filter descriptor of field.
func (t *Table) filterDef(field string) (*tablespec.Filter, bool) {
	for i := range t.Filters.Opt {
		if t.Filters.Opt[i].Field == field {
			return &t.Filters.Opt[i], true
		}
	}
	return nil, false
}

// ItemID is the string form of an item's id, "" when it has none.
func ItemID(item Item, idField string) string {
	v, ok := item[idField]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
