package common

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Warky-Devs/TableSpec/pkg/reflection"
)

// columnSets caches the column set of every model type seen so far.
var columnSets = xsync.NewMap[reflect.Type, *ColumnSet]()

// ColumnSet is the case-insensitive set of column names a model maps to.
type ColumnSet struct {
	names map[string]struct{}
}

// ModelColumns returns the column set of model. Values that are not structs,
// such as a bare table name, give an empty set.
func ModelColumns(model interface{}) *ColumnSet {
	typ := reflect.TypeOf(model)
	if typ == nil {
		return &ColumnSet{}
	}
	set, _ := columnSets.LoadOrCompute(typ, func() (*ColumnSet, bool) {
		set := &ColumnSet{names: make(map[string]struct{})}
		for _, name := range reflection.GetModelColumns(model) {
			set.names[strings.ToLower(name)] = struct{}{}
		}
		return set, false
	})
	return set
}

// Len is the number of distinct columns.
func (s *ColumnSet) Len() int {
	return len(s.names)
}

// Has reports whether column belongs to the set. The empty name always does.
func (s *ColumnSet) Has(column string) bool {
	if column == "" {
		return true
	}
	_, ok := s.names[strings.ToLower(column)]
	return ok
}

// Check returns an error naming column when it is not in the set.
func (s *ColumnSet) Check(column string) error {
	if !s.Has(column) {
		return fmt.Errorf("invalid column '%s': column does not exist in model", column)
	}
	return nil
}

// Unknown lists the columns that are not in the set, in input order.
func (s *ColumnSet) Unknown(columns ...string) []string {
	var unknown []string
	for _, c := range columns {
		if !s.Has(c) {
			unknown = append(unknown, c)
		}
	}
	return unknown
}
