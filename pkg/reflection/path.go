package reflection

import (
	"reflect"
	"strings"
	"sync"
)

// Resolved is the outcome of walking a dot path through a row.
type Resolved struct {
	// Value is the single value found, or []any when Plural is set.
	Value any
	// Plural is set once the walk crossed a slice.
	Plural bool
	// Found is false when a segment names no field or key.
	Found bool
}

// Resolve walks path through row. Rows may be structs, pointers to structs or
// string keyed maps; slices met on the way fan out and make the result plural.
// A nil pointer on the way yields a nil Value for single paths and is skipped
// for plural ones.
func Resolve(row any, path []string) Resolved {
	values := []reflect.Value{reflect.ValueOf(row)}
	plural := false

	for _, segment := range path {
		values, plural = flatten(values, plural)
		next := make([]reflect.Value, 0, len(values))
		for _, v := range values {
			if !v.IsValid() {
				if !plural {
					next = append(next, v)
				}
				continue
			}
			fv, ok := lookup(v, segment)
			if !ok {
				if plural {
					continue
				}
				return Resolved{}
			}
			next = append(next, fv)
		}
		values = next
	}

	values, plural = flatten(values, plural)
	if !plural {
		if len(values) == 0 || !values[0].IsValid() {
			return Resolved{Found: true}
		}
		return Resolved{Value: values[0].Interface(), Found: true}
	}

	out := make([]any, 0, len(values))
	for _, v := range values {
		if v.IsValid() {
			out = append(out, v.Interface())
		}
	}
	return Resolved{Value: out, Plural: true, Found: true}
}

// Indirect dereferences pointers and interfaces. A nil pointer yields the
// zero Value.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isList(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Array:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

func flatten(values []reflect.Value, plural bool) ([]reflect.Value, bool) {
	out := make([]reflect.Value, 0, len(values))
	for _, v := range values {
		v = Indirect(v)
		if isList(v) {
			plural = true
			for i := 0; i < v.Len(); i++ {
				out = append(out, Indirect(v.Index(i)))
			}
			continue
		}
		out = append(out, v)
	}
	return out, plural
}

func lookup(v reflect.Value, name string) (reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		mv := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return reflect.Value{}, false
		}
		return mv, true
	case reflect.Struct:
		field, ok := FieldByName(v.Type(), name)
		if !ok {
			return reflect.Value{}, false
		}
		fv, err := v.FieldByIndexErr(field.Index)
		if err != nil {
			// nil embedded pointer
			return reflect.Value{}, true
		}
		if !fv.CanInterface() {
			return reflect.Value{}, false
		}
		return fv, true
	}
	return reflect.Value{}, false
}

type fieldKey struct {
	typ  reflect.Type
	name string
}

var fieldCache sync.Map

// FieldByName finds a struct field by its json name, then column name, then
// (case-insensitively) its Go name. Promoted fields are included.
func FieldByName(typ reflect.Type, name string) (reflect.StructField, bool) {
	key := fieldKey{typ: typ, name: name}
	if cached, ok := fieldCache.Load(key); ok {
		field, found := cached.(*reflect.StructField)
		if !found || field == nil {
			return reflect.StructField{}, false
		}
		return *field, true
	}

	field, ok := findField(typ, name)
	if ok {
		fieldCache.Store(key, &field)
	} else {
		fieldCache.Store(key, (*reflect.StructField)(nil))
	}
	return field, ok
}

func findField(typ reflect.Type, name string) (reflect.StructField, bool) {
	if typ.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	fields := reflect.VisibleFields(typ)
	for _, f := range fields {
		if !f.Anonymous && f.IsExported() && JSONName(f) == name {
			return f, true
		}
	}
	for _, f := range fields {
		if !f.Anonymous && f.IsExported() && ColumnName(f) == name {
			return f, true
		}
	}
	for _, f := range fields {
		if !f.Anonymous && f.IsExported() && strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// JSONName returns the json tag name of field, or "" when untagged.
func JSONName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

// FieldPath maps a json/column dot path to Go field names, e.g.
// [department manager] -> "Department.Manager". Used for ORM preloads.
func FieldPath(model any, path []string) (string, bool) {
	typ := ModelType(model)
	names := make([]string, 0, len(path))
	for _, segment := range path {
		if typ == nil || typ.Kind() != reflect.Struct {
			return "", false
		}
		field, ok := FieldByName(typ, segment)
		if !ok {
			return "", false
		}
		names = append(names, field.Name)
		typ = field.Type
		for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
			typ = typ.Elem()
		}
	}
	return strings.Join(names, "."), true
}

// TypeName returns the base type name of model, "" for anonymous types.
func TypeName(model any) string {
	typ := ModelType(model)
	if typ == nil {
		return ""
	}
	return typ.Name()
}
