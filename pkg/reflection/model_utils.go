package reflection

import (
	"reflect"
	"strings"
)

type PrimaryKeyNameProvider interface {
	GetIDName() string
}

// ModelType unwraps pointers, slices and arrays down to the base type.
func ModelType(model any) reflect.Type {
	typ := reflect.TypeOf(model)
	for typ != nil && (typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array) {
		typ = typ.Elem()
	}
	return typ
}

// GetPrimaryKeyName extracts the primary key column name from a model
// It first checks if the model implements PrimaryKeyNameProvider (GetIDName method)
// Falls back to the bun:",pk" tag, then gorm:"primaryKey", then a field named ID
func GetPrimaryKeyName(model any) string {
	if reflect.TypeOf(model) == nil {
		return ""
	}

	if provider, ok := model.(PrimaryKeyNameProvider); ok {
		return provider.GetIDName()
	}

	field, ok := primaryKeyField(ModelType(model))
	if !ok {
		return ""
	}
	return ColumnName(field)
}

// GetPrimaryKeyValue extracts the primary key value from a model instance
func GetPrimaryKeyValue(model any) any {
	val := Indirect(reflect.ValueOf(model))
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return nil
	}

	field, ok := primaryKeyField(val.Type())
	if !ok {
		return nil
	}
	fv, err := val.FieldByIndexErr(field.Index)
	if err != nil || !fv.CanInterface() {
		return nil
	}
	return fv.Interface()
}

// primaryKeyField finds the primary key, searching promoted fields of
// embedded structs as well.
func primaryKeyField(typ reflect.Type) (reflect.StructField, bool) {
	if typ == nil || typ.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	fields := reflect.VisibleFields(typ)

	for _, field := range fields {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		if hasTagOption(field.Tag.Get("bun"), ",", "pk") {
			return field, true
		}
	}
	for _, field := range fields {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		gormTag := field.Tag.Get("gorm")
		if hasTagOption(gormTag, ";", "primaryKey") || hasTagOption(gormTag, ";", "primary_key") {
			return field, true
		}
	}
	for _, field := range fields {
		if !field.Anonymous && field.IsExported() && strings.EqualFold(field.Name, "id") {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func hasTagOption(tag, sep, option string) bool {
	for _, part := range strings.Split(tag, sep) {
		if strings.EqualFold(strings.TrimSpace(part), option) {
			return true
		}
	}
	return false
}

// GetModelColumns extracts all column names from a model using reflection
// It checks bun tags first, then gorm tags, then json tags, and finally falls back to lowercase field names
// Fields of embedded structs are included.
func GetModelColumns(model any) []string {
	var columns []string

	modelType := ModelType(model)
	if modelType == nil || modelType.Kind() != reflect.Struct {
		return columns
	}

	for _, field := range reflect.VisibleFields(modelType) {
		if field.Anonymous || !field.IsExported() {
			continue
		}
		if columnName := ColumnName(field); columnName != "" {
			columns = append(columns, columnName)
		}
	}

	return columns
}

// ColumnName extracts the column name from a struct field
// Priority: bun tag -> gorm tag -> json tag -> lowercase field name.
// Fields tagged json:"-" without an ORM column return "".
func ColumnName(field reflect.StructField) string {
	if colName := ExtractColumnFromBunTag(field.Tag.Get("bun")); colName != "" && colName != "-" {
		return colName
	}

	if colName := ExtractColumnFromGormTag(field.Tag.Get("gorm")); colName != "" {
		return colName
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "-" {
		return ""
	}
	if name := strings.Split(jsonTag, ",")[0]; name != "" {
		return name
	}

	return strings.ToLower(field.Name)
}

// ExtractColumnFromGormTag extracts the column name from a gorm tag
// Example: "column:id;primaryKey" -> "id"
func ExtractColumnFromGormTag(tag string) string {
	parts := strings.Split(tag, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if colName, found := strings.CutPrefix(part, "column:"); found {
			return colName
		}
	}
	return ""
}

// ExtractColumnFromBunTag extracts the column name from a bun tag
// Example: "id,pk" -> "id"
// Example: ",pk" -> "" (will fall back to json tag)
func ExtractColumnFromBunTag(tag string) string {
	lower := strings.ToLower(tag)
	for _, prefix := range []string{"table:", "rel:", "join:", "m2m:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	parts := strings.Split(tag, ",")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return ""
}
