package tablestore

import (
	"fmt"
	"strings"

	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
)

// ActiveFilter is a filter being edited or applied on the client. Multi
// value filters keep their values in Values, every other filter in Value.
type ActiveFilter struct {
	Field    string             `json:"field"`
	Operator tablespec.Operator `json:"operator"`
	Value    string             `json:"value,omitempty"`
	Values   []string           `json:"values,omitempty"`
	Multiple bool               `json:"multiple,omitempty"`
}

// Encode renders the filter as the "operator:value" query value.
func (f ActiveFilter) Encode() string {
	value := f.Value
	if f.Multiple {
		value = strings.Join(f.Values, ",")
	}
	if f.Operator == "" {
		return value
	}
	return tablespec.FormatFilterValue(f.Operator, value)
}

// IsEmpty reports whether the filter has nothing to send yet.
func (f ActiveFilter) IsEmpty() bool {
	if !f.Operator.NeedsValue() {
		return false
	}
	if f.Multiple {
		return len(f.Values) == 0
	}
	return f.Value == ""
}

// ParseActiveFilter is the inverse of Encode. The raw value is split on its
// first colon; a raw value without one has no operator.
func ParseActiveFilter(field, raw string, multiple bool) ActiveFilter {
	f := ActiveFilter{Field: field, Multiple: multiple}
	op, value, found := strings.Cut(raw, ":")
	if found {
		f.Operator = tablespec.Operator(op)
	} else {
		value = raw
	}
	if multiple {
		f.Values = []string{}
		for _, v := range strings.Split(value, ",") {
			if v != "" {
				f.Values = append(f.Values, v)
			}
		}
	} else {
		f.Value = value
	}
	return f
}

func (f ActiveFilter) clone() ActiveFilter {
	if f.Values != nil {
		f.Values = append([]string{}, f.Values...)
	}
	return f
}

// displayFilter is the chip text of an active filter.
func displayFilter(f ActiveFilter, def *tablespec.Filter) string {
	if f.Multiple {
		if len(f.Values) == 0 {
			return "None"
		}
		labels := make([]string, 0, len(f.Values))
		if def != nil {
			for _, opt := range def.Options {
				for _, v := range f.Values {
					if opt.Value == v {
						labels = append(labels, opt.Label)
						break
					}
				}
			}
		}
		if len(labels) > 2 {
			return fmt.Sprintf("%d selected", len(labels))
		}
		return strings.Join(labels, ", ")
	}
	if def != nil && def.Type == tablespec.FilterSelect {
		for _, opt := range def.Options {
			if opt.Value == f.Value {
				return opt.Label
			}
		}
	}
	return f.Value
}
