package tablespec

import (
	"maps"
	"slices"

	"github.com/Warky-Devs/TableSpec/pkg/common"
)

// Filter types understood by the built-in predicate translator. Any other
// type string is passed to the client as a custom component key.
const (
	FilterText    = "text"
	FilterNumber  = "number"
	FilterSelect  = "select"
	FilterDate    = "date"
	FilterBoolean = "boolean"
)

// Option is one choice of a select filter.
type Option struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter describes one structured filter of a table.
type Filter struct {
	Field      string           `json:"field"`
	Label      string           `json:"label"`
	Type       string           `json:"type"`
	Operators  []OperatorOption `json:"operators"`
	Options    []Option         `json:"options,omitempty"`
	Multiple   bool             `json:"multiple,omitempty"`
	Searchable bool             `json:"searchable,omitempty"`
	Serverside bool             `json:"serverside,omitempty"`
	WithTime   bool             `json:"withTime,omitempty"`
	UTCConvert bool             `json:"utcConvert,omitempty"`
	Component  string           `json:"component,omitempty"`
	Config     map[string]any   `json:"config,omitempty"`
	QueryUsing FilterFunc       `json:"-"`
}

// FilterBuilder configures a Filter fluently.
type FilterBuilder struct {
	filter Filter
}

// NewFilter starts a filter of the given type. The operator list defaults to
// the preset of the type.
func NewFilter(field, filterType string) *FilterBuilder {
	return &FilterBuilder{filter: Filter{
		Field:     field,
		Label:     humanize(field),
		Type:      filterType,
		Operators: Options(defaultOperators(filterType)...),
	}}
}

// TextFilter, NumberFilter, DateFilter, SelectFilter and BooleanFilter are
// shorthands for NewFilter with the matching type.
func TextFilter(field string) *FilterBuilder    { return NewFilter(field, FilterText) }
func NumberFilter(field string) *FilterBuilder  { return NewFilter(field, FilterNumber) }
func DateFilter(field string) *FilterBuilder    { return NewFilter(field, FilterDate) }
func BooleanFilter(field string) *FilterBuilder { return NewFilter(field, FilterBoolean) }

func SelectFilter(field string, options ...Option) *FilterBuilder {
	return NewFilter(field, FilterSelect).Options(options...)
}

func defaultOperators(filterType string) []Operator {
	switch filterType {
	case FilterNumber:
		return NumberOperators
	case FilterDate:
		return DateOperators
	case FilterSelect:
		return SelectOperators
	case FilterBoolean:
		return BooleanOperators
	default:
		return TextOperators
	}
}

func (b *FilterBuilder) Label(label string) *FilterBuilder {
	b.filter.Label = label
	return b
}

// Operators replaces the offered operators, keeping default labels.
func (b *FilterBuilder) Operators(ops ...Operator) *FilterBuilder {
	b.filter.Operators = Options(ops...)
	return b
}

// OperatorOptions replaces the offered operators with custom labels.
func (b *FilterBuilder) OperatorOptions(ops ...OperatorOption) *FilterBuilder {
	b.filter.Operators = append([]OperatorOption(nil), ops...)
	return b
}

func (b *FilterBuilder) Options(options ...Option) *FilterBuilder {
	b.filter.Options = append([]Option(nil), options...)
	return b
}

func (b *FilterBuilder) Multiple() *FilterBuilder {
	b.filter.Multiple = true
	return b
}

func (b *FilterBuilder) Searchable() *FilterBuilder {
	b.filter.Searchable = true
	return b
}

func (b *FilterBuilder) Serverside() *FilterBuilder {
	b.filter.Serverside = true
	return b
}

// WithTime makes a date filter compare full timestamps instead of days.
func (b *FilterBuilder) WithTime() *FilterBuilder {
	b.filter.WithTime = true
	return b
}

// UTCConvert converts timestamp values to UTC before comparing.
func (b *FilterBuilder) UTCConvert() *FilterBuilder {
	b.filter.UTCConvert = true
	return b
}

func (b *FilterBuilder) Component(name string) *FilterBuilder {
	b.filter.Component = name
	return b
}

func (b *FilterBuilder) Config(config map[string]any) *FilterBuilder {
	b.filter.Config = config
	return b
}

// QueryUsing replaces the built-in predicate for valid operators.
func (b *FilterBuilder) QueryUsing(fn FilterFunc) *FilterBuilder {
	b.filter.QueryUsing = fn
	return b
}

// Build returns the configured filter.
func (b *FilterBuilder) Build() Filter {
	return b.filter
}

// isDate reports whether values compare on their date part only.
func (f Filter) isDate() bool {
	return f.Type == FilterDate && !f.WithTime
}

// isTimestamp reports whether values compare as full timestamps.
func (f Filter) isTimestamp() bool {
	return f.Type == FilterDate && f.WithTime
}

// target splits a dotted field into relation path and attribute.
func (f Filter) target() (path []string, attribute string) {
	parts := common.SplitPath(f.Field)
	if len(parts) <= 1 {
		return nil, f.Field
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// clone copies f including its operator, option and config storage.
func (f Filter) clone() Filter {
	f.Operators = slices.Clone(f.Operators)
	f.Options = slices.Clone(f.Options)
	if f.Config != nil {
		f.Config = cloneConfig(f.Config)
	}
	return f
}

func cloneConfig(config map[string]any) map[string]any {
	out := maps.Clone(config)
	for k, v := range out {
		out[k] = cloneConfigValue(v)
	}
	return out
}

func cloneConfigValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneConfig(v)
	case []any:
		out := slices.Clone(v)
		for i := range out {
			out[i] = cloneConfigValue(out[i])
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

func cloneFilters(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = f.clone()
	}
	return out
}
