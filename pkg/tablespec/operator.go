package tablespec

import "strings"

// Operator is a filter operator token as it travels in the query string.
type Operator string

const (
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpBetween        Operator = "><"
	OpNotBetween     Operator = "!><"
	OpEndsWith       Operator = "*="
	OpNotEndsWith    Operator = "!*="
	OpStartsWith     Operator = "=*"
	OpNotStartsWith  Operator = "!=*"
	OpContains       Operator = "*"
	OpNotContains    Operator = "!*"
	OpIn             Operator = "in"
	OpNotIn          Operator = "notIn"
	OpIsSet          Operator = "isSet"
	OpIsNotSet       Operator = "isNotSet"
)

var operatorLabels = map[Operator]string{
	OpGreater:        "Greater than",
	OpGreaterOrEqual: "Greater than or equal",
	OpLess:           "Less than",
	OpLessOrEqual:    "Less than or equal",
	OpEqual:          "Equals",
	OpNotEqual:       "Not equals",
	OpBetween:        "Between",
	OpNotBetween:     "Not between",
	OpEndsWith:       "Ends with",
	OpNotEndsWith:    "Does not end with",
	OpStartsWith:     "Starts with",
	OpNotStartsWith:  "Does not start with",
	OpContains:       "Contains",
	OpNotContains:    "Does not contain",
	OpIn:             "Is any of",
	OpNotIn:          "Is none of",
	OpIsSet:          "Is set",
	OpIsNotSet:       "Is not set",
}

// Valid reports whether op belongs to the closed operator vocabulary.
func (op Operator) Valid() bool {
	_, ok := operatorLabels[op]
	return ok
}

// Label is the default human label of the operator.
func (op Operator) Label() string {
	return operatorLabels[op]
}

// NeedsValue reports whether the operator compares against a value.
func (op Operator) NeedsValue() bool {
	return op != OpIsSet && op != OpIsNotSet
}

// Negated reports whether the operator is one of the negating forms.
func (op Operator) Negated() bool {
	switch op {
	case OpNotEqual, OpNotBetween, OpNotEndsWith, OpNotStartsWith, OpNotContains, OpNotIn:
		return true
	}
	return false
}

// OperatorOption is an operator offered by a filter editor.
type OperatorOption struct {
	Value Operator `json:"value"`
	Label string   `json:"label"`
}

// Options builds editor options with the default labels.
func Options(ops ...Operator) []OperatorOption {
	out := make([]OperatorOption, 0, len(ops))
	for _, op := range ops {
		out = append(out, OperatorOption{Value: op, Label: op.Label()})
	}
	return out
}

// Default operator sets per filter type.
var (
	TextOperators    = []Operator{OpContains, OpNotContains, OpEqual, OpNotEqual, OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith, OpIsSet, OpIsNotSet}
	NumberOperators  = []Operator{OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpBetween, OpNotBetween, OpIsSet, OpIsNotSet}
	DateOperators    = []Operator{OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpBetween, OpNotBetween, OpIn, OpNotIn, OpIsSet, OpIsNotSet}
	SelectOperators  = []Operator{OpIn, OpNotIn, OpIsSet, OpIsNotSet}
	BooleanOperators = []Operator{OpEqual, OpNotEqual}
)

// ParseFilterValue splits a raw "operator:value" string on its first colon.
// Without a colon both operator and value are the raw string.
func ParseFilterValue(raw string) (Operator, string) {
	op, value, found := strings.Cut(raw, ":")
	if !found {
		return Operator(raw), raw
	}
	return Operator(op), value
}

// FormatFilterValue is the inverse of ParseFilterValue.
func FormatFilterValue(op Operator, value string) string {
	return string(op) + ":" + value
}
