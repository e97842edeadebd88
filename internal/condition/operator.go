package condition

import "errors"

// Operator is one entry of the fixed condition vocabulary.
type Operator string

const (
	OpExists             Operator = "exists"
	OpDoesNotExist       Operator = "does_not_exist"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpDoesNotContain     Operator = "does_not_contain"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpIsAfter            Operator = "is_after"
	OpIsBefore           Operator = "is_before"
	OpIsTrue             Operator = "is_true"
	OpIsFalse            Operator = "is_false"
)

var ErrUnknownOperator = errors.New("unknown operator")

// Option is an operator as offered in a picker.
type Option struct {
	Value Operator `json:"value"`
	Label string   `json:"label"`
}

// Variant selects which editor the operator list is built for. The two
// editors disagree on booleans: number constraints offer only the common set,
// term-sheet conditions add is_true/is_false.
type Variant int

const (
	NumberConstraints Variant = iota
	TermSheet
)

var labels = map[Operator]string{
	OpExists:             "Exists",
	OpDoesNotExist:       "Does not exist",
	OpIsEmpty:            "Is empty",
	OpIsNotEmpty:         "Is not empty",
	OpEquals:             "Equals",
	OpNotEquals:          "Does not equal",
	OpContains:           "Contains",
	OpDoesNotContain:     "Does not contain",
	OpGreaterThan:        "Greater than",
	OpLessThan:           "Less than",
	OpGreaterThanOrEqual: "Greater than or equal",
	OpLessThanOrEqual:    "Less than or equal",
	OpIsAfter:            "Is after",
	OpIsBefore:           "Is before",
	OpIsTrue:             "Is true",
	OpIsFalse:            "Is false",
}

var (
	commonOps  = []Operator{OpExists, OpDoesNotExist, OpIsEmpty, OpIsNotEmpty, OpEquals, OpNotEquals}
	textOps    = append(clone(commonOps), OpContains, OpDoesNotContain)
	numericOps = append(clone(commonOps), OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual)
	dateOps    = append(clone(commonOps), OpIsAfter, OpIsBefore)
	boolOps    = append(clone(commonOps), OpIsTrue, OpIsFalse)
)

var valueless = map[Operator]bool{
	OpExists:       true,
	OpDoesNotExist: true,
	OpIsEmpty:      true,
	OpIsNotEmpty:   true,
	OpIsTrue:       true,
	OpIsFalse:      true,
}

func clone(ops []Operator) []Operator {
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out
}

// Vocabulary returns every known operator in display order.
func Vocabulary() []Operator {
	out := clone(commonOps)
	out = append(out, OpContains, OpDoesNotContain,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpIsAfter, OpIsBefore, OpIsTrue, OpIsFalse)
	return out
}

// Known reports whether op belongs to the vocabulary.
func Known(op Operator) bool {
	_, ok := labels[op]
	return ok
}

// Label returns the display label for op, or the raw string if unknown.
func Label(op Operator) string {
	if l, ok := labels[op]; ok {
		return l
	}
	return string(op)
}

// IsValueless reports whether op takes no comparand. Callers must clear the
// value of a condition whose operator is valueless.
func IsValueless(op Operator) bool {
	return valueless[op]
}

func operatorsFor(inputType string, v Variant) []Operator {
	switch inputType {
	case "number", "currency", "percentage", "calc_currency":
		return numericOps
	case "boolean":
		if v == TermSheet {
			return boolOps
		}
		return commonOps
	case "date":
		return dateOps
	default:
		return textOps
	}
}

// OperatorsForType returns the ordered operator options legal for an input
// of the given type. Unknown or empty types get the text set.
func OperatorsForType(inputType string, v Variant) []Option {
	ops := operatorsFor(inputType, v)
	out := make([]Option, 0, len(ops))
	for _, op := range ops {
		out = append(out, Option{Value: op, Label: labels[op]})
	}
	return out
}

// Allowed reports whether op may be used against an input of inputType.
func Allowed(inputType string, v Variant, op Operator) bool {
	for _, candidate := range operatorsFor(inputType, v) {
		if candidate == op {
			return true
		}
	}
	return false
}
