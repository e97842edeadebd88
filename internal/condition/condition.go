// Package condition models the field/operator/value predicates shared by
// number constraints and term-sheet conditions, the editor operations over
// lists of rule groups, and their evaluation against input values.
package condition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Logic combines the conditions of a group.
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// ParseLogic accepts AND/OR in any case. Empty defaults to AND.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	}
	return "", fmt.Errorf("invalid logic type %q", s)
}

// ValueType says where the comparand of a term-sheet condition comes from.
type ValueType string

const (
	ValueLiteral    ValueType = "value"
	ValueField      ValueType = "field"
	ValueExpression ValueType = "expression"
)

// Condition is a single predicate over an input.
// ValueType, ValueField and ValueExpression are only used by term-sheet
// conditions; an empty ValueType means a literal Value.
type Condition struct {
	Field           string    `json:"field"`
	Operator        Operator  `json:"operator"`
	Value           string    `json:"value"`
	ValueType       ValueType `json:"value_type,omitempty"`
	ValueField      string    `json:"value_field,omitempty"`
	ValueExpression string    `json:"value_expression,omitempty"`
}

// UnmarshalJSON accepts numeric and boolean literals for value, which older
// rows stored unquoted.
func (c *Condition) UnmarshalJSON(data []byte) error {
	type alias Condition
	var raw struct {
		alias
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Condition(raw.alias)
	c.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		c.Value = s
		return nil
	}
	var anyVal any
	if err := json.Unmarshal(raw.Value, &anyVal); err != nil {
		return fmt.Errorf("condition value: %w", err)
	}
	c.Value = stringify(anyVal)
	return nil
}

// Complete reports whether both field and operator are set.
func (c Condition) Complete() bool {
	return c.Field != "" && c.Operator != ""
}

// Normalized returns c with the comparand fields made consistent with the
// operator and value type: valueless operators carry no comparand at all,
// and only the companion field of the chosen value type is kept.
func (c Condition) Normalized() Condition {
	if IsValueless(c.Operator) {
		c.Value = ""
		c.ValueField = ""
		c.ValueExpression = ""
		if c.ValueType != "" {
			c.ValueType = ValueLiteral
		}
		return c
	}
	switch c.ValueType {
	case ValueField:
		c.Value = ""
		c.ValueExpression = ""
	case ValueExpression:
		c.Value = ""
		c.ValueField = ""
	default:
		c.ValueField = ""
		c.ValueExpression = ""
	}
	return c
}

// Group is a set of conditions combined by Logic.
type Group struct {
	Logic      Logic       `json:"logic_type"`
	Conditions []Condition `json:"conditions"`
}

func (g Group) clone() Group {
	out := Group{Logic: g.Logic, Conditions: make([]Condition, len(g.Conditions))}
	copy(out.Conditions, g.Conditions)
	return out
}

// hasComplete reports whether any condition has both field and operator.
func (g Group) hasComplete() bool {
	for _, c := range g.Conditions {
		if c.Complete() {
			return true
		}
	}
	return false
}
