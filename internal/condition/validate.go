package condition

import "fmt"

// Problem describes why a condition cannot be persisted.
type Problem struct {
	Group     int    `json:"group"`
	Condition int    `json:"condition"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
}

func (p Problem) Error() string {
	return fmt.Sprintf("group %d condition %d: %s", p.Group, p.Condition, p.Message)
}

// Validate checks cleaned groups against the input types they reference.
// types maps input id to input_type; fields missing from it are reported.
// Expressions are compiled with e when it is non-nil.
func Validate(groups []Group, types map[string]string, v Variant, e *Evaluator) []Problem {
	var problems []Problem
	add := func(gi, ci int, field, format string, args ...any) {
		problems = append(problems, Problem{Group: gi, Condition: ci, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for gi, g := range groups {
		if g.Logic != And && g.Logic != Or {
			add(gi, -1, "", "invalid logic type %q", g.Logic)
		}
		for ci, c := range g.Conditions {
			inputType, ok := types[c.Field]
			if !ok {
				add(gi, ci, c.Field, "unknown field %q", c.Field)
				continue
			}
			if !Known(c.Operator) {
				add(gi, ci, c.Field, "unknown operator %q", c.Operator)
				continue
			}
			if !Allowed(inputType, v, c.Operator) {
				add(gi, ci, c.Field, "operator %q is not allowed for %s inputs", c.Operator, inputType)
				continue
			}
			if IsValueless(c.Operator) {
				continue
			}
			switch c.ValueType {
			case ValueField:
				if v != TermSheet {
					add(gi, ci, c.Field, "field comparands are not supported here")
				} else if _, ok := types[c.ValueField]; !ok {
					add(gi, ci, c.Field, "unknown comparand field %q", c.ValueField)
				}
			case ValueExpression:
				if v != TermSheet {
					add(gi, ci, c.Field, "expression comparands are not supported here")
				} else if c.ValueExpression == "" {
					add(gi, ci, c.Field, "value expression is required")
				} else if e != nil {
					if err := e.CheckExpression(c.ValueExpression); err != nil {
						add(gi, ci, c.Field, "%v", err)
					}
				}
			case "", ValueLiteral:
				if c.Value == "" {
					add(gi, ci, c.Field, "value is required for operator %q", c.Operator)
				}
			default:
				add(gi, ci, c.Field, "invalid value type %q", c.ValueType)
			}
		}
	}
	return problems
}
