package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Values holds the current input values keyed by input id.
type Values map[string]any

// Evaluator matches conditions against input values. It caches compiled
// value expressions and is safe for concurrent use.
type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Applies reports whether a rule set holds: an empty set always applies,
// otherwise at least one group must match.
func (e *Evaluator) Applies(groups []Group, values Values) (bool, error) {
	if len(groups) == 0 {
		return true, nil
	}
	for _, g := range groups {
		ok, err := e.MatchGroup(g, values)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// MatchGroup evaluates a group. A group without conditions never matches.
func (e *Evaluator) MatchGroup(g Group, values Values) (bool, error) {
	if len(g.Conditions) == 0 {
		return false, nil
	}
	for _, c := range g.Conditions {
		ok, err := e.Match(c, values)
		if err != nil {
			return false, err
		}
		if g.Logic == Or && ok {
			return true, nil
		}
		if g.Logic != Or && !ok {
			return false, nil
		}
	}
	return g.Logic != Or, nil
}

// Match evaluates a single condition.
func (e *Evaluator) Match(c Condition, values Values) (bool, error) {
	actual, present := lookup(values, c.Field)

	switch c.Operator {
	case OpExists:
		return present, nil
	case OpDoesNotExist:
		return !present, nil
	case OpIsEmpty:
		return isEmpty(actual), nil
	case OpIsNotEmpty:
		return !isEmpty(actual), nil
	case OpIsTrue:
		b, ok := toBool(actual)
		return ok && b, nil
	case OpIsFalse:
		b, ok := toBool(actual)
		return ok && !b, nil
	}

	if !Known(c.Operator) {
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
	}

	want, err := e.comparand(c, values)
	if err != nil {
		return false, err
	}

	switch c.Operator {
	case OpEquals:
		return present && equals(actual, want), nil
	case OpNotEquals:
		return !present || !equals(actual, want), nil
	case OpContains:
		return present && contains(actual, want), nil
	case OpDoesNotContain:
		return !present || !contains(actual, want), nil
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		a, ok1 := toNumber(actual)
		b, ok2 := toNumber(want)
		if !present || !ok1 || !ok2 {
			return false, nil
		}
		switch c.Operator {
		case OpGreaterThan:
			return a > b, nil
		case OpLessThan:
			return a < b, nil
		case OpGreaterThanOrEqual:
			return a >= b, nil
		default:
			return a <= b, nil
		}
	case OpIsAfter, OpIsBefore:
		a, ok1 := toTime(actual)
		b, ok2 := toTime(want)
		if !present || !ok1 || !ok2 {
			return false, nil
		}
		if c.Operator == OpIsAfter {
			return a.After(b), nil
		}
		return a.Before(b), nil
	}
	return false, nil
}

func (e *Evaluator) comparand(c Condition, values Values) (any, error) {
	switch c.ValueType {
	case ValueField:
		v, _ := lookup(values, c.ValueField)
		return v, nil
	case ValueExpression:
		return e.runExpression(c.ValueExpression, values)
	default:
		return c.Value, nil
	}
}

func (e *Evaluator) program(expression string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prog, ok := e.programs[expression]; ok {
		return prog, nil
	}
	prog, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile value expression: %w", err)
	}
	e.programs[expression] = prog
	return prog, nil
}

// runExpression evaluates a value expression. The environment exposes the
// whole map as `values` and, for keys that are valid identifiers, each
// value directly.
func (e *Evaluator) runExpression(expression string, values Values) (any, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	prog, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	env := make(map[string]any, len(values)+1)
	for k, v := range values {
		if isIdentifier(k) {
			env[k] = v
		}
	}
	env["values"] = map[string]any(values)
	out, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate value expression: %w", err)
	}
	return out, nil
}

// CheckExpression compiles expression without running it.
func (e *Evaluator) CheckExpression(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return nil
	}
	_, err := e.program(expression)
	return err
}

func isIdentifier(s string) bool {
	if s == "" || s == "values" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func lookup(values Values, field string) (any, bool) {
	if field == "" {
		return nil, false
	}
	v, ok := values[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func equals(actual, want any) bool {
	if items, ok := asSlice(actual); ok {
		for _, item := range items {
			if equals(item, want) {
				return true
			}
		}
		return false
	}
	if a, ok := toNumber(actual); ok {
		if b, ok := toNumber(want); ok {
			return a == b
		}
	}
	if a, ok := actual.(bool); ok {
		if b, ok := toBool(want); ok {
			return a == b
		}
	}
	return strings.EqualFold(strings.TrimSpace(stringify(actual)), strings.TrimSpace(stringify(want)))
}

func contains(actual, want any) bool {
	if items, ok := asSlice(actual); ok {
		for _, item := range items {
			if equals(item, want) {
				return true
			}
		}
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(stringify(want)))
	return strings.Contains(strings.ToLower(stringify(actual)), needle)
}

func asSlice(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

var numberReplacer = strings.NewReplacer("$", "", ",", "", "%", "", " ", "")

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := numberReplacer.Replace(strings.TrimSpace(n))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1", "on":
			return true, true
		case "false", "no", "0", "off":
			return false, true
		}
	default:
		if n, ok := toNumber(v); ok {
			return n != 0, true
		}
	}
	return false, false
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "01/02/2006"}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
