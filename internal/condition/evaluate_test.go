package condition

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMatch_Operators(t *testing.T) {
	values := Values{
		"loan_type":  "DSCR",
		"amount":     "$250,000",
		"ltv":        float64(75),
		"close_date": "2026-03-01",
		"is_rehab":   true,
		"notes":      "  ",
		"tags":       []any{"bridge", "Fix and Flip"},
	}
	tests := []struct {
		name string
		c    Condition
		want bool
	}{
		{"exists", Condition{Field: "loan_type", Operator: OpExists}, true},
		{"exists missing", Condition{Field: "missing", Operator: OpExists}, false},
		{"does not exist", Condition{Field: "missing", Operator: OpDoesNotExist}, true},
		{"is empty whitespace", Condition{Field: "notes", Operator: OpIsEmpty}, true},
		{"is not empty", Condition{Field: "loan_type", Operator: OpIsNotEmpty}, true},
		{"equals case-insensitive", Condition{Field: "loan_type", Operator: OpEquals, Value: "dscr"}, true},
		{"not equals", Condition{Field: "loan_type", Operator: OpNotEquals, Value: "Bridge"}, true},
		{"not equals missing field", Condition{Field: "missing", Operator: OpNotEquals, Value: "x"}, true},
		{"equals numeric string", Condition{Field: "ltv", Operator: OpEquals, Value: "75.0"}, true},
		{"contains", Condition{Field: "loan_type", Operator: OpContains, Value: "sc"}, true},
		{"contains tag", Condition{Field: "tags", Operator: OpContains, Value: "fix and flip"}, true},
		{"does not contain", Condition{Field: "loan_type", Operator: OpDoesNotContain, Value: "zz"}, true},
		{"greater than currency", Condition{Field: "amount", Operator: OpGreaterThan, Value: "100000"}, true},
		{"less than", Condition{Field: "ltv", Operator: OpLessThan, Value: "75"}, false},
		{"less than or equal", Condition{Field: "ltv", Operator: OpLessThanOrEqual, Value: "75"}, true},
		{"greater than or equal", Condition{Field: "ltv", Operator: OpGreaterThanOrEqual, Value: "80%"}, false},
		{"numeric on text", Condition{Field: "loan_type", Operator: OpGreaterThan, Value: "1"}, false},
		{"is after", Condition{Field: "close_date", Operator: OpIsAfter, Value: "2026-01-15"}, true},
		{"is before", Condition{Field: "close_date", Operator: OpIsBefore, Value: "2026-01-15"}, false},
		{"is true", Condition{Field: "is_rehab", Operator: OpIsTrue}, true},
		{"is false", Condition{Field: "is_rehab", Operator: OpIsFalse}, false},
		{"is false missing", Condition{Field: "missing", Operator: OpIsFalse}, false},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Match(tt.c, values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatch_UnknownOperator(t *testing.T) {
	_, err := NewEvaluator().Match(Condition{Field: "a", Operator: "between", Value: "1"}, Values{"a": "1"})
	if !errors.Is(err, ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestMatch_FieldAndExpressionComparands(t *testing.T) {
	e := NewEvaluator()
	values := Values{"purchase_price": float64(400000), "loan_amount": float64(300000), "arv": float64(500000)}

	ok, err := e.Match(Condition{Field: "loan_amount", Operator: OpLessThan, ValueType: ValueField, ValueField: "purchase_price"}, values)
	if err != nil || !ok {
		t.Fatalf("field comparand: got %v, %v", ok, err)
	}

	ok, err = e.Match(Condition{Field: "loan_amount", Operator: OpLessThanOrEqual, ValueType: ValueExpression, ValueExpression: "arv * 0.6"}, values)
	if err != nil || !ok {
		t.Fatalf("expression comparand: got %v, %v", ok, err)
	}

	ok, err = e.Match(Condition{Field: "loan_amount", Operator: OpGreaterThan, ValueType: ValueExpression, ValueExpression: `values["arv"] * 0.7`}, values)
	if err != nil || ok {
		t.Fatalf("indexed expression comparand: got %v, %v", ok, err)
	}

	if _, err := e.Match(Condition{Field: "loan_amount", Operator: OpEquals, ValueType: ValueExpression, ValueExpression: "arv *"}, values); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestMatchGroup_Logic(t *testing.T) {
	e := NewEvaluator()
	values := Values{"state": "CA", "loan_type": "DSCR"}
	caCond := Condition{Field: "state", Operator: OpEquals, Value: "CA"}
	txCond := Condition{Field: "state", Operator: OpEquals, Value: "TX"}

	and, _ := e.MatchGroup(Group{Logic: And, Conditions: []Condition{caCond, txCond}}, values)
	if and {
		t.Fatal("AND should fail when one condition fails")
	}
	or, _ := e.MatchGroup(Group{Logic: Or, Conditions: []Condition{txCond, caCond}}, values)
	if !or {
		t.Fatal("OR should pass when one condition passes")
	}
	empty, _ := e.MatchGroup(Group{Logic: And}, values)
	if empty {
		t.Fatal("a group without conditions must not match")
	}
}

func TestApplies(t *testing.T) {
	e := NewEvaluator()
	ok, err := e.Applies(nil, Values{})
	if err != nil || !ok {
		t.Fatal("an empty rule set always applies")
	}
	groups := []Group{
		{Logic: And, Conditions: []Condition{{Field: "state", Operator: OpEquals, Value: "NY"}}},
		{Logic: And, Conditions: []Condition{{Field: "state", Operator: OpEquals, Value: "CA"}}},
	}
	ok, _ = e.Applies(groups, Values{"state": "CA"})
	if !ok {
		t.Fatal("expected the second group to match")
	}
	ok, _ = e.Applies(groups, Values{"state": "TX"})
	if ok {
		t.Fatal("expected no group to match")
	}
}

func TestCondition_UnmarshalNumericValue(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"field":"ltv","operator":"less_than","value":80}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Value != "80" {
		t.Fatalf("expected value 80, got %q", c.Value)
	}
	if err := json.Unmarshal([]byte(`{"field":"x","operator":"exists","value":null}`), &c); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if c.Value != "" || c.Operator != OpExists {
		t.Fatalf("unexpected condition %+v", c)
	}
}

func TestValidate(t *testing.T) {
	types := map[string]string{"flag": "boolean", "amount": "currency", "name": "text"}
	groups := []Group{{Logic: And, Conditions: []Condition{
		{Field: "flag", Operator: OpIsTrue},
		{Field: "amount", Operator: OpContains, Value: "1"},
		{Field: "name", Operator: OpEquals},
		{Field: "ghost", Operator: OpEquals, Value: "1"},
	}}}

	problems := Validate(groups, types, NumberConstraints, nil)
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %d: %+v", len(problems), problems)
	}

	problems = Validate(groups[:1], types, TermSheet, nil)
	if len(problems) != 3 {
		t.Fatalf("is_true on booleans is legal for term sheets; got %+v", problems)
	}

	expr := []Group{{Logic: Or, Conditions: []Condition{{Field: "amount", Operator: OpGreaterThan, ValueType: ValueExpression, ValueExpression: "1 +"}}}}
	if got := Validate(expr, types, TermSheet, NewEvaluator()); len(got) != 1 {
		t.Fatalf("expected compile problem, got %+v", got)
	}
}
