package condition

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var inputTypes = []string{"text", "dropdown", "number", "currency", "percentage", "date", "boolean", "table", "tags", "calc_currency"}

func TestOperatorsForType_Mapping(t *testing.T) {
	tests := []struct {
		inputType string
		variant   Variant
		want      []Operator
	}{
		{"number", NumberConstraints, numericOps},
		{"currency", TermSheet, numericOps},
		{"calc_currency", NumberConstraints, numericOps},
		{"percentage", NumberConstraints, numericOps},
		{"date", TermSheet, dateOps},
		{"boolean", NumberConstraints, commonOps},
		{"boolean", TermSheet, boolOps},
		{"text", TermSheet, textOps},
		{"dropdown", NumberConstraints, textOps},
		{"", TermSheet, textOps},
		{"something_new", TermSheet, textOps},
	}
	for _, tt := range tests {
		got := OperatorsForType(tt.inputType, tt.variant)
		if len(got) != len(tt.want) {
			t.Fatalf("%s/%d: expected %d operators, got %d", tt.inputType, tt.variant, len(tt.want), len(got))
		}
		for i, opt := range got {
			if opt.Value != tt.want[i] {
				t.Fatalf("%s: position %d expected %s, got %s", tt.inputType, i, tt.want[i], opt.Value)
			}
			if opt.Label == "" {
				t.Fatalf("%s: operator %s has no label", tt.inputType, opt.Value)
			}
		}
	}
}

func TestOperatorsForType_TextIsSupersetOfCommon(t *testing.T) {
	for _, op := range commonOps {
		if !Allowed("text", TermSheet, op) {
			t.Fatalf("text set is missing common operator %s", op)
		}
	}
}

func TestIsValueless(t *testing.T) {
	want := map[Operator]bool{
		OpExists: true, OpDoesNotExist: true, OpIsEmpty: true, OpIsNotEmpty: true,
		OpIsTrue: true, OpIsFalse: true,
	}
	for _, op := range Vocabulary() {
		if IsValueless(op) != want[op] {
			t.Fatalf("IsValueless(%s) = %v, want %v", op, IsValueless(op), want[op])
		}
	}
	if IsValueless("bogus") {
		t.Fatal("unknown operator must not be valueless")
	}
}

func TestProperty_OperatorSetClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genType := gen.OneConstOf("text", "dropdown", "number", "currency", "percentage", "date", "boolean", "table", "tags", "calc_currency", "", "unknown")
	genVariant := gen.OneConstOf(NumberConstraints, TermSheet)

	properties.Property("every type yields a non-empty list drawn from the vocabulary", prop.ForAll(
		func(inputType string, v Variant) bool {
			opts := OperatorsForType(inputType, v)
			if len(opts) == 0 {
				return false
			}
			seen := map[Operator]bool{}
			for _, o := range opts {
				if !Known(o.Value) || seen[o.Value] {
					return false
				}
				seen[o.Value] = true
				if !Allowed(inputType, v, o.Value) {
					return false
				}
			}
			return true
		},
		genType, genVariant,
	))

	properties.TestingRun(t)
}
