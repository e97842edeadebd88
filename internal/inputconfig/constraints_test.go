package inputconfig

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"pricing-admin/internal/condition"
)

func f(v float64) *float64 { return &v }

func eq(field, value string) condition.Condition {
	return condition.Condition{Field: field, Operator: condition.OpEquals, Value: value}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	cfg := &NumberConstraintsConfig{
		Min: f(0), Max: f(5000000), Step: f(1000),
		ConditionalConstraints: Constraints{
			{Type: condition.And, Conditions: []condition.Condition{eq("loan_type", "DSCR")}, Min: f(50000), Max: f(500000)},
			{Type: condition.And, Conditions: []condition.Condition{eq("state", "CA")}, Min: f(100000), Max: f(2000000)},
		},
	}
	b, err := cfg.Resolve(condition.NewEvaluator(), condition.Values{"loan_type": "DSCR", "state": "CA"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if *b.Min != 50000 || *b.Max != 500000 {
		t.Fatalf("expected (50000, 500000), got (%v, %v)", *b.Min, *b.Max)
	}
	if b.Rule != 0 {
		t.Fatalf("expected rule 0, got %d", b.Rule)
	}
	if *b.Step != 1000 {
		t.Fatalf("step must come from the defaults, got %v", *b.Step)
	}

	b, _ = cfg.Resolve(condition.NewEvaluator(), condition.Values{"loan_type": "Bridge", "state": "CA"})
	if *b.Min != 100000 || *b.Max != 2000000 || b.Rule != 1 {
		t.Fatalf("expected second rule, got %+v", b)
	}
}

func TestResolve_EndToEndCondoScenario(t *testing.T) {
	var cs Constraints
	cs = cs.Add()
	field := "property_type"
	op := condition.OpEquals
	val := "Condo"
	cs = cs.UpdateCondition(0, 0, condition.Patch{Field: &field})
	cs = cs.UpdateCondition(0, 0, condition.Patch{Operator: &op, Value: &val})
	cs = cs.SetBounds(0, f(20), f(80))

	raw, err := json.Marshal(&NumberConstraintsConfig{Min: f(0), Max: f(100), ConditionalConstraints: cs})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	normalized, err := Normalize("percentage", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := Decode("percentage", normalized)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	nc := cfg.(*NumberConstraintsConfig)

	e := condition.NewEvaluator()
	b, _ := nc.Resolve(e, condition.Values{"property_type": "Condo"})
	if *b.Min != 20 || *b.Max != 80 {
		t.Fatalf("Condo: expected (20, 80), got (%v, %v)", *b.Min, *b.Max)
	}
	b, _ = nc.Resolve(e, condition.Values{"property_type": "SFR"})
	if *b.Min != 0 || *b.Max != 100 || b.Rule != -1 {
		t.Fatalf("SFR: expected defaults (0, 100), got %+v", b)
	}
}

func TestProperty_FirstMatchWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("the earliest matching rule determines the bounds", prop.ForAll(
		func(matches []bool) bool {
			cfg := &NumberConstraintsConfig{Min: f(-1), Max: f(-1)}
			values := condition.Values{}
			want := -1
			for i, m := range matches {
				field := string(rune('a' + i%26))
				if i >= 26 {
					field += "x"
				}
				values[field] = "no"
				if m {
					values[field] = "yes"
					if want == -1 {
						want = i
					}
				}
				cfg.ConditionalConstraints = append(cfg.ConditionalConstraints, ConditionalConstraint{
					Type:       condition.And,
					Conditions: []condition.Condition{eq(field, "yes")},
					Min:        f(float64(i)),
					Max:        f(float64(i)),
				})
			}
			b, err := cfg.Resolve(condition.NewEvaluator(), values)
			if err != nil {
				return false
			}
			return b.Rule == want && *b.Min == float64(want)
		},
		gen.SliceOfN(20, gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestConstraints_Editing(t *testing.T) {
	var cs Constraints
	cs = cs.Add().Add()
	cs = cs.SetType(1, condition.Or)
	cs = cs.AddCondition(1)
	if cs[1].Type != condition.Or || len(cs[1].Conditions) != 2 {
		t.Fatalf("unexpected constraint: %+v", cs[1])
	}
	before := cs
	cs = cs.RemoveCondition(1, 0)
	if len(before[1].Conditions) != 2 {
		t.Fatal("RemoveCondition mutated the previous snapshot")
	}
	cs = cs.Remove(0)
	if len(cs) != 1 || cs[0].Type != condition.Or {
		t.Fatalf("unexpected constraints after remove: %+v", cs)
	}
	if cleaned := cs.Clean(); len(cleaned) != 0 {
		t.Fatalf("blank constraints should be dropped on save, got %+v", cleaned)
	}
}

func TestValidate_Bounds(t *testing.T) {
	cfg := &NumberConstraintsConfig{Min: f(10), Max: f(1)}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min > max")
	}
	cfg = &NumberConstraintsConfig{Step: f(0)}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero step")
	}
	cfg = &NumberConstraintsConfig{ConditionalConstraints: Constraints{{Type: "XOR"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid logic")
	}
}
