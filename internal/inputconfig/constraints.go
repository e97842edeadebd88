package inputconfig

import (
	"fmt"

	"pricing-admin/internal/condition"
)

// ConditionalConstraint overrides the default bounds when its conditions hold.
type ConditionalConstraint struct {
	Type       condition.Logic       `json:"type"`
	Conditions []condition.Condition `json:"conditions"`
	Min        *float64              `json:"min"`
	Max        *float64              `json:"max"`
}

func (cc ConditionalConstraint) group() condition.Group {
	return condition.Group{Logic: cc.Type, Conditions: cc.Conditions}
}

// NumberConstraintsConfig holds default bounds and ordered conditional
// overrides for a numeric input. Step never varies by rule.
type NumberConstraintsConfig struct {
	Min                    *float64    `json:"min"`
	Max                    *float64    `json:"max"`
	Step                   *float64    `json:"step"`
	ConditionalConstraints Constraints `json:"conditional_constraints"`
}

func (c *NumberConstraintsConfig) Kind() Kind { return KindNumberConstraints }

func (c *NumberConstraintsConfig) Validate() error {
	if err := checkBounds(c.Min, c.Max); err != nil {
		return err
	}
	if c.Step != nil && *c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", *c.Step)
	}
	for i, cc := range c.ConditionalConstraints {
		if cc.Type == "" {
			c.ConditionalConstraints[i].Type = condition.And
		} else if cc.Type != condition.And && cc.Type != condition.Or {
			return fmt.Errorf("conditional constraint %d: invalid type %q", i, cc.Type)
		}
		if err := checkBounds(cc.Min, cc.Max); err != nil {
			return fmt.Errorf("conditional constraint %d: %w", i, err)
		}
	}
	return nil
}

func checkBounds(min, max *float64) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("min %v exceeds max %v", *min, *max)
	}
	return nil
}

// Bounds is the resolved constraint for one evaluation. Rule is the index
// of the matching conditional constraint, or -1 for the defaults.
type Bounds struct {
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
	Step *float64 `json:"step"`
	Rule int      `json:"rule"`
}

// Resolve walks the conditional constraints in order and returns the bounds
// of the first one that matches values. Later matches are never consulted
// or merged. Without a match the defaults apply.
func (c *NumberConstraintsConfig) Resolve(e *condition.Evaluator, values condition.Values) (Bounds, error) {
	for i, cc := range c.ConditionalConstraints {
		ok, err := e.MatchGroup(cc.group(), values)
		if err != nil {
			return Bounds{}, fmt.Errorf("conditional constraint %d: %w", i, err)
		}
		if ok {
			return Bounds{Min: cc.Min, Max: cc.Max, Step: c.Step, Rule: i}, nil
		}
	}
	return Bounds{Min: c.Min, Max: c.Max, Step: c.Step, Rule: -1}, nil
}

// Groups exposes the rule groups for validation.
func (cs Constraints) Groups() []condition.Group {
	out := make([]condition.Group, len(cs))
	for i, cc := range cs {
		out[i] = cc.group()
	}
	return out
}

// Constraints is an editing snapshot of conditional constraints. Like
// condition.Groups every method returns a new snapshot.
type Constraints []ConditionalConstraint

func (cs Constraints) clone() Constraints {
	out := make(Constraints, len(cs))
	for i, cc := range cs {
		out[i] = cc
		out[i].Conditions = append([]condition.Condition(nil), cc.Conditions...)
	}
	return out
}

func (cs Constraints) inRange(i int) bool { return i >= 0 && i < len(cs) }

// edit applies a single-group editor operation to constraint gi.
func (cs Constraints) edit(gi int, op func(condition.Groups) condition.Groups) Constraints {
	out := cs.clone()
	if !out.inRange(gi) {
		return out
	}
	edited := op(condition.Groups{out[gi].group()})
	out[gi].Type = edited[0].Logic
	out[gi].Conditions = edited[0].Conditions
	return out
}

// Add appends an AND constraint with one blank condition and no bounds.
func (cs Constraints) Add() Constraints {
	out := cs.clone()
	return append(out, ConditionalConstraint{Type: condition.And, Conditions: []condition.Condition{{}}})
}

func (cs Constraints) Remove(gi int) Constraints {
	out := cs.clone()
	if !out.inRange(gi) {
		return out
	}
	return append(out[:gi], out[gi+1:]...)
}

func (cs Constraints) SetType(gi int, logic condition.Logic) Constraints {
	return cs.edit(gi, func(g condition.Groups) condition.Groups { return g.SetGroupLogic(0, logic) })
}

func (cs Constraints) AddCondition(gi int) Constraints {
	return cs.edit(gi, func(g condition.Groups) condition.Groups { return g.AddCondition(0) })
}

func (cs Constraints) RemoveCondition(gi, ci int) Constraints {
	return cs.edit(gi, func(g condition.Groups) condition.Groups { return g.RemoveCondition(0, ci) })
}

func (cs Constraints) UpdateCondition(gi, ci int, p condition.Patch) Constraints {
	return cs.edit(gi, func(g condition.Groups) condition.Groups { return g.UpdateCondition(0, ci, p) })
}

// SetBounds replaces the min/max of constraint gi. Nil clears a bound.
func (cs Constraints) SetBounds(gi int, min, max *float64) Constraints {
	out := cs.clone()
	if !out.inRange(gi) {
		return out
	}
	out[gi].Min = min
	out[gi].Max = max
	return out
}

// Clean drops constraints without a complete condition, keeping order.
func (cs Constraints) Clean() Constraints {
	out := make(Constraints, 0, len(cs))
	for _, cc := range cs {
		cleaned := condition.Clean([]condition.Group{cc.group()})
		if len(cleaned) == 0 {
			continue
		}
		cc.Type = cleaned[0].Logic
		cc.Conditions = cleaned[0].Conditions
		out = append(out, cc)
	}
	return out
}
