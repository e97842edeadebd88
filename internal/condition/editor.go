package condition

// Groups is an editing snapshot of rule groups. Every method returns a new
// snapshot and leaves the receiver untouched. Out-of-range indexes return an
// unchanged copy.
type Groups []Group

// Patch is a partial condition update; nil fields are left as they are.
type Patch struct {
	Field           *string
	Operator        *Operator
	Value           *string
	ValueType       *ValueType
	ValueField      *string
	ValueExpression *string
}

func (gs Groups) clone() Groups {
	out := make(Groups, len(gs))
	for i, g := range gs {
		out[i] = g.clone()
	}
	return out
}

func (gs Groups) inRange(gi int) bool {
	return gi >= 0 && gi < len(gs)
}

// AddGroup appends an AND group holding one blank condition.
func (gs Groups) AddGroup() Groups {
	out := gs.clone()
	return append(out, Group{Logic: And, Conditions: []Condition{{}}})
}

func (gs Groups) RemoveGroup(gi int) Groups {
	out := gs.clone()
	if !out.inRange(gi) {
		return out
	}
	return append(out[:gi], out[gi+1:]...)
}

func (gs Groups) SetGroupLogic(gi int, logic Logic) Groups {
	out := gs.clone()
	if !out.inRange(gi) || (logic != And && logic != Or) {
		return out
	}
	out[gi].Logic = logic
	return out
}

// AddCondition appends a blank condition to group gi.
func (gs Groups) AddCondition(gi int) Groups {
	out := gs.clone()
	if !out.inRange(gi) {
		return out
	}
	out[gi].Conditions = append(out[gi].Conditions, Condition{})
	return out
}

func (gs Groups) RemoveCondition(gi, ci int) Groups {
	out := gs.clone()
	if !out.inRange(gi) || ci < 0 || ci >= len(out[gi].Conditions) {
		return out
	}
	conds := out[gi].Conditions
	out[gi].Conditions = append(conds[:ci], conds[ci+1:]...)
	return out
}

// UpdateCondition shallow-merges p into condition ci of group gi.
// A field change resets operator and value, since they belonged to the
// previous field's type. Selecting a valueless operator clears the value.
func (gs Groups) UpdateCondition(gi, ci int, p Patch) Groups {
	out := gs.clone()
	if !out.inRange(gi) || ci < 0 || ci >= len(out[gi].Conditions) {
		return out
	}
	out[gi].Conditions[ci] = p.Apply(out[gi].Conditions[ci])
	return out
}

// Apply merges p into c with the same side effects as UpdateCondition.
func (p Patch) Apply(c Condition) Condition {
	if p.Field != nil {
		c.Field = *p.Field
		c.Operator = ""
		c.Value = ""
		c.ValueField = ""
		c.ValueExpression = ""
		if c.ValueType != "" {
			c.ValueType = ValueLiteral
		}
	}
	if p.Operator != nil {
		c.Operator = *p.Operator
	}
	if p.Value != nil {
		c.Value = *p.Value
	}
	if p.ValueType != nil {
		c.ValueType = *p.ValueType
	}
	if p.ValueField != nil {
		c.ValueField = *p.ValueField
	}
	if p.ValueExpression != nil {
		c.ValueExpression = *p.ValueExpression
	}
	if IsValueless(c.Operator) {
		c.Value = ""
		c.ValueField = ""
		c.ValueExpression = ""
	}
	return c
}

// Clean prepares groups for persistence. Groups without a single complete
// condition are dropped, incomplete conditions inside kept groups are
// removed, and comparands are normalized against their operator.
// Incomplete rules are dropped silently rather than rejected.
func Clean(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if !g.hasComplete() {
			continue
		}
		kept := Group{Logic: g.Logic, Conditions: make([]Condition, 0, len(g.Conditions))}
		if kept.Logic != Or {
			kept.Logic = And
		}
		for _, c := range g.Conditions {
			if c.Complete() {
				kept.Conditions = append(kept.Conditions, c.Normalized())
			}
		}
		out = append(out, kept)
	}
	return out
}
