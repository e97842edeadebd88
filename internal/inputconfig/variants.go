package inputconfig

import (
	"errors"
	"fmt"
)

// TableColumn is one column of a table-shaped input.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// TableRow is a fixed row of a table-shaped input.
type TableRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableConfig configures a table input. With RowMode "dynamic" users add
// rows at runtime and Rows is ignored. AllowAddRows is the editor's switch
// for the same thing and is kept in step with RowMode. RowLabel heads the
// row-label column.
type TableConfig struct {
	Columns      []TableColumn `json:"columns"`
	Rows         []TableRow    `json:"rows,omitempty"`
	RowLabel     string        `json:"row_label,omitempty"`
	AllowAddRows bool          `json:"allow_add_rows"`
	RowMode      string        `json:"row_mode,omitempty"`
	MinRows      int           `json:"min_rows,omitempty"`
	MaxRows      int           `json:"max_rows,omitempty"`
}

var tableColumnTypes = map[string]bool{
	"text": true, "number": true, "currency": true, "percentage": true, "date": true, "boolean": true,
}

func (c *TableConfig) Kind() Kind { return KindTable }

func (c *TableConfig) Validate() error {
	if len(c.Columns) == 0 {
		return errors.New("table config needs at least one column")
	}
	seen := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		if col.Key == "" {
			return fmt.Errorf("column %d has no key", i)
		}
		if seen[col.Key] {
			return fmt.Errorf("duplicate column key %q", col.Key)
		}
		seen[col.Key] = true
		if col.Type == "" {
			c.Columns[i].Type = "text"
		} else if !tableColumnTypes[col.Type] {
			return fmt.Errorf("column %q has unsupported type %q", col.Key, col.Type)
		}
	}
	switch c.RowMode {
	case "":
		c.RowMode = "fixed"
		if c.AllowAddRows {
			c.RowMode = "dynamic"
		}
	case "fixed":
		if c.AllowAddRows {
			return errors.New("allow_add_rows conflicts with fixed row mode")
		}
	case "dynamic":
	default:
		return fmt.Errorf("unsupported row mode %q", c.RowMode)
	}
	c.AllowAddRows = c.RowMode == "dynamic"
	rowKeys := make(map[string]bool, len(c.Rows))
	for i, row := range c.Rows {
		if row.Key == "" {
			return fmt.Errorf("row %d has no key", i)
		}
		if rowKeys[row.Key] {
			return fmt.Errorf("duplicate row key %q", row.Key)
		}
		rowKeys[row.Key] = true
	}
	if c.MinRows < 0 || c.MaxRows < 0 || (c.MaxRows > 0 && c.MinRows > c.MaxRows) {
		return fmt.Errorf("invalid row limits %d..%d", c.MinRows, c.MaxRows)
	}
	return nil
}

// BooleanDisplayConfig controls how a boolean input renders.
type BooleanDisplayConfig struct {
	Display    string `json:"display"`
	TrueLabel  string `json:"true_label,omitempty"`
	FalseLabel string `json:"false_label,omitempty"`
}

func (c *BooleanDisplayConfig) Kind() Kind { return KindBooleanDisplay }

func (c *BooleanDisplayConfig) Validate() error {
	switch c.Display {
	case "":
		c.Display = "toggle"
	case "toggle", "checkbox", "dropdown", "radio":
	default:
		return fmt.Errorf("unsupported boolean display %q", c.Display)
	}
	if c.Display == "dropdown" || c.Display == "radio" {
		if c.TrueLabel == "" {
			c.TrueLabel = "Yes"
		}
		if c.FalseLabel == "" {
			c.FalseLabel = "No"
		}
	}
	return nil
}

// AddressRoleConfig tags a text input as one part of an address group so
// the UI can autocomplete the group together.
type AddressRoleConfig struct {
	AddressGroup string `json:"address_group"`
	AddressRole  string `json:"address_role"`
}

var addressRoles = map[string]bool{
	"street": true, "unit": true, "city": true, "state": true, "zip": true, "county": true, "country": true,
}

func (c *AddressRoleConfig) Kind() Kind { return KindAddressRole }

func (c *AddressRoleConfig) Validate() error {
	if c.AddressGroup == "" {
		return errors.New("address role config needs an address group")
	}
	if !addressRoles[c.AddressRole] {
		return fmt.Errorf("unsupported address role %q", c.AddressRole)
	}
	return nil
}
