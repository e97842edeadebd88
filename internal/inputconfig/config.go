// Package inputconfig decodes and validates the per-type config blob stored
// on pricing-engine inputs. The blob is a union discriminated by the input's
// input_type; each variant has its own struct.
package inputconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid input config")

// Kind names a config variant.
type Kind string

const (
	KindNone              Kind = ""
	KindTable             Kind = "table"
	KindNumberConstraints Kind = "number_constraints"
	KindBooleanDisplay    Kind = "boolean_display"
	KindAddressRole       Kind = "address_role"
)

// Config is implemented by every variant.
type Config interface {
	Kind() Kind
	Validate() error
}

// IsNumeric reports whether inputType belongs to the numeric family.
func IsNumeric(inputType string) bool {
	switch inputType {
	case "number", "currency", "percentage", "calc_currency":
		return true
	}
	return false
}

// KindFor returns the config variant an input type carries.
// Text-like types may carry an address role; that is resolved by Decode.
func KindFor(inputType string) Kind {
	switch {
	case inputType == "table":
		return KindTable
	case IsNumeric(inputType):
		return KindNumberConstraints
	case inputType == "boolean":
		return KindBooleanDisplay
	case inputType == "text", inputType == "dropdown":
		return KindAddressRole
	}
	return KindNone
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

// Decode parses raw into the variant for inputType and validates it.
// A null or empty blob decodes to nil. Unknown fields are rejected.
func Decode(inputType string, raw json.RawMessage) (Config, error) {
	if isNull(raw) {
		return nil, nil
	}

	var cfg Config
	switch KindFor(inputType) {
	case KindTable:
		cfg = &TableConfig{}
	case KindNumberConstraints:
		cfg = &NumberConstraintsConfig{}
	case KindBooleanDisplay:
		cfg = &BooleanDisplayConfig{}
	case KindAddressRole:
		cfg = &AddressRoleConfig{}
	default:
		return nil, fmt.Errorf("%w: %s inputs take no config", ErrInvalidConfig, inputType)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Encode marshals cfg for storage. A nil config encodes to JSON null.
func Encode(cfg Config) (json.RawMessage, error) {
	if cfg == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode %s config: %w", cfg.Kind(), err)
	}
	return b, nil
}

// Normalize decodes, cleans and re-encodes a blob. It is the single entry
// point used by the API before a config is persisted.
func Normalize(inputType string, raw json.RawMessage) (json.RawMessage, error) {
	cfg, err := Decode(inputType, raw)
	if err != nil {
		return nil, err
	}
	if nc, ok := cfg.(*NumberConstraintsConfig); ok {
		nc.ConditionalConstraints = nc.ConditionalConstraints.Clean()
	}
	return Encode(cfg)
}
