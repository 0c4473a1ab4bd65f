package repertoire

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"

	"github.com/karpatkey/defi-repertoire/chain"
)

// FieldType is the semantic type of a strategy argument.
type FieldType string

const (
	// AddressField is a 0x-prefixed, EIP-55 checksummed contract or account address.
	AddressField FieldType = "address"
	// AmountField is a strictly positive integer in token base units.
	AmountField FieldType = "amount"
	// PercentageField is a number in [0, 100].
	PercentageField FieldType = "percentage"
)

var hundred = decimal.NewFromInt(100)

// Field declares one strategy argument.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
}

// Schema is the ordered argument list of a strategy. The strict schema and
// the optional (options-resolution) schema are both derived from it.
type Schema []Field

// Optional returns the same fields with nothing required.
func (s Schema) Optional() Schema {
	out := make(Schema, len(s))
	for i, f := range s {
		f.Required = false
		out[i] = f
	}
	return out
}

// Field looks a field up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) check() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if f.Name == "" {
			return fmt.Errorf("field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Type {
		case AddressField, AmountField, PercentageField:
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// Validate converts raw (JSON-decoded) arguments into typed Args. Every
// failing field is reported; the returned slice is empty on success.
func (s Schema) Validate(raw map[string]any) (Args, []FieldError) {
	args := make(Args, len(s))
	var errs []FieldError

	for _, f := range s {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Reason: "field required"})
			}
			continue
		}
		typed, err := f.Type.parse(v)
		if err != nil {
			errs = append(errs, FieldError{Field: f.Name, Reason: err.Error()})
			continue
		}
		args[f.Name] = typed
	}

	var unknown []string
	for name := range raw {
		if _, ok := s.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, FieldError{Field: name, Reason: "unknown field"})
	}

	return args, errs
}

// JSONSchema renders the schema the way the catalogue exposes it to clients.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s))
	required := make([]string, 0, len(s))
	for _, f := range s {
		p := map[string]any{"title": f.Name}
		if f.Description != "" {
			p["description"] = f.Description
		}
		switch f.Type {
		case AddressField:
			p["type"] = "string"
			p["format"] = "address"
			p["pattern"] = "^0x[0-9a-fA-F]{40}$"
		case AmountField:
			p["type"] = "integer"
			p["exclusiveMinimum"] = 0
		case PercentageField:
			p["type"] = "number"
			p["minimum"] = 0
			p["maximum"] = 100
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func (t FieldType) parse(v any) (any, error) {
	switch t {
	case AddressField:
		return parseAddress(v)
	case AmountField:
		return parseAmount(v)
	case PercentageField:
		return parsePercentage(v)
	}
	return nil, fmt.Errorf("unknown field type %q", t)
}

func parseAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case string:
		return chain.ParseAddress(a)
	}
	return common.Address{}, fmt.Errorf("expected address string, got %T", v)
}

func parseAmount(v any) (*big.Int, error) {
	var n *big.Int
	switch a := v.(type) {
	case *big.Int:
		if a != nil {
			n = new(big.Int).Set(a)
		}
	case string:
		n = parseIntString(a)
	case json.Number:
		n = parseIntString(a.String())
	case float64:
		if a == math.Trunc(a) && math.Abs(a) < 1<<53 {
			n = big.NewInt(int64(a))
		}
	case int:
		n = big.NewInt(int64(a))
	case int64:
		n = big.NewInt(a)
	case uint64:
		n = new(big.Int).SetUint64(a)
	default:
		return nil, fmt.Errorf("expected integer amount, got %T", v)
	}
	if n == nil {
		return nil, fmt.Errorf("invalid integer amount %v", v)
	}
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	return n, nil
}

func parseIntString(s string) *big.Int {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil
	}
	return n
}

func parsePercentage(v any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch a := v.(type) {
	case decimal.Decimal:
		d = a
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(a))
	case json.Number:
		d, err = decimal.NewFromString(a.String())
	case float64:
		d = decimal.NewFromFloat(a)
	case int:
		d = decimal.NewFromInt(int64(a))
	case int64:
		d = decimal.NewFromInt(a)
	default:
		return decimal.Decimal{}, fmt.Errorf("expected number, got %T", v)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %v", v)
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Decimal{}, fmt.Errorf("percentage must be between 0 and 100")
	}
	return d, nil
}

// Args holds validated, typed argument values keyed by field name:
// common.Address, *big.Int or decimal.Decimal.
type Args map[string]any

// Address returns the address argument name, if present.
func (a Args) Address(name string) (common.Address, bool) {
	v, ok := a[name].(common.Address)
	return v, ok
}

// Amount returns the amount argument name, if present.
func (a Args) Amount(name string) (*big.Int, bool) {
	v, ok := a[name].(*big.Int)
	return v, ok && v != nil
}

// Percentage returns the percentage argument name, if present.
func (a Args) Percentage(name string) (decimal.Decimal, bool) {
	v, ok := a[name].(decimal.Decimal)
	return v, ok
}

// Decode copies the typed values into the mapstructure-tagged struct out.
func (a Args) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(a))
}

// Fraction converts a percentage into a [0, 1] multiplier.
func Fraction(pct decimal.Decimal) decimal.Decimal {
	return pct.Div(hundred)
}

// ApplySlippage returns floor(amount * (1 - pct/100)).
func ApplySlippage(amount *big.Int, pct decimal.Decimal) *big.Int {
	keep := decimal.NewFromInt(1).Sub(Fraction(pct))
	return decimal.NewFromBigInt(amount, 0).Mul(keep).Floor().BigInt()
}
