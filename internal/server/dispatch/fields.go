package dispatch

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// Field names of the request envelope.
const (
	FieldAction         = "action"
	FieldAccountNumber  = "accountNumber"
	FieldAccountType    = "accountType"
	FieldHolderName     = "holderName"
	FieldBalance        = "balance"
	FieldInterestRate   = "interestRate"
	FieldOverdraftLimit = "overdraftLimit"
	FieldAmount         = "amount"
	FieldTarget         = "target"
)

// Short names accepted for the variant fields.
var fieldAliases = map[string][]string{
	FieldInterestRate:   {"interest"},
	FieldOverdraftLimit: {"overdraft"},
}

// fields wraps a request's field map with typed accessors. Values may arrive
// as strings or as JSON primitives.
type fields map[string]any

// lookup returns the value under name or one of its aliases. A JSON null
// counts as absent.
func (f fields) lookup(name string) (any, bool) {
	if v, ok := f[name]; ok && v != nil {
		return v, true
	}
	for _, alias := range fieldAliases[name] {
		if v, ok := f[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// scalar renders a string or number value as trimmed text. ok is false for
// any other JSON type.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func (f fields) requireString(name string) (string, error) {
	v, ok := f.lookup(name)
	if !ok {
		return "", domain.ErrMissingField.WithDetails(name)
	}
	s, isString := v.(string)
	if !isString {
		return "", domain.ErrInvalidFieldType.WithDetailsf("%s must be a string", name)
	}
	if s = strings.TrimSpace(s); s == "" {
		return "", domain.ErrMissingField.WithDetails(name)
	}
	return s, nil
}

func (f fields) requireInt(name string) (int64, error) {
	v, ok := f.lookup(name)
	if !ok {
		return 0, domain.ErrMissingField.WithDetails(name)
	}
	s, ok := scalar(v)
	if !ok {
		return 0, domain.ErrInvalidFieldType.WithDetailsf("%s must be an integer", name)
	}
	if s == "" {
		return 0, domain.ErrMissingField.WithDetails(name)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidFieldType.WithDetailsf("%s must be an integer, got %q", name, s)
	}
	return n, nil
}

func (f fields) requireDecimal(name string) (decimal.Decimal, error) {
	d, present, err := f.decimal(name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !present {
		return decimal.Decimal{}, domain.ErrMissingField.WithDetails(name)
	}
	return d, nil
}

// decimal reads an optional decimal. Empty strings count as absent.
func (f fields) decimal(name string) (decimal.Decimal, bool, error) {
	v, ok := f.lookup(name)
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	s, ok := scalar(v)
	if !ok {
		return decimal.Decimal{}, false, domain.ErrInvalidFieldType.WithDetailsf("%s must be a number", name)
	}
	if s == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false, domain.ErrInvalidFieldType.WithDetailsf("%s must be a number, got %q", name, s)
	}
	if err := domain.CheckDecimal(name, d); err != nil {
		return decimal.Decimal{}, false, err
	}
	return d, true, nil
}

func (f fields) optionalDecimal(name string) (*decimal.Decimal, error) {
	d, present, err := f.decimal(name)
	if err != nil || !present {
		return nil, err
	}
	return &d, nil
}

// optionalString reads an optional string. Empty strings count as absent.
func (f fields) optionalString(name string) (*string, error) {
	v, ok := f.lookup(name)
	if !ok {
		return nil, nil
	}
	s, isString := v.(string)
	if !isString {
		return nil, domain.ErrInvalidFieldType.WithDetailsf("%s must be a string", name)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return &s, nil
}

// target reads the APPLY_INTEREST target: "all" or an account number.
func (f fields) target() (bool, int64, error) {
	v, ok := f.lookup(FieldTarget)
	if !ok {
		return false, 0, domain.ErrMissingField.WithDetails(FieldTarget)
	}
	if s, isString := v.(string); isString && strings.EqualFold(strings.TrimSpace(s), "all") {
		return true, 0, nil
	}
	n, err := f.requireInt(FieldTarget)
	if err != nil {
		return false, 0, domain.ErrInvalidFieldValue.WithDetailsf("%s must be \"all\" or an account number", FieldTarget)
	}
	return false, n, nil
}
