package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record field names and key layout of a persisted account.
const (
	KeyPrefix = "account:"

	FieldType      = "type"
	FieldName      = "name"
	FieldBalance   = "balance"
	FieldInterest  = "interest"
	FieldOverdraft = "overdraft"
)

// Record is the string field map an account is stored as, e.g.
//
//	{type: SAVINGS, name: Alice, balance: 1000, interest: 0.02}
type Record map[string]string

// Key returns the store key of an account: "account:<number>".
func Key(number int64) string {
	return KeyPrefix + strconv.FormatInt(number, 10)
}

// ParseKey extracts the account number from a store key.
func ParseKey(key string) (int64, error) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return 0, ErrInvalidFieldValue.WithDetailsf("key %q lacks prefix %q", key, KeyPrefix)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, ErrInvalidFieldValue.WithDetailsf("key %q", key).WithCause(err)
	}
	return n, nil
}

func (a *Account) record() Record {
	r := Record{
		FieldType:    string(a.kind),
		FieldName:    a.holder,
		FieldBalance: a.balance.String(),
	}
	switch a.kind {
	case KindSavings:
		r[FieldInterest] = a.rate.String()
	case KindChecking:
		r[FieldOverdraft] = a.limit.String()
	}
	return r
}

// FromRecord rebuilds an account from its stored form, applying the same
// validation as New.
func FromRecord(number int64, r Record) (*Account, error) {
	kind, err := ParseKind(r[FieldType])
	if err != nil {
		return nil, err
	}
	balance, err := recordDecimal(r, FieldBalance)
	if err != nil {
		return nil, err
	}

	s := Spec{
		Kind:       kind,
		Number:     number,
		HolderName: r[FieldName],
		Balance:    balance,
	}
	switch kind {
	case KindSavings:
		s.InterestRate, err = recordDecimal(r, FieldInterest)
	case KindChecking:
		s.OverdraftLimit, err = recordDecimal(r, FieldOverdraft)
	}
	if err != nil {
		return nil, err
	}
	return New(s)
}

func recordDecimal(r Record, field string) (decimal.Decimal, error) {
	raw, ok := r[field]
	if !ok {
		return decimal.Zero, ErrMissingField.WithDetails(field)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidFieldType.WithDetailsf("%s: %q", field, raw).WithCause(err)
	}
	if err := checkStored(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// View is a detached copy of an account's public fields.
type View struct {
	Type           Kind             `json:"accountType" yaml:"accountType"`
	Number         int64            `json:"accountNumber" yaml:"accountNumber"`
	HolderName     string           `json:"holderName" yaml:"holderName"`
	Balance        decimal.Decimal  `json:"balance" yaml:"balance"`
	InterestRate   *decimal.Decimal `json:"interestRate,omitempty" yaml:"interestRate,omitempty"`
	OverdraftLimit *decimal.Decimal `json:"overdraftLimit,omitempty" yaml:"overdraftLimit,omitempty"`
}

// Describe renders the view on one line: "<TYPE> <number> <holder> <balance> <rate|limit>".
func (v View) Describe() string {
	var b strings.Builder
	b.WriteString(string(v.Type))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(v.Number, 10))
	b.WriteByte(' ')
	b.WriteString(v.HolderName)
	b.WriteByte(' ')
	b.WriteString(v.Balance.String())
	switch {
	case v.InterestRate != nil:
		b.WriteByte(' ')
		b.WriteString(v.InterestRate.String())
	case v.OverdraftLimit != nil:
		b.WriteByte(' ')
		b.WriteString(v.OverdraftLimit.String())
	}
	return b.String()
}

// viewWire renders decimals as JSON numbers.
type viewWire struct {
	Type           Kind        `json:"accountType"`
	Number         int64       `json:"accountNumber"`
	HolderName     string      `json:"holderName"`
	Balance        json.Number `json:"balance"`
	InterestRate   json.Number `json:"interestRate,omitempty"`
	OverdraftLimit json.Number `json:"overdraftLimit,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v View) MarshalJSON() ([]byte, error) {
	w := viewWire{
		Type:       v.Type,
		Number:     v.Number,
		HolderName: v.HolderName,
		Balance:    json.Number(v.Balance.String()),
	}
	if v.InterestRate != nil {
		w.InterestRate = json.Number(v.InterestRate.String())
	}
	if v.OverdraftLimit != nil {
		w.OverdraftLimit = json.Number(v.OverdraftLimit.String())
	}
	return json.Marshal(w)
}

// MarshalYAML implements yaml.Marshaler with decimals as plain strings.
func (v View) MarshalYAML() (any, error) {
	out := map[string]any{
		"accountType":   string(v.Type),
		"accountNumber": v.Number,
		"holderName":    v.HolderName,
		"balance":       v.Balance.String(),
	}
	if v.InterestRate != nil {
		out["interestRate"] = v.InterestRate.String()
	}
	if v.OverdraftLimit != nil {
		out["overdraftLimit"] = v.OverdraftLimit.String()
	}
	return out, nil
}
