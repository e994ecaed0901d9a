package domain

import (
	"github.com/shopspring/decimal"
)

// Decimal bounds. Request values get the tight window. Stored balances get a
// wider one because interest is applied exactly and grows the scale.
const (
	MaxScale         = 8
	MaxIntegerDigits = 15 // |d| < 1e15

	MaxStoredScale         = 1024
	MaxStoredIntegerDigits = 32
)

// CheckDecimal rejects a request value with more than MaxScale decimal places
// or a magnitude of 1e15 or more. Only the exponent and digit count are
// inspected, so an extreme exponent is refused without rescaling it.
func CheckDecimal(field string, d decimal.Decimal) error {
	return checkBounds(field, d, MaxScale, MaxIntegerDigits)
}

func checkStored(field string, d decimal.Decimal) error {
	return checkBounds(field, d, MaxStoredScale, MaxStoredIntegerDigits)
}

func checkBounds(field string, d decimal.Decimal, maxScale, maxIntDigits int) error {
	exp := int64(d.Exponent())
	if exp < -int64(maxScale) {
		return ErrInvalidFieldValue.WithDetailsf("%s has more than %d decimal places", field, maxScale)
	}
	tooLarge := exp > int64(maxIntDigits)
	if !tooLarge && !d.IsZero() {
		tooLarge = int64(d.NumDigits())+exp > int64(maxIntDigits)
	}
	if tooLarge {
		return ErrInvalidFieldValue.WithDetailsf("%s must be below 1e%d in magnitude", field, maxIntDigits)
	}
	return nil
}
