package market

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned for prices and amounts that are not plain
// decimal literals.
var ErrInvalidDecimal = errors.New("invalid decimal")

// decimalLiteral matches the price format stored in listings and escrow
// transactions: digits with an optional fraction, no sign or exponent.
var decimalLiteral = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseDecimal parses a price or amount such as "425" or "0.30".
func ParseDecimal(s string) (decimal.Decimal, error) {
	if !decimalLiteral.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return d, nil
}
