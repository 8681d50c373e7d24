package domain

import (
	"github.com/shopspring/decimal"

	dErrors "villageinsure/pkg/domain-errors"
)

// BasisPoints is the denominator for rates expressed in basis points.
const BasisPoints = 10000

// ParseAmount parses a positive monetary amount from external input.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount must be a decimal number")
	}
	if !d.IsPositive() {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return d, nil
}

// ApplyBasisPoints returns amount * bps / 10000.
func ApplyBasisPoints(amount decimal.Decimal, bps int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(bps))).Div(decimal.NewFromInt(BasisPoints))
}
