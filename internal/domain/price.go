package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var maxTicks = decimal.NewFromInt(math.MaxInt64)

// ToTicks converts a decimal price into an integer number of ticks. The price
// must be an exact multiple of tick; anything else would need rounding.
func ToTicks(price, tick decimal.Decimal) (int64, error) {
	if !tick.IsPositive() {
		return 0, fmt.Errorf("tick size must be greater than 0, got %s", tick)
	}
	q, r := price.QuoRem(tick, 0)
	if !r.IsZero() {
		return 0, fmt.Errorf("price %s is not a multiple of tick size %s", price, tick)
	}
	if q.Abs().GreaterThan(maxTicks) {
		return 0, fmt.Errorf("price %s is out of range", price)
	}
	return q.IntPart(), nil
}

// FromTicks converts a tick count back to a decimal price.
func FromTicks(ticks int64, tick decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(ticks).Mul(tick)
}

// ParsePrice parses a decimal string and converts it to ticks.
func ParsePrice(s string, tick decimal.Decimal) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return ToTicks(d, tick)
}
