/*
money.go - Decimal money values

PURPOSE:
  Money is a thin wrapper over decimal.Decimal for euro amounts. All
  engine math is decimal so that capping, splitting and summing entry
  values never accumulates float error.

SEE ALSO:
  - ledger.go: Charges and clamps Money amounts
*/
package allocation

import "github.com/shopspring/decimal"

// Money is a euro amount with exact decimal arithmetic.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func MoneyFromDecimal(d decimal.Decimal) Money { return Money{Value: d} }

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

// MustParseMoney parses a decimal string, returning zero on failure.
// Used when loading mirrored records whose values were written by us.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money                { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money                { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) MulDecimal(d decimal.Decimal) Money { return Money{Value: m.Value.Mul(d)} }
func (m Money) Neg() Money                       { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool                 { return m.Value.IsNegative() }
func (m Money) IsZero() bool                     { return m.Value.IsZero() }
func (m Money) IsPositive() bool                 { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool               { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool         { return m.Value.GreaterThan(o.Value) }
func (m Money) GreaterThanOrEqual(o Money) bool  { return m.Value.GreaterThanOrEqual(o.Value) }
func (m Money) LessThan(o Money) bool            { return m.Value.LessThan(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// FloorZero clamps negative amounts to zero.
func (m Money) FloorZero() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

// Float64 returns an approximate float value, for JSON output only.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.String() }
