/*
points.go - Fixed-precision point arithmetic

PURPOSE:
  Points are a money-like scalar: operators compare and sum them across
  months of history, so float drift is unacceptable. This mirrors the
  teacher's generic.Amount wrapper around shopspring/decimal, narrowed
  to the rounding behavior the scoring formulas in §4.4 require
  (round-half-up to the nearest whole point).

SEE ALSO:
  - generic/types.go in the retrieval pack's teacher repo, the Amount
    this is adapted from
  - scoring/scoring.go: the formulas that produce Points values
*/
package scoring

import "github.com/shopspring/decimal"

// Points is a non-negative, whole-number point quantity.
type Points struct {
	d decimal.Decimal
}

// PointsOf wraps a float64 coefficient result, rounding half-up to the
// nearest whole point as every formula in the specification does.
func PointsOf(v float64) Points {
	return Points{d: decimal.NewFromFloat(v).Round(0)}
}

// Zero is the additive identity.
var Zero = Points{d: decimal.Zero}

func (p Points) Add(o Points) Points { return Points{d: p.d.Add(o.d)} }
func (p Points) Sub(o Points) Points { return Points{d: p.d.Sub(o.d)} }

// Mul multiplies by a plain float coefficient (e.g. a progressive
// penalty multiplier), rounding the result half-up.
func (p Points) Mul(factor float64) Points {
	return Points{d: p.d.Mul(decimal.NewFromFloat(factor)).Round(0)}
}

func (p Points) Float64() float64 {
	f, _ := p.d.Float64()
	return f
}

func (p Points) IsPositive() bool { return p.d.IsPositive() }
func (p Points) IsZero() bool     { return p.d.IsZero() }
