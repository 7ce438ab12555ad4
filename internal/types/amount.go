// internal/types/amount.go
package types

import "math/big"

const (
	// BpsDivisor is the basis-point denominator: 10000 bps == 100%.
	BpsDivisor = 10000

	// MaxTradingFeeBps caps the configurable trading fee at 10%.
	MaxTradingFeeBps = 1000
)

var (
	bpsDivisor = big.NewInt(BpsDivisor)

	// Precision is the fixed-point scale used for curve interpolation math.
	Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// ApplyBps returns amount * bps / 10000, rounded down.
func ApplyBps(amount *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Div(out, bpsDivisor)
}

// MulDiv returns a * b / denom, rounded down. denom must be non-zero.
func MulDiv(a, b, denom *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Div(out, denom)
}

// IsPositive reports whether amount is a non-nil value greater than zero.
func IsPositive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

// Clone returns an independent copy of amount, treating nil as zero.
func Clone(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(amount)
}
