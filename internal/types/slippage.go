// internal/types/slippage.go
package types

import "math/big"

// SlippageType selects how a minimum acceptable output is derived.
type SlippageType string

const (
	// SlippageFixed uses an exact minimum output amount.
	SlippageFixed SlippageType = "fixed"
	// SlippageBps allows the output to slip by a basis-point tolerance.
	SlippageBps SlippageType = "bps"
	// SlippageNone places no lower bound on the output.
	SlippageNone SlippageType = "none"
)

// SlippageConfig configures the minimum-output policy for a trade.
type SlippageConfig struct {
	Type SlippageType `json:"type"`
	// Value holds the fixed minimum (base units) for SlippageFixed,
	// or the tolerance in basis points for SlippageBps.
	Value *big.Int `json:"value"`
}

// MinAmountOut derives the minimum acceptable output for an expected quote.
func MinAmountOut(expected *big.Int, cfg SlippageConfig) *big.Int {
	switch cfg.Type {
	case SlippageFixed:
		return Clone(cfg.Value)
	case SlippageBps:
		tolerance := uint64(0)
		if cfg.Value != nil && cfg.Value.IsUint64() {
			tolerance = cfg.Value.Uint64()
		}
		if tolerance >= BpsDivisor {
			return new(big.Int)
		}
		return ApplyBps(expected, BpsDivisor-tolerance)
	case SlippageNone:
		return new(big.Int)
	default:
		return new(big.Int)
	}
}
