// internal/launchpad/config.go
package launchpad

import (
	"fmt"
	"math/big"

	"github.com/rovshanmuradov/launchpad/internal/types"
)

// TradingFeeConfig is the global bonding-phase fee schedule.
type TradingFeeConfig struct {
	// FeeBps is the base fee removed from every trade, capped at 10%.
	FeeBps uint64
	// CreatorShareBps is the slice of the extracted fee routed to the
	// sale's current owner; the rest goes to the protocol treasury.
	CreatorShareBps uint64
}

// Validate enforces the configured bounds.
func (c TradingFeeConfig) Validate() error {
	if c.FeeBps > types.MaxTradingFeeBps {
		return fmt.Errorf("%w: fee %d exceeds %d bps", ErrInvalidFeeRange, c.FeeBps, types.MaxTradingFeeBps)
	}
	if c.CreatorShareBps > types.BpsDivisor {
		return fmt.Errorf("%w: creator share %d exceeds %d bps", ErrInvalidFeeRange, c.CreatorShareBps, types.BpsDivisor)
	}
	return nil
}

// PairingConfig is the per-pairing-asset sale policy.
type PairingConfig struct {
	// MintCost is charged in the pairing asset when a sale is created and
	// forwarded to the treasury.
	MintCost *big.Int
	// GraduationThreshold is the cumulative net deposit level at which a
	// sale leaves the bonding phase.
	GraduationThreshold *big.Int
	Enabled             bool
}

// Validate rejects configs that could never graduate a sale.
func (c PairingConfig) Validate() error {
	if !types.IsPositive(c.GraduationThreshold) {
		return fmt.Errorf("%w: graduation threshold must be positive", ErrInvalidAmount)
	}
	if c.MintCost != nil && c.MintCost.Sign() < 0 {
		return fmt.Errorf("%w: mint cost must be non-negative", ErrInvalidAmount)
	}
	return nil
}
